// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package github

import "net/http"

type fnOption = func(*Provider) error

type Options struct {
	// Token authenticates against the GitHub API. Defaults to the
	// GITHUB_TOKEN environment variable.
	Token string

	// GraphqlURL is the GraphQL endpoint, overridable for GitHub
	// Enterprise or tests.
	GraphqlURL string
}

func WithToken(token string) fnOption {
	return func(p *Provider) error {
		p.options.Token = token
		return nil
	}
}

func WithGraphqlURL(url string) fnOption {
	return func(p *Provider) error {
		p.options.GraphqlURL = url
		return nil
	}
}

// WithHTTPClient swaps the underlying HTTP client, mostly for tests.
func WithHTTPClient(client *http.Client) fnOption {
	return func(p *Provider) error {
		p.http = client
		return nil
	}
}
