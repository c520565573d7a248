// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package github implements the remote host interfaces on top of the
// GitHub REST and GraphQL APIs.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	gogithub "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

const defaultGraphqlURL = "https://api.github.com/graphql"

// ParseSlug splits an owner/repo slug.
func ParseSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo slug %q", slug)
	}
	return parts[0], parts[1], nil
}

// New creates a GitHub provider. The API token is read from the
// GITHUB_TOKEN environment variable unless overridden with WithToken.
func New(funcs ...fnOption) (*Provider, error) {
	p := &Provider{
		options: Options{
			Token:      os.Getenv("GITHUB_TOKEN"),
			GraphqlURL: defaultGraphqlURL,
		},
	}

	for _, fn := range funcs {
		if err := fn(p); err != nil {
			return nil, err
		}
	}

	if p.options.Token == "" {
		return nil, errors.New("GITHUB_TOKEN not set")
	}

	if p.http == nil {
		p.http = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: p.options.Token},
		))
	}
	p.client = gogithub.NewClient(p.http)

	return p, nil
}

// Provider talks to GitHub. It satisfies both api.GitProvider and
// api.PullRequestLister.
type Provider struct {
	options Options
	client  *gogithub.Client
	http    *http.Client
}

// CreatePr opens a pull request.
func (p *Provider) CreatePr(ctx context.Context, req *api.CreatePrRequest) (*api.PrDetails, error) {
	pr, _, err := p.client.PullRequests.Create(ctx, req.Owner, req.Repo, &gogithub.NewPullRequest{
		Title:               gogithub.String(req.Title),
		Head:                gogithub.String(req.Head),
		Base:                gogithub.String(req.Base),
		Body:                gogithub.String(req.Body),
		MaintainerCanModify: gogithub.Bool(true),
	})
	if err != nil {
		return nil, wrapError("creating pull request", err)
	}
	return prToDetails(pr), nil
}

// GetPr fetches a pull request by number.
func (p *Provider) GetPr(ctx context.Context, owner, repo string, number int) (*api.PrDetails, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("fetching PR #%d", number), err)
	}
	return prToDetails(pr), nil
}

// UpdatePr updates the PR's head branch with the latest base branch
// changes. GitHub queues the update and answers 202, which the client
// library surfaces as an AcceptedError; that is success here.
func (p *Provider) UpdatePr(ctx context.Context, owner, repo string, number int) error {
	_, _, err := p.client.PullRequests.UpdateBranch(ctx, owner, repo, number, nil)
	if err != nil {
		var accepted *gogithub.AcceptedError
		if errors.As(err, &accepted) {
			return nil
		}
		return wrapError(fmt.Sprintf("updating PR #%d", number), err)
	}
	return nil
}

// DeleteBranch removes a branch ref. Returns false when the remote
// rejected the deletion, commonly because the ref is already gone.
func (p *Provider) DeleteBranch(ctx context.Context, owner, repo, branch string) (bool, error) {
	if _, err := p.client.Git.DeleteRef(ctx, owner, repo, "refs/heads/"+branch); err != nil {
		return false, wrapError(fmt.Sprintf("deleting branch %q", branch), err)
	}
	return true, nil
}

func prToDetails(pr *gogithub.PullRequest) *api.PrDetails {
	return &api.PrDetails{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		URL:         pr.GetHTMLURL(),
		State:       strings.ToUpper(pr.GetState()),
		HeadRefName: pr.GetHead().GetRef(),
		BaseRefName: pr.GetBase().GetRef(),
	}
}

// wrapError converts a go-github error into a ProviderError carrying
// the response status, so callers can tell terminal failures from
// retryable ones.
func wrapError(op string, err error) error {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &api.ProviderError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    fmt.Sprintf("%s: %s", op, ghErr.Message),
		}
	}
	// No response at all (DNS failure, timeout, etc) stays retryable.
	return &api.ProviderError{Message: fmt.Sprintf("%s: %s", op, err)}
}

// prQuery pages through a repository's pull requests, newest first,
// with the merge state of each node.
const prQuery = `query($owner: String!, $name: String!, $states: [PullRequestState!], $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(first: 100, states: $states, after: $after, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        number
        title
        author { login }
        headRefName
        baseRefName
        state
        mergeStateStatus
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Repository struct {
			PullRequests api.PrPage `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListPullRequests runs one page of the pull request query.
func (p *Provider) ListPullRequests(ctx context.Context, owner, repo string, states []api.PrState, after string) (*api.PrPage, error) {
	vars := map[string]any{
		"owner":  owner,
		"name":   repo,
		"states": states,
	}
	if after != "" {
		vars["after"] = after
	}

	body, err := json.Marshal(&graphqlRequest{Query: prQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshaling graphql query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.options.GraphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &api.ProviderError{Message: fmt.Sprintf("querying pull requests: %s", err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &api.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("querying pull requests: unexpected status %s", resp.Status),
		}
	}

	parsed := &graphqlResponse{}
	if err := json.NewDecoder(resp.Body).Decode(parsed); err != nil {
		return nil, fmt.Errorf("parsing graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("graphql query failed: %s", parsed.Errors[0].Message)
	}

	return &parsed.Data.Repository.PullRequests, nil
}
