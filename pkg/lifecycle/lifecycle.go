// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle opens fix pull requests against the remote host,
// retrying transient failures and short-circuiting terminal ones.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

const (
	defaultBaseBranch = "main"
	defaultRetries    = 3
)

// Options tunes a PR creation attempt.
type Options struct {
	// BaseBranch the PR targets, "main" when empty.
	BaseBranch string

	// GhsaDetails optionally maps GHSA IDs to a one-line summary used
	// in the PR body.
	GhsaDetails map[string]string

	// Retries is the total number of creation attempts for retryable
	// failures. Defaults to 3.
	Retries int
}

// Client drives pull request creation through a GitProvider.
type Client struct {
	provider api.GitProvider

	// sleep is swapped out in tests to skip real backoff waits.
	sleep func(time.Duration)
}

// New creates a lifecycle client on top of a provider.
func New(provider api.GitProvider) *Client {
	return &Client{provider: provider, sleep: time.Sleep}
}

// OpenFixPr opens a pull request from branch onto the base branch for
// the given GHSA IDs. Server errors and transport failures are retried
// with exponential backoff (1s, 2s, 4s, ...); validation failures such
// as a duplicate PR are terminal after a single attempt. When no PR
// could be created the error describes the final failure and the
// returned details are nil.
func (c *Client) OpenFixPr(ctx context.Context, owner, repo, branch string, ghsaIDs []string, opts *Options) (*api.PrDetails, error) {
	if len(ghsaIDs) == 0 {
		return nil, errors.New("no GHSA IDs to open a PR for")
	}
	if opts == nil {
		opts = &Options{}
	}
	base := opts.BaseBranch
	if base == "" {
		base = defaultBaseBranch
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	title, body := prText(ghsaIDs, opts.GhsaDetails)
	req := &api.CreatePrRequest{
		Owner: owner,
		Repo:  repo,
		Title: title,
		Head:  branch,
		Base:  base,
		Body:  body,
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		created, err := c.provider.CreatePr(ctx, req)
		if err == nil {
			// Normalize by re-reading the full PR. When the lookup
			// fails the creation response is still authoritative.
			details, gerr := c.provider.GetPr(ctx, owner, repo, created.Number)
			if gerr != nil {
				logrus.Debugf("fetching created PR #%d: %s", created.Number, gerr)
				return created, nil
			}
			return details, nil
		}
		lastErr = err

		var perr *api.ProviderError
		if errors.As(err, &perr) && !perr.Retryable() {
			return nil, fmt.Errorf("creating fix PR from %q: %w", branch, err)
		}

		if attempt < retries {
			wait := backoff(attempt)
			logrus.Debugf("PR creation attempt %d failed (%s), retrying in %s", attempt, err, wait)
			c.sleep(wait)
		}
	}

	return nil, fmt.Errorf("creating fix PR from %q: retries exhausted: %w", branch, lastErr)
}

// backoff returns the wait before the next attempt: 1s, 2s, 4s, ...
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// prText derives the PR title and body from the GHSA list, with
// singular and plural phrasing.
func prText(ghsaIDs []string, details map[string]string) (title, body string) {
	if len(ghsaIDs) == 1 {
		title = fmt.Sprintf("fix: resolve %s", ghsaIDs[0])
	} else {
		title = fmt.Sprintf("fix: resolve %d security advisories", len(ghsaIDs))
	}

	b := strings.Builder{}
	if len(ghsaIDs) == 1 {
		b.WriteString("This pull request resolves the following security advisory:\n\n")
	} else {
		b.WriteString("This pull request resolves the following security advisories:\n\n")
	}
	for _, id := range ghsaIDs {
		if detail, ok := details[id]; ok && detail != "" {
			fmt.Fprintf(&b, "- %s: %s\n", id, detail)
		} else {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}
	return title, b.String()
}
