// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package discovery finds existing fix pull requests on the remote
// host. Results come from paginated GraphQL queries whose raw pages are
// snapshotted to a local cache, so a lifecycle action can mutate a
// node in place and re-persist only the page that owns it.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/cache"
)

const (
	// perPage is the GraphQL page size.
	perPage = 100

	// maxPages bounds pagination so a runaway PR history cannot turn
	// discovery into an unbounded stream of queries.
	maxPages = 100
)

// SearchOptions narrows a discovery query.
type SearchOptions struct {
	// Author keeps only PRs created by this login. Nodes without an
	// author are treated as authored by the "unknown" sentinel.
	Author string

	// GhsaID narrows the branch pattern to one GHSA and enables the
	// early-exit optimization.
	GhsaID string

	// States filters by PR state; empty or "all" means every state.
	States []string
}

// Client performs fix PR discovery and cleanup.
type Client struct {
	lister api.PullRequestLister
	cache  *cache.Store
}

// New creates a discovery client.
func New(lister api.PullRequestLister, store *cache.Store) *Client {
	return &Client{lister: lister, cache: store}
}

// cacheKey names the snapshot of one query page.
func cacheKey(repo string, states []api.PrState, page int) string {
	joined := make([]string, len(states))
	for i, s := range states {
		joined[i] = string(s)
	}
	return fmt.Sprintf("%s-pr-graphql-snapshot-%s-page-%d", repo, strings.Join(joined, "-"), page)
}

// FixPrs returns the fix pull requests matching the options. Query
// failures are absorbed: the matches accumulated so far are returned,
// since discovery feeds advisory decisions, not correctness gates.
func (c *Client) FixPrs(ctx context.Context, owner, repo string, opts *SearchOptions) []api.PrMatch {
	matches := c.FixPrsWithContext(ctx, owner, repo, opts)
	ret := make([]api.PrMatch, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, m.Match)
	}
	return ret
}

// FixPrsWithContext returns matches annotated with the cache location
// of their raw node, so callers can mutate a node and re-persist the
// owning page.
//
// When a GhsaID filter is set, pagination stops at the first page with
// a match: pages arrive newest first, so the first hit is assumed to be
// the relevant one. A repository holding several historical fix PRs for
// the same GHSA may therefore see an older one missed.
func (c *Client) FixPrsWithContext(ctx context.Context, owner, repo string, opts *SearchOptions) []*api.PrContextMatch {
	if opts == nil {
		opts = &SearchOptions{}
	}
	pattern := api.FixBranchRegexp(opts.GhsaID)
	states := api.NormalizeStates(opts.States...)

	matches := []*api.PrContextMatch{}
	after := ""
	for pageNum := 0; ; pageNum++ {
		if pageNum >= maxPages {
			logrus.Warnf("PR search in %s/%s stopped at the %d page limit", owner, repo, maxPages)
			break
		}

		key := cacheKey(repo, states, pageNum)
		page, err := c.fetchPage(ctx, key, owner, repo, states, after)
		if err != nil {
			logrus.Warnf("PR search in %s/%s aborted: %s", owner, repo, err)
			break
		}

		for i, node := range page.Nodes {
			if opts.Author != "" && node.Login() != opts.Author {
				continue
			}
			if !pattern.MatchString(node.HeadRefName) {
				continue
			}
			matches = append(matches, &api.PrContextMatch{
				Match:    node.ToMatch(),
				Node:     node,
				CacheKey: key,
				Page:     page,
				Index:    i,
			})
		}

		if opts.GhsaID != "" && len(matches) > 0 {
			break
		}
		if !page.PageInfo.HasNextPage {
			break
		}
		after = page.PageInfo.EndCursor
	}

	return matches
}

// fetchPage reads a page through the cache, querying the remote and
// persisting the raw response on a miss. A broken cache entry is
// treated as a miss.
func (c *Client) fetchPage(ctx context.Context, key, owner, repo string, states []api.PrState, after string) (*api.PrPage, error) {
	cached := &api.PrPage{}
	if ok, err := c.cache.Read(key, cached); err != nil {
		logrus.Debugf("ignoring cache entry %q: %s", key, err)
	} else if ok {
		return cached, nil
	}

	page, err := c.lister.ListPullRequests(ctx, owner, repo, states, after)
	if err != nil {
		return nil, fmt.Errorf("listing pull requests: %w", err)
	}

	if err := c.cache.Write(key, page); err != nil {
		logrus.Debugf("caching page %q: %s", key, err)
	}
	return page, nil
}

// WritePage re-persists a (possibly mutated) page snapshot.
func (c *Client) WritePage(key string, page *api.PrPage) error {
	return c.cache.Write(key, page)
}
