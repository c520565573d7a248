// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/cache"
)

type fakeLister struct {
	pages      []*api.PrPage
	calls      int
	err        error
	alwaysNext bool
}

func (f *fakeLister) ListPullRequests(_ context.Context, _, _ string, _ []api.PrState, _ string) (*api.PrPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.alwaysNext {
		return &api.PrPage{
			PageInfo: api.PageInfo{HasNextPage: true, EndCursor: fmt.Sprintf("c%d", f.calls)},
			Nodes:    []*api.PrNode{},
		}, nil
	}
	idx := f.calls - 1
	if idx >= len(f.pages) {
		return &api.PrPage{Nodes: []*api.PrNode{}}, nil
	}
	return f.pages[idx], nil
}

func newTestClient(t *testing.T, lister api.PullRequestLister) *Client {
	t.Helper()
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	return New(lister, store)
}

func fixNode(number int, ghsaID, author, state, mergeState string) *api.PrNode {
	node := &api.PrNode{
		Number:           number,
		Title:            "fix: resolve " + ghsaID,
		HeadRefName:      api.FixBranchName(ghsaID),
		BaseRefName:      "main",
		State:            state,
		MergeStateStatus: mergeState,
	}
	if author != "" {
		node.Author = &api.PrAuthor{Login: author}
	}
	return node
}

func TestFixPrsPaginationSafetyBound(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{alwaysNext: true}
	c := newTestClient(t, lister)

	matches := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Empty(t, matches)
	require.Equal(t, 100, lister.calls)
}

func TestFixPrsEarlyExitOnTargetedSearch(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{
		{
			PageInfo: api.PageInfo{HasNextPage: true, EndCursor: "c1"},
			Nodes:    []*api.PrNode{fixNode(1, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "CLEAN")},
		},
		{
			Nodes: []*api.PrNode{fixNode(2, "GHSA-aaaa-bbbb-cccc", "socket-bot", "CLOSED", "UNKNOWN")},
		},
	}}
	c := newTestClient(t, lister)

	matches := c.FixPrs(context.Background(), "acme", "widgets", &SearchOptions{GhsaID: "GHSA-aaaa-bbbb-cccc"})
	require.Len(t, matches, 1)
	require.Equal(t, 1, matches[0].Number)
	require.Equal(t, 1, lister.calls)
}

func TestFixPrsFollowsPagination(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{
		{
			PageInfo: api.PageInfo{HasNextPage: true, EndCursor: "c1"},
			Nodes:    []*api.PrNode{fixNode(3, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "CLEAN")},
		},
		{
			Nodes: []*api.PrNode{fixNode(1, "GHSA-dddd-eeee-ffff", "socket-bot", "MERGED", "UNKNOWN")},
		},
	}}
	c := newTestClient(t, lister)

	// No GHSA filter: both pages are visited.
	matches := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Len(t, matches, 2)
	require.Equal(t, 2, lister.calls)
}

func TestFixPrsAuthorFilter(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{
			fixNode(1, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "CLEAN"),
			fixNode(2, "GHSA-dddd-eeee-ffff", "someone-else", "OPEN", "CLEAN"),
			fixNode(3, "GHSA-gggg-hhhh-jjjj", "", "OPEN", "CLEAN"),
		}},
	}}
	c := newTestClient(t, lister)

	matches := c.FixPrs(context.Background(), "acme", "widgets", &SearchOptions{Author: "socket-bot"})
	require.Len(t, matches, 1)
	require.Equal(t, 1, matches[0].Number)

	// An author-less node maps to the unknown sentinel.
	matches = c.FixPrs(context.Background(), "acme", "widgets", &SearchOptions{Author: api.UnknownAuthor})
	require.Len(t, matches, 1)
	require.Equal(t, 3, matches[0].Number)
}

func TestFixPrsBranchPatternFilter(t *testing.T) {
	t.Parallel()
	other := &api.PrNode{Number: 9, HeadRefName: "feature/new-thing", State: "OPEN"}
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{
			other,
			fixNode(1, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "CLEAN"),
		}},
	}}
	c := newTestClient(t, lister)

	matches := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Len(t, matches, 1)
	require.Equal(t, 1, matches[0].Number)
}

func TestFixPrsAbsorbsQueryErrors(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{err: errors.New("remote unavailable")}
	c := newTestClient(t, lister)

	matches := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Empty(t, matches)
}

func TestFixPrsUsesPageCache(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{fixNode(1, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "CLEAN")}},
	}}
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	c := New(lister, store)

	first := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Len(t, first, 1)
	require.Equal(t, 1, lister.calls)

	// The second query is served from the snapshot.
	second := c.FixPrs(context.Background(), "acme", "widgets", nil)
	require.Len(t, second, 1)
	require.Equal(t, 1, lister.calls)
}

func TestFixPrsWithContextCacheCoordinates(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{
			{Number: 5, HeadRefName: "main", State: "OPEN"},
			fixNode(6, "GHSA-aaaa-bbbb-cccc", "socket-bot", "OPEN", "BEHIND"),
		}},
	}}
	c := newTestClient(t, lister)

	matches := c.FixPrsWithContext(context.Background(), "acme", "widgets", nil)
	require.Len(t, matches, 1)
	m := matches[0]
	require.Equal(t, 1, m.Index)
	require.Same(t, m.Page.Nodes[m.Index], m.Node)
	require.Equal(t, "widgets-pr-graphql-snapshot-OPEN-CLOSED-MERGED-page-0", m.CacheKey)
}
