// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/cache"
)

type fakeGitProvider struct {
	mu              sync.Mutex
	updateErrs      map[int]error
	updated         []int
	deleteErr       error
	deletedBranches []string
}

func (f *fakeGitProvider) CreatePr(context.Context, *api.CreatePrRequest) (*api.PrDetails, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGitProvider) GetPr(context.Context, string, string, int) (*api.PrDetails, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGitProvider) UpdatePr(_ context.Context, _, _ string, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.updateErrs[number]; ok {
		return err
	}
	f.updated = append(f.updated, number)
	return nil
}

func (f *fakeGitProvider) DeleteBranch(_ context.Context, _, _, branch string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.deletedBranches = append(f.deletedBranches, branch)
	return true, nil
}

func TestCleanupIsolatesFailures(t *testing.T) {
	t.Parallel()
	const ghsa = "GHSA-aaaa-bbbb-cccc"
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{
			fixNode(1, ghsa, "socket-bot", "OPEN", "BEHIND"),
			fixNode(2, ghsa, "socket-bot", "OPEN", "BEHIND"),
		}},
	}}
	c := newTestClient(t, lister)
	provider := &fakeGitProvider{updateErrs: map[int]error{1: errors.New("update rejected")}}

	processed := c.Cleanup(context.Background(), "acme", "widgets", ghsa, provider)
	require.Len(t, processed, 1)
	require.Equal(t, 2, processed[0].Number)
	require.Equal(t, []int{2}, provider.updated)
}

func TestCleanupUpdatesBehindPrAndCache(t *testing.T) {
	t.Parallel()
	const ghsa = "GHSA-aaaa-bbbb-cccc"
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{fixNode(1, ghsa, "socket-bot", "OPEN", "BEHIND")}},
	}}
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	c := New(lister, store)
	provider := &fakeGitProvider{}

	processed := c.Cleanup(context.Background(), "acme", "widgets", ghsa, provider)
	require.Len(t, processed, 1)
	require.Equal(t, api.MergeClean, processed[0].MergeState)
	require.Equal(t, []int{1}, provider.updated)

	// The mutated node was re-persisted, so the next discovery pass sees
	// the PR as clean without hitting the remote.
	cached := &api.PrPage{}
	ok, err := store.Read(cacheKey("widgets", api.NormalizeStates(), 0), cached)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, string(api.MergeClean), cached.Nodes[0].MergeStateStatus)
}

func TestCleanupDeletesMergedBranch(t *testing.T) {
	t.Parallel()
	const ghsa = "GHSA-aaaa-bbbb-cccc"
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{fixNode(4, ghsa, "socket-bot", "MERGED", "UNKNOWN")}},
	}}
	c := newTestClient(t, lister)
	provider := &fakeGitProvider{}

	processed := c.Cleanup(context.Background(), "acme", "widgets", ghsa, provider)
	require.Len(t, processed, 1)
	require.Equal(t, []string{api.FixBranchName(ghsa)}, provider.deletedBranches)
}

func TestCleanupBranchDeletionFailureIsBenign(t *testing.T) {
	t.Parallel()
	const ghsa = "GHSA-aaaa-bbbb-cccc"
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{fixNode(4, ghsa, "socket-bot", "MERGED", "UNKNOWN")}},
	}}
	c := newTestClient(t, lister)
	provider := &fakeGitProvider{deleteErr: errors.New("reference does not exist")}

	// The branch is likely already gone; the match still counts as
	// processed.
	processed := c.Cleanup(context.Background(), "acme", "widgets", ghsa, provider)
	require.Len(t, processed, 1)
}

func TestCleanupChecksAreIndependent(t *testing.T) {
	t.Parallel()
	const ghsa = "GHSA-aaaa-bbbb-cccc"
	// A node reporting both a stale merge state and a merged PR gets
	// both treatments.
	lister := &fakeLister{pages: []*api.PrPage{
		{Nodes: []*api.PrNode{fixNode(8, ghsa, "socket-bot", "MERGED", "BEHIND")}},
	}}
	c := newTestClient(t, lister)
	provider := &fakeGitProvider{}

	processed := c.Cleanup(context.Background(), "acme", "widgets", ghsa, provider)
	require.Len(t, processed, 1)
	require.Equal(t, []int{8}, provider.updated)
	require.Equal(t, []string{api.FixBranchName(ghsa)}, provider.deletedBranches)
}

func TestCleanupNoMatches(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{pages: []*api.PrPage{{Nodes: []*api.PrNode{}}}}
	c := newTestClient(t, lister)

	processed := c.Cleanup(context.Background(), "acme", "widgets", "GHSA-aaaa-bbbb-cccc", &fakeGitProvider{})
	require.NotNil(t, processed)
	require.Empty(t, processed)
}
