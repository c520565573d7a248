// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/lifecycle"
)

// Cleanup reconciles the remote fix PRs for one GHSA: pull requests
// that fell behind their base branch are updated and branches of merged
// ones are deleted. Matches are processed concurrently and failures are
// isolated per match. Returns the matches that were processed
// successfully.
func (c *Client) Cleanup(ctx context.Context, owner, repo, ghsaID string, provider api.GitProvider) []api.PrMatch {
	matches := c.FixPrsWithContext(ctx, owner, repo, &SearchOptions{GhsaID: ghsaID})
	if len(matches) == 0 {
		return []api.PrMatch{}
	}

	type outcome struct {
		err   error
		dirty bool
	}
	outcomes := make([]outcome, len(matches))

	var wg sync.WaitGroup
	for i, m := range matches {
		wg.Add(1)
		go func(i int, m *api.PrContextMatch) {
			defer wg.Done()

			if m.Match.MergeState == api.MergeBehind {
				if err := provider.UpdatePr(ctx, owner, repo, m.Match.Number); err != nil {
					logrus.Warnf("updating PR #%d: %s", m.Match.Number, err)
					outcomes[i].err = err
					return
				}
				// The remote accepted the update; reflect it in the
				// cached node so the next invocation does not retry.
				m.Node.MergeStateStatus = string(api.MergeClean)
				m.Match.MergeState = api.MergeClean
				outcomes[i].dirty = true
				lifecycle.LogPrEvent(lifecycle.PrUpdated, m.Match.Number, ghsaID, "rebased onto "+m.Match.BaseRefName)
			}

			if m.Match.State == api.PrMerged {
				if _, err := provider.DeleteBranch(ctx, owner, repo, m.Match.HeadRefName); err != nil {
					// The branch is usually already gone.
					logrus.Debugf("deleting branch %q: %s", m.Match.HeadRefName, err)
					return
				}
				lifecycle.LogPrEvent(lifecycle.PrMerged, m.Match.Number, ghsaID, "deleted branch "+m.Match.HeadRefName)
			}
		}(i, m)
	}
	wg.Wait()

	// Re-persist every page holding a mutated node, once per page.
	dirty := map[string]*api.PrPage{}
	for i, m := range matches {
		if outcomes[i].dirty {
			dirty[m.CacheKey] = m.Page
		}
	}
	for key, page := range dirty {
		if err := c.cache.Write(key, page); err != nil {
			logrus.Warnf("persisting cache page %q: %s", key, err)
		}
	}

	processed := []api.PrMatch{}
	for i, m := range matches {
		if outcomes[i].err == nil {
			processed = append(processed, m.Match)
		}
	}
	return processed
}
