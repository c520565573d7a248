// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"strings"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

type managerImplementation interface {
	// AlreadyFixed reports whether a GHSA already has a live fix and can
	// be skipped.
	AlreadyFixed(fixLedger FixLedger, cwd string, fixEnv *api.FixEnv, ghsaID string) bool

	// ReportAdvisory tells the user what would get fixed when pull
	// requests cannot be created.
	ReportAdvisory(fixEnv *api.FixEnv, ghsas []string)
}

type defaultImplementation struct{}

// AlreadyFixed decides whether a GHSA can be skipped. An open pull
// request on the fix branch is sufficient on its own: a fresh checkout
// has an empty ledger but the PR may well exist, and re-creating it
// would only fail with a duplicate error. A ledger record alone is not
// enough, otherwise a PR closed without merging would block re-fixing
// forever.
func (di *defaultImplementation) AlreadyFixed(fixLedger FixLedger, cwd string, fixEnv *api.FixEnv, ghsaID string) bool {
	branch := api.FixBranchName(ghsaID)
	for _, pr := range fixEnv.Prs {
		if pr.HeadRefName != branch || pr.State != api.PrOpen {
			continue
		}
		// Backfill the ledger so the record survives the snapshot.
		if !fixLedger.IsFixed(cwd, ghsaID) {
			fixLedger.MarkFixed(cwd, ghsaID, pr.Number, branch)
		}
		return true
	}
	return false
}

// ReportAdvisory logs what the flow would fix when it cannot create
// pull requests (i.e. outside of CI).
func (di *defaultImplementation) ReportAdvisory(fixEnv *api.FixEnv, ghsas []string) {
	repo := "the repository"
	if fixEnv.RepoInfo != nil {
		repo = fixEnv.RepoInfo.Slug()
	}
	logrus.Infof(
		"not running in CI mode: %d advisory(ies) would get a fix PR in %s: %s",
		len(ghsas), repo, strings.Join(ghsas, ", "),
	)
}
