// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TrackerVersion is the current schema version of the fix ledger document.
const TrackerVersion = 1

// FixBranchPrefix is the naming convention that ties a fix branch to the
// GHSA it addresses. Discovery and cleanup rely on it to reconcile remote
// pull requests with ledger entries.
const FixBranchPrefix = "socket-fix/"

var (
	ghsaRegexp      = regexp.MustCompile(`^GHSA-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}$`)
	cveRegexp       = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
	fixBranchRegexp = regexp.MustCompile(`^` + FixBranchPrefix + `ghsa-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}$`)
)

// IsGhsaID checks an identifier against the fixed-width GHSA pattern.
func IsGhsaID(s string) bool {
	return ghsaRegexp.MatchString(s)
}

// IsCveID checks an identifier against the CVE pattern.
func IsCveID(s string) bool {
	return cveRegexp.MatchString(s)
}

// FixBranchName returns the deterministic branch name for a GHSA fix.
func FixBranchName(ghsaID string) string {
	return FixBranchPrefix + strings.ToLower(ghsaID)
}

// FixBranchRegexp returns the expression matching fix branches for the
// given GHSA, or for any GHSA when ghsaID is empty.
func FixBranchRegexp(ghsaID string) *regexp.Regexp {
	if ghsaID == "" {
		return fixBranchRegexp
	}
	return regexp.MustCompile(`^` + FixBranchPrefix + regexp.QuoteMeta(strings.ToLower(ghsaID)) + `$`)
}

// GhsaFixRecord is one fix event in a repository's ledger.
type GhsaFixRecord struct {
	GhsaID   string    `json:"ghsaId"`
	Branch   string    `json:"branch"`
	FixedAt  time.Time `json:"fixedAt"`
	PrNumber int       `json:"prNumber,omitempty"`
}

// Tracker is the ledger document persisted per repository checkout. At
// most one record exists per GHSA; re-fixing supersedes the prior record.
type Tracker struct {
	Version int             `json:"version"`
	Fixed   []GhsaFixRecord `json:"fixed"`
}

// NewTracker returns an empty ledger document at the current version.
func NewTracker() *Tracker {
	return &Tracker{Version: TrackerVersion, Fixed: []GhsaFixRecord{}}
}

// Record returns the fix record for a GHSA, or nil.
func (t *Tracker) Record(ghsaID string) *GhsaFixRecord {
	for i := range t.Fixed {
		if t.Fixed[i].GhsaID == ghsaID {
			return &t.Fixed[i]
		}
	}
	return nil
}

// RepoInfo identifies the repository the fix flow operates on.
type RepoInfo struct {
	Owner string
	Repo  string
}

// Slug returns the owner/repo form of the repository identity.
func (r *RepoInfo) Slug() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Repo)
}
