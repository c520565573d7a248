// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package ledger persists the per-repository record of fixed GHSAs.
// The ledger is best-effort bookkeeping: read failures recover to an
// empty document and write failures never abort the outer fix flow.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carabiner-dev/fixflow/internal/queue"
	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

const (
	ledgerDir  = ".socket"
	ledgerFile = "fixed-ghsas.json"
)

// Path returns the ledger file location for a repository checkout.
func Path(cwd string) string {
	return filepath.Join(cwd, ledgerDir, ledgerFile)
}

// Ledger reads and writes fix trackers. Read-modify-write cycles are
// serialized per ledger file, so concurrent goroutines in one process
// cannot lose updates. Concurrent processes remain unsynchronized.
type Ledger struct {
	ops *queue.Serial
}

// New creates a ledger accessor.
func New() *Ledger {
	return &Ledger{ops: queue.New()}
}

// Load reads the tracker document. Any failure, including a missing or
// corrupt file, recovers to a fresh empty tracker.
func (l *Ledger) Load(cwd string) *api.Tracker {
	data, err := os.ReadFile(Path(cwd))
	if err != nil {
		logrus.Debugf("loading ghsa tracker: %s", err)
		return api.NewTracker()
	}
	tracker := &api.Tracker{}
	if err := json.Unmarshal(data, tracker); err != nil {
		logrus.Debugf("parsing ghsa tracker: %s", err)
		return api.NewTracker()
	}
	if tracker.Fixed == nil {
		tracker.Fixed = []api.GhsaFixRecord{}
	}
	return tracker
}

// Save writes the tracker document, creating the containing directory
// when missing. The document is written to a temp file and renamed so
// a crash mid-write cannot corrupt the ledger.
func (l *Ledger) Save(cwd string, tracker *api.Tracker) error {
	path := Path(cwd)
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0o755)); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(tracker, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ghsa tracker: %w", err)
	}

	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("writing ghsa tracker: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		//nolint:errcheck
		os.Remove(tmp)
		return fmt.Errorf("replacing ghsa tracker: %w", err)
	}
	return nil
}

// MarkFixed records a GHSA as fixed, superseding any prior record for
// the same GHSA. When branch is empty the deterministic fix branch name
// is used. Failures are logged and swallowed: the pull request may
// already exist remotely and bookkeeping must not undo that outcome.
func (l *Ledger) MarkFixed(cwd, ghsaID string, prNumber int, branch string) {
	if branch == "" {
		branch = api.FixBranchName(ghsaID)
	}
	err := l.ops.Do(Path(cwd), func() error {
		tracker := l.Load(cwd)
		kept := tracker.Fixed[:0]
		for _, rec := range tracker.Fixed {
			if rec.GhsaID != ghsaID {
				kept = append(kept, rec)
			}
		}
		tracker.Fixed = append(kept, api.GhsaFixRecord{
			GhsaID:   ghsaID,
			Branch:   branch,
			FixedAt:  time.Now().UTC(),
			PrNumber: prNumber,
		})
		sort.SliceStable(tracker.Fixed, func(i, j int) bool {
			return tracker.Fixed[i].FixedAt.After(tracker.Fixed[j].FixedAt)
		})
		return l.Save(cwd, tracker)
	})
	if err != nil {
		logrus.Warnf("recording fix for %s: %s", ghsaID, err)
	}
}

// IsFixed reports whether a GHSA has a ledger record. Failures read as
// "not fixed": a false negative only costs a redundant fix attempt.
func (l *Ledger) IsFixed(cwd, ghsaID string) bool {
	return l.Load(cwd).Record(ghsaID) != nil
}

// FixedRecords returns all records in the ledger, newest first.
func (l *Ledger) FixedRecords(cwd string) []api.GhsaFixRecord {
	return l.Load(cwd).Fixed
}
