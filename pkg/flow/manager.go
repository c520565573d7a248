// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package flow orchestrates the fix pull request lifecycle: translating
// vulnerability identifiers, opening fix PRs, recording them in the
// ledger and reconciling the remote state.
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/ledger"
	"github.com/carabiner-dev/fixflow/pkg/lifecycle"
)

// EnvResolver computes the environment snapshot the flow runs in.
// Satisfied by *env.Resolver.
type EnvResolver interface {
	FixEnv(ctx context.Context) *api.FixEnv
}

// IDTranslator converts mixed vulnerability identifiers to GHSA IDs.
// Satisfied by *ids.Translator.
type IDTranslator interface {
	ConvertIDsToGhsas(ctx context.Context, idList []string) []string
}

// PrOpener opens fix pull requests. Satisfied by *lifecycle.Client.
type PrOpener interface {
	OpenFixPr(ctx context.Context, owner, repo, branch string, ghsaIDs []string, opts *lifecycle.Options) (*api.PrDetails, error)
}

// PrJanitor reconciles existing fix pull requests. Satisfied by
// *discovery.Client.
type PrJanitor interface {
	Cleanup(ctx context.Context, owner, repo, ghsaID string, provider api.GitProvider) []api.PrMatch
}

// FixLedger is the durable record of fixed GHSAs. Satisfied by
// *ledger.Ledger.
type FixLedger interface {
	MarkFixed(cwd, ghsaID string, prNumber int, branch string)
	IsFixed(cwd, ghsaID string) bool
	FixedRecords(cwd string) []api.GhsaFixRecord
}

// New creates a new flow manager
func New(fn ...initFunc) (*Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	manager := &Manager{
		impl:   &defaultImplementation{},
		ledger: ledger.New(),
		cwd:    cwd,
	}

	for _, f := range fn {
		if err := f(manager); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// Manager is the main object. It drives the lifecycle of a
// vulnerability fix from identifier to merged pull request.
type Manager struct {
	impl       managerImplementation
	translator IDTranslator
	opener     PrOpener
	janitor    PrJanitor
	provider   api.GitProvider
	envs       EnvResolver
	ledger     FixLedger
	cwd        string
}

// Fix resolves the identifiers to GHSAs and opens a fix pull request
// for each one that does not already have one. Failures on one GHSA
// never block the rest.
func (mgr *Manager) Fix(ctx context.Context, idList []string) error {
	if mgr.translator == nil || mgr.envs == nil {
		return errors.New("flow manager is missing a translator or environment resolver")
	}

	fixEnv := mgr.envs.FixEnv(ctx)
	ghsas := mgr.translator.ConvertIDsToGhsas(ctx, idList)
	if len(ghsas) == 0 {
		return errors.New("none of the identifiers resolved to a GHSA")
	}

	if !fixEnv.IsCi {
		mgr.impl.ReportAdvisory(fixEnv, ghsas)
		return nil
	}
	if fixEnv.RepoInfo == nil {
		return errors.New("unable to resolve the repository to open pull requests against")
	}
	if mgr.opener == nil {
		return errors.New("flow manager has no pull request opener")
	}

	for _, ghsa := range ghsas {
		if mgr.impl.AlreadyFixed(mgr.ledger, mgr.cwd, fixEnv, ghsa) {
			logrus.Infof("%s is already fixed and its pull request is open, skipping", ghsa)
			continue
		}

		prior := mgr.priorRecord(ghsa)

		branch := api.FixBranchName(ghsa)
		details, err := mgr.opener.OpenFixPr(
			ctx, fixEnv.RepoInfo.Owner, fixEnv.RepoInfo.Repo, branch, []string{ghsa},
			&lifecycle.Options{BaseBranch: fixEnv.BaseBranch},
		)
		if err != nil {
			lifecycle.LogPrEvent(lifecycle.PrFailed, 0, ghsa, err.Error())
			continue
		}

		lifecycle.LogPrEvent(lifecycle.PrCreated, details.Number, ghsa, details.URL)
		if prior != nil && prior.PrNumber != 0 && prior.PrNumber != details.Number {
			lifecycle.LogPrEvent(
				lifecycle.PrSuperseded, prior.PrNumber, ghsa,
				fmt.Sprintf("replaced by PR #%d", details.Number),
			)
		}
		mgr.ledger.MarkFixed(mgr.cwd, ghsa, details.Number, branch)

		// Reconcile any older fix PRs for the same GHSA.
		if mgr.janitor != nil && mgr.provider != nil {
			mgr.janitor.Cleanup(ctx, fixEnv.RepoInfo.Owner, fixEnv.RepoInfo.Repo, ghsa, mgr.provider)
		}
	}
	return nil
}

// priorRecord returns the ledger entry for a GHSA, or nil.
func (mgr *Manager) priorRecord(ghsaID string) *api.GhsaFixRecord {
	for _, rec := range mgr.ledger.FixedRecords(mgr.cwd) {
		if rec.GhsaID == ghsaID {
			return &rec
		}
	}
	return nil
}

// Cleanup reconciles the remote fix pull requests for the given
// identifiers: PRs behind their base get updated and branches of
// merged ones are deleted.
func (mgr *Manager) Cleanup(ctx context.Context, idList []string) error {
	if mgr.translator == nil || mgr.envs == nil {
		return errors.New("flow manager is missing a translator or environment resolver")
	}
	if mgr.janitor == nil || mgr.provider == nil {
		return errors.New("flow manager has no remote host client")
	}

	fixEnv := mgr.envs.FixEnv(ctx)
	if fixEnv.RepoInfo == nil {
		return errors.New("unable to resolve the repository to clean up")
	}

	ghsas := mgr.translator.ConvertIDsToGhsas(ctx, idList)
	if len(ghsas) == 0 {
		return errors.New("none of the identifiers resolved to a GHSA")
	}

	for _, ghsa := range ghsas {
		processed := mgr.janitor.Cleanup(ctx, fixEnv.RepoInfo.Owner, fixEnv.RepoInfo.Repo, ghsa, mgr.provider)
		logrus.Infof("%s: reconciled %d fix pull request(s)", ghsa, len(processed))
	}
	return nil
}

// Resolve translates identifiers to GHSA IDs without touching the
// remote host.
func (mgr *Manager) Resolve(ctx context.Context, idList []string) ([]string, error) {
	if mgr.translator == nil {
		return nil, errors.New("flow manager is missing a translator")
	}
	ghsas := mgr.translator.ConvertIDsToGhsas(ctx, idList)
	if len(ghsas) == 0 {
		return nil, fmt.Errorf("none of the %d identifier(s) resolved to a GHSA", len(idList))
	}
	return ghsas, nil
}

// FixedRecords returns the ledger entries for the current checkout,
// newest first.
func (mgr *Manager) FixedRecords() []api.GhsaFixRecord {
	return mgr.ledger.FixedRecords(mgr.cwd)
}
