// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/carabiner-dev/fixflow/internal/config"
	"github.com/carabiner-dev/fixflow/pkg/cache"
	"github.com/carabiner-dev/fixflow/pkg/discovery"
	"github.com/carabiner-dev/fixflow/pkg/env"
	"github.com/carabiner-dev/fixflow/pkg/flow"
	"github.com/carabiner-dev/fixflow/pkg/ids"
	"github.com/carabiner-dev/fixflow/pkg/lifecycle"
	"github.com/carabiner-dev/fixflow/pkg/provider/github"
	"github.com/carabiner-dev/fixflow/pkg/resolver/osv"
)

type repoOptions struct {
	RepoSlug   string
	BaseBranch string
	CacheDir   string
}

func (ro *repoOptions) Validate() error {
	errs := []error{}
	if ro.RepoSlug != "" {
		if _, _, err := github.ParseSlug(ro.RepoSlug); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ro *repoOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&ro.RepoSlug, "repo", "r", "", "code repository (slug org/name, detected when empty)",
	)
	cmd.PersistentFlags().StringVarP(
		&ro.BaseBranch, "base-branch", "b", "", "base branch fix PRs target (detected when empty)",
	)
	cmd.PersistentFlags().StringVar(
		&ro.CacheDir, "cache-dir", "", "directory for the PR snapshot cache",
	)
}

// applyConfig fills unset options from the configuration file, when
// one exists.
func (ro *repoOptions) applyConfig() error {
	conf, err := config.Load(config.DefaultPath)
	if err != nil {
		return err
	}
	if conf == nil {
		return nil
	}
	if ro.RepoSlug == "" {
		ro.RepoSlug = conf.Repository
	}
	if ro.BaseBranch == "" {
		ro.BaseBranch = conf.BaseBranch
	}
	if ro.CacheDir == "" {
		ro.CacheDir = conf.CacheDir
	}
	return nil
}

// buildManager assembles the flow manager from the options. The GitHub
// client is optional: without a token the manager still translates IDs
// and reads the ledger, it just cannot touch the remote host.
func (ro *repoOptions) buildManager() (*flow.Manager, error) {
	if err := ro.applyConfig(); err != nil {
		return nil, err
	}

	store, err := cache.New(ro.CacheDir)
	if err != nil {
		return nil, err
	}

	translator := ids.New(osv.New())

	ghProvider, err := github.New()
	if err != nil {
		logrus.Debugf("no github client available: %s", err)

		envs, err := env.New(
			nil, env.WithRepoSlug(ro.RepoSlug), env.WithBaseBranch(ro.BaseBranch),
		)
		if err != nil {
			return nil, err
		}
		return flow.New(
			flow.WithTranslator(translator),
			flow.WithEnvResolver(envs),
		)
	}

	disc := discovery.New(ghProvider, store)
	envs, err := env.New(
		disc, env.WithRepoSlug(ro.RepoSlug), env.WithBaseBranch(ro.BaseBranch),
	)
	if err != nil {
		return nil, err
	}

	return flow.New(
		flow.WithTranslator(translator),
		flow.WithEnvResolver(envs),
		flow.WithProvider(ghProvider),
		flow.WithOpener(lifecycle.New(ghProvider)),
		flow.WithJanitor(disc),
	)
}
