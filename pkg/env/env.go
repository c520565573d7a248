// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package env resolves the environment the fix flow runs in: CI
// credentials, repository identity and an eager snapshot of the
// relevant pull requests.
package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
	"github.com/carabiner-dev/fixflow/pkg/discovery"
)

// ciVars are the variables that must all be set for the flow to run in
// CI mode (i.e. to be able to create pull requests).
var ciVars = []string{"CI", "GITHUB_TOKEN", "GIT_COMMITTER_NAME", "GIT_COMMITTER_EMAIL"}

// Snapshotter fetches the pull request snapshot. Satisfied by
// *discovery.Client.
type Snapshotter interface {
	FixPrs(ctx context.Context, owner, repo string, opts *discovery.SearchOptions) []api.PrMatch
}

type fnOption = func(*Resolver) error

// WithGetenv swaps the environment lookup, for tests.
func WithGetenv(getenv func(string) string) fnOption {
	return func(r *Resolver) error {
		r.getenv = getenv
		return nil
	}
}

// WithWorkDir sets the directory whose git checkout resolves the
// repository identity. Defaults to the process working directory.
func WithWorkDir(dir string) fnOption {
	return func(r *Resolver) error {
		r.cwd = dir
		return nil
	}
}

// WithRepoSlug forces the repository identity, taking precedence over
// CI metadata and the local checkout.
func WithRepoSlug(slug string) fnOption {
	return func(r *Resolver) error {
		if slug == "" {
			return nil
		}
		owner, repo, ok := strings.Cut(slug, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("invalid repo slug %q", slug)
		}
		r.repoInfo = &api.RepoInfo{Owner: owner, Repo: repo}
		return nil
	}
}

// WithBaseBranch forces the base branch, taking precedence over CI
// metadata and the local HEAD.
func WithBaseBranch(branch string) fnOption {
	return func(r *Resolver) error {
		r.baseBranch = branch
		return nil
	}
}

// Resolver computes the FixEnv snapshot.
type Resolver struct {
	getenv     func(string) string
	cwd        string
	prs        Snapshotter
	repoInfo   *api.RepoInfo
	baseBranch string
}

// New creates a resolver. The snapshotter may be nil, in which case no
// eager PR snapshot is fetched.
func New(prs Snapshotter, funcs ...fnOption) (*Resolver, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	r := &Resolver{
		getenv: os.Getenv,
		cwd:    cwd,
		prs:    prs,
	}
	for _, fn := range funcs {
		if err := fn(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FixEnv resolves the environment. It never fails: missing data
// degrades the snapshot (and is logged) rather than aborting, since the
// flow downgrades to advisory output outside of CI.
func (r *Resolver) FixEnv(ctx context.Context) *api.FixEnv {
	env := &api.FixEnv{}

	missing := []string{}
	for _, name := range ciVars {
		if r.getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	env.IsCi = len(missing) == 0
	if !env.IsCi {
		logrus.Warnf(
			"not running in CI mode, cannot create pull requests (missing: %s)",
			strings.Join(missing, ", "),
		)
	}

	env.GithubToken = r.getenv("GITHUB_TOKEN")
	env.GitUser = r.getenv("GIT_COMMITTER_NAME")
	env.GitEmail = r.getenv("GIT_COMMITTER_EMAIL")

	// The CI slug variable is only trusted alongside the full CI
	// credential set; outside CI the local checkout is authoritative.
	env.RepoInfo = r.repoInfo
	if slug := r.getenv("GITHUB_REPOSITORY"); env.RepoInfo == nil && env.IsCi && slug != "" {
		if owner, repo, ok := strings.Cut(slug, "/"); ok && owner != "" && repo != "" {
			env.RepoInfo = &api.RepoInfo{Owner: owner, Repo: repo}
		} else {
			logrus.Warnf("malformed GITHUB_REPOSITORY value %q", slug)
		}
	}
	if env.RepoInfo == nil {
		env.RepoInfo = repoFromGit(r.cwd)
	}
	if env.RepoInfo == nil {
		logrus.Warn("could not resolve the repository identity from CI metadata or the local checkout")
	}

	env.BaseBranch = r.baseBranch
	if env.BaseBranch == "" {
		env.BaseBranch = r.getenv("GITHUB_BASE_REF")
	}
	if env.BaseBranch == "" {
		env.BaseBranch = headBranch(r.cwd)
	}
	if env.BaseBranch == "" {
		env.BaseBranch = "main"
	}

	// Take the PR snapshot up front so later per-GHSA decisions read
	// from the cache instead of issuing new queries.
	if env.IsCi && env.RepoInfo != nil && r.prs != nil {
		env.Prs = r.prs.FixPrs(ctx, env.RepoInfo.Owner, env.RepoInfo.Repo, &discovery.SearchOptions{
			Author: env.GitUser,
		})
	}

	return env
}
