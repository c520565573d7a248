// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package v1

// FixEnv is the process-lifetime snapshot of the environment the fix
// flow runs in. It is computed once per invocation and never mutated
// after construction.
type FixEnv struct {
	// BaseBranch is the branch fix PRs target.
	BaseBranch string

	// Committer identity used for fix branches.
	GitUser  string
	GitEmail string

	// GithubToken is the remote-host credential, if any.
	GithubToken string

	// IsCi is true only when the full set of CI credentials needed to
	// create pull requests is present.
	IsCi bool

	// RepoInfo is the resolved repository identity, nil when neither CI
	// metadata nor the local git remote yielded one.
	RepoInfo *RepoInfo

	// Prs is the eagerly fetched pull request snapshot. Empty unless
	// the environment is CI-capable and the repository was resolved.
	Prs []PrMatch
}
