// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

// repoFromGit derives the repository identity from the origin remote
// of the checkout at dir. Returns nil when there is no repository, no
// origin remote or the URL is not recognizable.
func repoFromGit(dir string) *api.RepoInfo {
	gitRepo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		logrus.Debugf("opening git repository at %q: %s", dir, err)
		return nil
	}

	remote, err := gitRepo.Remote("origin")
	if err != nil {
		logrus.Debugf("reading origin remote: %s", err)
		return nil
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil
	}

	owner, repo, ok := parseOwnerRepo(urls[0])
	if !ok {
		logrus.Debugf("unrecognized remote URL %q", urls[0])
		return nil
	}
	return &api.RepoInfo{Owner: owner, Repo: repo}
}

// parseOwnerRepo extracts owner and repo from the common git remote URL
// shapes:
//
//	git@github.com:owner/repo.git
//	https://github.com/owner/repo(.git)
//	ssh://git@github.com/owner/repo.git
func parseOwnerRepo(url string) (owner, repo string, ok bool) {
	path := url
	switch {
	case strings.HasPrefix(url, "git@"):
		_, path, ok = strings.Cut(url, ":")
		if !ok {
			return "", "", false
		}
	default:
		if i := strings.Index(url, "://"); i >= 0 {
			path = url[i+3:]
		}
		// Drop the host component.
		_, path, ok = strings.Cut(path, "/")
		if !ok {
			return "", "", false
		}
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// headBranch returns the short name of HEAD at dir, or "" when it
// cannot be resolved (no repository, detached head, empty history).
func headBranch(dir string) string {
	gitRepo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := gitRepo.Head()
	if err != nil {
		return ""
	}
	if !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
