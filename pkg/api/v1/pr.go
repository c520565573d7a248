// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"context"
	"fmt"
	"strings"
)

// PrState mirrors the remote host's pull request state.
type PrState string

const (
	PrOpen   PrState = "OPEN"
	PrClosed PrState = "CLOSED"
	PrMerged PrState = "MERGED"
)

// MergeState mirrors the remote host's merge-readiness classification.
// BEHIND is the only state the fix flow acts on.
type MergeState string

const (
	MergeBehind   MergeState = "BEHIND"
	MergeBlocked  MergeState = "BLOCKED"
	MergeClean    MergeState = "CLEAN"
	MergeDirty    MergeState = "DIRTY"
	MergeDraft    MergeState = "DRAFT"
	MergeHasHooks MergeState = "HAS_HOOKS"
	MergeUnknown  MergeState = "UNKNOWN"
	MergeUnstable MergeState = "UNSTABLE"
)

// UnknownAuthor is the sentinel used when the remote reports no author.
const UnknownAuthor = "unknown"

// NormalizeStates expands a state filter to the canonical uppercase list.
// An empty filter or "all" means every state.
func NormalizeStates(states ...string) []PrState {
	if len(states) == 0 {
		return []PrState{PrOpen, PrClosed, PrMerged}
	}
	ret := []PrState{}
	for _, s := range states {
		if strings.EqualFold(s, "all") {
			return []PrState{PrOpen, PrClosed, PrMerged}
		}
		ret = append(ret, PrState(strings.ToUpper(s)))
	}
	return ret
}

// PrMatch is a discovered pull request relevant to fix activity.
type PrMatch struct {
	Number      int
	Title       string
	Author      string
	HeadRefName string
	BaseRefName string
	State       PrState
	MergeState  MergeState
}

// PrAuthor is the author fragment of a pull request query node.
type PrAuthor struct {
	Login string `json:"login"`
}

// PrNode is one pull request as returned by the remote's GraphQL API.
// Nodes live inside cached pages and may be mutated in place when a
// lifecycle action changes their remote state.
type PrNode struct {
	Number           int       `json:"number"`
	Title            string    `json:"title"`
	Author           *PrAuthor `json:"author"`
	HeadRefName      string    `json:"headRefName"`
	BaseRefName      string    `json:"baseRefName"`
	State            string    `json:"state"`
	MergeStateStatus string    `json:"mergeStateStatus"`
}

// Login returns the author handle, or the unknown sentinel.
func (n *PrNode) Login() string {
	if n.Author == nil || n.Author.Login == "" {
		return UnknownAuthor
	}
	return n.Author.Login
}

// ToMatch converts the raw node to a PrMatch.
func (n *PrNode) ToMatch() PrMatch {
	return PrMatch{
		Number:      n.Number,
		Title:       n.Title,
		Author:      n.Login(),
		HeadRefName: n.HeadRefName,
		BaseRefName: n.BaseRefName,
		State:       PrState(n.State),
		MergeState:  MergeState(n.MergeStateStatus),
	}
}

// PageInfo is the GraphQL pagination cursor data.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// PrPage is one page of pull request query results. Pages are snapshotted
// to the page cache and re-persisted when a node is mutated.
type PrPage struct {
	PageInfo PageInfo  `json:"pageInfo"`
	Nodes    []*PrNode `json:"nodes"`
}

// PrContextMatch couples a match with the cache coordinates of its raw
// node so callers can mutate the node and re-persist the owning page.
type PrContextMatch struct {
	Match    PrMatch
	Node     *PrNode
	CacheKey string
	Page     *PrPage
	Index    int
}

// CreatePrRequest carries the arguments for opening a pull request.
type CreatePrRequest struct {
	Owner string
	Repo  string
	Title string
	Head  string
	Base  string
	Body  string
}

// PrDetails is the normalized shape of a pull request returned by the
// provider after creation or lookup.
type PrDetails struct {
	Number      int
	Title       string
	URL         string
	State       string
	HeadRefName string
	BaseRefName string
}

// GitProvider is the remote-host capability the fix flow depends on.
type GitProvider interface {
	CreatePr(ctx context.Context, req *CreatePrRequest) (*PrDetails, error)
	GetPr(ctx context.Context, owner, repo string, number int) (*PrDetails, error)
	UpdatePr(ctx context.Context, owner, repo string, number int) error
	DeleteBranch(ctx context.Context, owner, repo, branch string) (bool, error)
}

// PullRequestLister executes one page of the remote's pull request query.
type PullRequestLister interface {
	ListPullRequests(ctx context.Context, owner, repo string, states []PrState, after string) (*PrPage, error)
}

// VulnResolver converts foreign vulnerability identifiers to GHSA IDs.
type VulnResolver interface {
	CveToGhsa(ctx context.Context, cveID string) (string, error)
	PurlToGhsas(ctx context.Context, purl string) ([]string, error)
}

// ProviderError is a remote call failure carrying the HTTP status that
// caused it. A zero status means the request never got a response.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Retryable reports whether the failure is worth retrying. Validation
// failures (4xx) are terminal; server errors and transport failures
// are not.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}
