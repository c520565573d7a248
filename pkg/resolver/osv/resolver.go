// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package osv resolves CVE and package URL identifiers to GHSA IDs
// using the OSV.dev API. OSV is free, unauthenticated, and fast enough
// to query per identifier.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/package-url/packageurl-go"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.osv.dev/v1"

// Resolver implements api.VulnResolver against OSV.dev.
type Resolver struct {
	http    *http.Client
	baseURL string
}

type fnOption = func(*Resolver)

// WithBaseURL points the resolver at a different API endpoint.
func WithBaseURL(u string) fnOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimSuffix(u, "/")
	}
}

// New returns a resolver with a 15-second request timeout.
func New(funcs ...fnOption) *Resolver {
	r := &Resolver{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, fn := range funcs {
		fn(r)
	}
	return r
}

type vulnRecord struct {
	ID      string   `json:"id"`
	Aliases []string `json:"aliases"`
}

type queryRequest struct {
	Package queryPackage `json:"package"`
}

type queryPackage struct {
	Purl string `json:"purl"`
}

type queryResponse struct {
	Vulns []vulnRecord `json:"vulns"`
}

// CveToGhsa looks a CVE up in OSV and returns its GHSA alias.
func (r *Resolver) CveToGhsa(ctx context.Context, cveID string) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, r.baseURL+"/vulns/"+cveID, nil,
	)
	if err != nil {
		return "", fmt.Errorf("building vulnerability request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying OSV: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("no advisory found for %s", cveID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OSV returned HTTP %d", resp.StatusCode)
	}

	record := vulnRecord{}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("parsing OSV response: %w", err)
	}

	if ghsa := record.ghsa(); ghsa != "" {
		return ghsa, nil
	}
	return "", fmt.Errorf("no GHSA alias recorded for %s", cveID)
}

// PurlToGhsas queries OSV for all advisories affecting a package and
// returns their GHSA IDs.
func (r *Resolver) PurlToGhsas(ctx context.Context, purl string) ([]string, error) {
	if _, err := packageurl.FromString(purl); err != nil {
		return nil, fmt.Errorf("invalid package URL: %w", err)
	}

	body, err := json.Marshal(queryRequest{Package: queryPackage{Purl: purl}})
	if err != nil {
		return nil, fmt.Errorf("marshaling OSV query: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, r.baseURL+"/query", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("building OSV query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying OSV: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("OSV returned HTTP %d: %s", resp.StatusCode, string(raw))
	}

	result := queryResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing OSV response: %w", err)
	}

	logrus.Debugf("OSV reported %d advisories for %s", len(result.Vulns), purl)

	ghsas := []string{}
	seen := map[string]struct{}{}
	for _, rec := range result.Vulns {
		ghsa := rec.ghsa()
		if ghsa == "" {
			continue
		}
		if _, ok := seen[ghsa]; ok {
			continue
		}
		seen[ghsa] = struct{}{}
		ghsas = append(ghsas, ghsa)
	}
	return ghsas, nil
}

// ghsa returns the GHSA identifier of a record, from its ID or aliases.
func (v *vulnRecord) ghsa() string {
	if strings.HasPrefix(v.ID, "GHSA-") {
		return v.ID
	}
	for _, alias := range v.Aliases {
		if strings.HasPrefix(alias, "GHSA-") {
			return alias
		}
	}
	return ""
}
