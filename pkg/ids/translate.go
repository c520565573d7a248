// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package ids normalizes mixed vulnerability identifiers (GHSA, CVE,
// PURL) into canonical GHSA IDs.
package ids

import (
	"context"
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"
	"github.com/sirupsen/logrus"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

// Translator converts heterogeneous vulnerability IDs to GHSA IDs,
// delegating CVE and PURL lookups to a resolver.
type Translator struct {
	resolver api.VulnResolver
}

// New creates a translator backed by the given resolver.
func New(resolver api.VulnResolver) *Translator {
	return &Translator{resolver: resolver}
}

// ConvertIDsToGhsas resolves every entry it can and returns the
// deduplicated GHSA IDs in first-appearance order. Entries that fail to
// resolve are collected and reported as a single warning; a bad entry
// never halts processing of the rest.
func (t *Translator) ConvertIDsToGhsas(ctx context.Context, idList []string) []string {
	ghsas := []string{}
	seen := map[string]struct{}{}
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ghsas = append(ghsas, id)
	}

	failures := []string{}
	for _, id := range idList {
		switch {
		case strings.HasPrefix(id, "GHSA-"):
			if !api.IsGhsaID(id) {
				failures = append(failures, fmt.Sprintf("%s: malformed GHSA ID", id))
				continue
			}
			add(id)

		case strings.HasPrefix(id, "CVE-"):
			if !api.IsCveID(id) {
				failures = append(failures, fmt.Sprintf("%s: malformed CVE ID", id))
				continue
			}
			ghsa, err := t.resolver.CveToGhsa(ctx, id)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", id, err))
				continue
			}
			add(ghsa)

		case strings.HasPrefix(id, "pkg:"):
			if _, err := packageurl.FromString(id); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", id, err))
				continue
			}
			found, err := t.resolver.PurlToGhsas(ctx, id)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", id, err))
				continue
			}
			if len(found) == 0 {
				failures = append(failures, fmt.Sprintf("%s: no GHSAs found", id))
				continue
			}
			logrus.Infof("%s: %s", id, summarizeGhsas(found))
			for _, ghsa := range found {
				add(ghsa)
			}

		default:
			failures = append(failures, fmt.Sprintf("%s: unsupported ID format", id))
		}
	}

	if len(failures) > 0 {
		logrus.Warnf(
			"%d identifier(s) could not be resolved:\n  - %s",
			len(failures), strings.Join(failures, "\n  - "),
		)
	}

	return ghsas
}

// summarizeGhsas renders a short human-readable list: the first three
// IDs plus a count of the rest.
func summarizeGhsas(ghsas []string) string {
	if len(ghsas) <= 3 {
		return strings.Join(ghsas, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(ghsas[:3], ", "), len(ghsas)-3)
}
