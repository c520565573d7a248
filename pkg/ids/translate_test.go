// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package ids

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	cve  map[string]string
	purl map[string][]string
}

func (f *fakeResolver) CveToGhsa(_ context.Context, cveID string) (string, error) {
	ghsa, ok := f.cve[cveID]
	if !ok {
		return "", errors.New("no GHSA found")
	}
	return ghsa, nil
}

func (f *fakeResolver) PurlToGhsas(_ context.Context, purl string) ([]string, error) {
	return f.purl[purl], nil
}

func TestConvertIDsToGhsasPartialTolerance(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	translator := New(&fakeResolver{})
	got := translator.ConvertIDsToGhsas(context.Background(), []string{
		"GHSA-aaaa-bbbb-cccc",
		"not-a-valid-id",
		"CVE-2024-0001",
	})

	require.Equal(t, []string{"GHSA-aaaa-bbbb-cccc"}, got)

	// One aggregate warning listing both failed entries.
	warnings := []string{}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e.Message)
		}
	}
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "not-a-valid-id")
	require.Contains(t, warnings[0], "CVE-2024-0001")
}

func TestConvertIDsToGhsasCve(t *testing.T) {
	translator := New(&fakeResolver{
		cve: map[string]string{"CVE-2024-0001": "GHSA-dddd-eeee-ffff"},
	})
	got := translator.ConvertIDsToGhsas(context.Background(), []string{"CVE-2024-0001"})
	require.Equal(t, []string{"GHSA-dddd-eeee-ffff"}, got)
}

func TestConvertIDsToGhsasPurl(t *testing.T) {
	translator := New(&fakeResolver{
		purl: map[string][]string{
			"pkg:npm/lodash@4.17.20": {"GHSA-aaaa-bbbb-cccc", "GHSA-dddd-eeee-ffff"},
		},
	})
	got := translator.ConvertIDsToGhsas(context.Background(), []string{"pkg:npm/lodash@4.17.20"})
	require.Equal(t, []string{"GHSA-aaaa-bbbb-cccc", "GHSA-dddd-eeee-ffff"}, got)
}

func TestConvertIDsToGhsasPurlNoResults(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	translator := New(&fakeResolver{})
	got := translator.ConvertIDsToGhsas(context.Background(), []string{"pkg:npm/left-pad@1.3.0"})
	require.Empty(t, got)
	require.NotEmpty(t, hook.AllEntries())
	require.Contains(t, hook.LastEntry().Message, "no GHSAs found")
}

func TestConvertIDsToGhsasDeduplicates(t *testing.T) {
	translator := New(&fakeResolver{
		purl: map[string][]string{
			"pkg:npm/a@1.0.0": {"GHSA-aaaa-bbbb-cccc"},
			"pkg:npm/b@1.0.0": {"GHSA-aaaa-bbbb-cccc"},
		},
	})
	got := translator.ConvertIDsToGhsas(context.Background(), []string{
		"GHSA-aaaa-bbbb-cccc",
		"pkg:npm/a@1.0.0",
		"pkg:npm/b@1.0.0",
	})
	require.Equal(t, []string{"GHSA-aaaa-bbbb-cccc"}, got)
}

func TestSummarizeGhsas(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a, b", summarizeGhsas([]string{"a", "b"}))
	require.Equal(t, "a, b, c", summarizeGhsas([]string{"a", "b", "c"}))
	require.Equal(t, "a, b, c and 2 more", summarizeGhsas([]string{"a", "b", "c", "d", "e"}))
}
