// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"sigs.k8s.io/release-utils/util"
)

// DefaultPath is where the configuration file is looked up, relative
// to the working directory.
const DefaultPath = ".fixflow.yaml"

// Load reads and parses the fixflow configuration file
func Load(path string) (*Data, error) {
	if !util.Exists(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	ret := &Data{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("unmarshaling config file")
	}
	return ret, nil
}

type Data struct {
	// Repository is the org/name slug fix PRs are opened against when
	// it cannot be derived from the environment.
	Repository string `yaml:"repository"`

	// BaseBranch fix PRs target.
	BaseBranch string `yaml:"baseBranch"`

	// CacheDir overrides the PR snapshot cache location.
	CacheDir string `yaml:"cacheDir"`
}
