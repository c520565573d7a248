// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package cache is a small on-disk key-value store for JSON snapshots.
// Discovery uses it to persist raw pull request query pages so later
// invocations can reuse and mutate them without re-querying the remote.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store persists one JSON document per key under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it when missing. An empty
// dir places the store under the user cache directory.
func New(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user cache directory: %w", err)
		}
		dir = filepath.Join(base, "fixflow")
	}
	if err := os.MkdirAll(dir, os.FileMode(0o755)); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, keySanitizer.ReplaceAllString(key, "-")+".json")
}

// Read decodes the entry for key into v. It returns false when no entry
// exists and an error when an entry exists but cannot be decoded.
func (s *Store) Read(key string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing cache entry %q: %w", key, err)
	}
	return true, nil
}

// Write persists v as the entry for key, atomically replacing any prior
// value.
func (s *Store) Write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache entry %q: %w", key, err)
	}
	path := s.path(key)
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		//nolint:errcheck
		os.Remove(tmp)
		return fmt.Errorf("replacing cache entry %q: %w", key, err)
	}
	return nil
}
