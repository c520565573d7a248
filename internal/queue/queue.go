// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

// Package queue provides a per-key serialized task queue. Tasks that
// share a key run one at a time in submission order; tasks on distinct
// keys do not block each other. Entries are evicted once drained.
package queue

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Serial runs functions serialized per key.
type Serial struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty serial queue.
func New() *Serial {
	return &Serial{entries: map[string]*entry{}}
}

// Do runs fn after every previously submitted function for the same key
// has finished, regardless of whether those functions failed.
func (s *Serial) Do(key string, fn func() error) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	err := fn()
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	return err
}

// Len returns the number of keys with queued or running tasks.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
