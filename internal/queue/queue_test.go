// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoSerializesPerKey(t *testing.T) {
	t.Parallel()
	q := New()

	var wg sync.WaitGroup
	counter := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			//nolint:errcheck
			q.Do("ledger", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Equal(t, 0, q.Len())
}

func TestDoContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	q := New()
	boom := errors.New("boom")
	require.ErrorIs(t, q.Do("k", func() error { return boom }), boom)
	ran := false
	require.NoError(t, q.Do("k", func() error { ran = true; return nil }))
	require.True(t, ran)
}

func TestDoDistinctKeysDoNotBlock(t *testing.T) {
	t.Parallel()
	q := New()
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		//nolint:errcheck
		q.Do("a", func() error {
			<-release
			return nil
		})
	}()
	go func() {
		//nolint:errcheck
		q.Do("b", func() error {
			close(done)
			return nil
		})
	}()

	// The task on "b" must finish while "a" is still held.
	<-done
	close(release)
}
