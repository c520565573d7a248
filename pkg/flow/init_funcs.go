// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"

	api "github.com/carabiner-dev/fixflow/pkg/api/v1"
)

type initFunc func(*Manager) error

func WithTranslator(t IDTranslator) initFunc {
	return func(m *Manager) error {
		if t == nil {
			return fmt.Errorf("id translator not defined")
		}
		m.translator = t
		return nil
	}
}

func WithEnvResolver(e EnvResolver) initFunc {
	return func(m *Manager) error {
		if e == nil {
			return fmt.Errorf("environment resolver not defined")
		}
		m.envs = e
		return nil
	}
}

func WithOpener(o PrOpener) initFunc {
	return func(m *Manager) error {
		if o == nil {
			return fmt.Errorf("pull request opener not defined")
		}
		m.opener = o
		return nil
	}
}

func WithJanitor(j PrJanitor) initFunc {
	return func(m *Manager) error {
		if j == nil {
			return fmt.Errorf("pull request janitor not defined")
		}
		m.janitor = j
		return nil
	}
}

func WithProvider(p api.GitProvider) initFunc {
	return func(m *Manager) error {
		if p == nil {
			return fmt.Errorf("git provider not defined")
		}
		m.provider = p
		return nil
	}
}

func WithLedger(l FixLedger) initFunc {
	return func(m *Manager) error {
		if l == nil {
			return fmt.Errorf("fix ledger not defined")
		}
		m.ledger = l
		return nil
	}
}

func WithWorkDir(dir string) initFunc {
	return func(m *Manager) error {
		if dir == "" {
			return fmt.Errorf("work directory not defined")
		}
		m.cwd = dir
		return nil
	}
}
