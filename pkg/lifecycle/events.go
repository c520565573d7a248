// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// PrEvent is a lifecycle transition of a fix pull request.
type PrEvent string

const (
	PrCreated    PrEvent = "created"
	PrUpdated    PrEvent = "updated"
	PrMerged     PrEvent = "merged"
	PrClosed     PrEvent = "closed"
	PrSuperseded PrEvent = "superseded"
	PrFailed     PrEvent = "failed"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type eventFormat struct {
	verb   string
	symbol string
	style  lipgloss.Style
	level  logrus.Level
}

var eventFormats = map[PrEvent]eventFormat{
	PrCreated:    {"Created", "✓", successStyle, logrus.InfoLevel},
	PrMerged:     {"Merged", "✓", successStyle, logrus.InfoLevel},
	PrUpdated:    {"Updated", "↻", infoStyle, logrus.InfoLevel},
	PrClosed:     {"Closed", "•", infoStyle, logrus.InfoLevel},
	PrSuperseded: {"Superseded", "⚠", warnStyle, logrus.WarnLevel},
	PrFailed:     {"Failed", "✗", errorStyle, logrus.ErrorLevel},
}

// LogPrEvent emits one severity-colored line for a lifecycle transition.
// It has no state and no side effects beyond the logging sink.
func LogPrEvent(event PrEvent, prNumber int, ghsaID, details string) {
	format, ok := eventFormats[event]
	if !ok {
		format = eventFormat{string(event), "•", infoStyle, logrus.InfoLevel}
	}

	msg := fmt.Sprintf(
		"%s %s PR #%d for %s",
		format.style.Render(format.symbol), format.verb, prNumber, ghsaID,
	)
	if details != "" {
		msg += ": " + details
	}

	logrus.StandardLogger().Log(format.level, msg)
}
