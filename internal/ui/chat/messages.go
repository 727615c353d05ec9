// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// EventMsg carries the event a finished session job produced.
type EventMsg struct {
	Event session.Event
}

// SummariesMsg delivers the saved conversations of the signed-in user.
type SummariesMsg struct {
	Items []history.ConversationSummary
	Err   error
}

// summariesTimeout bounds one history load.
const summariesTimeout = 5 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// runJobs turns session jobs into commands. Jobs with no follow-up event
// produce a nil message, which Bubble Tea drops.
func runJobs(jobs []session.Job) tea.Cmd {
	if len(jobs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, job := range jobs {
		job := job
		cmds = append(cmds, func() tea.Msg {
			ev := job()
			if ev == nil {
				return nil
			}
			return EventMsg{Event: ev}
		})
	}
	return tea.Batch(cmds...)
}

// loadSummaries fetches the history list off the UI loop.
func loadSummaries(s *session.Session) tea.Cmd {
	load := s.SummaryLoader()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), summariesTimeout)
		defer cancel()
		items, err := load(ctx)
		return SummariesMsg{Items: items, Err: err}
	}
}
