// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m.handleEvent(msg)

	case SummariesMsg:
		if msg.Err != nil {
			m.log.Warn("load conversation history", zap.Error(msg.Err))
		}
		m.panel.SetItems(msg.Items, msg.Err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleEvent dispatches the outcome of a job back into the session.
func (m Model) handleEvent(msg EventMsg) (Model, tea.Cmd) {
	jobs := m.session.Dispatch(msg.Event)
	cmds := []tea.Cmd{runJobs(jobs), m.syncLoading()}
	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.History):
		return m.toggleHistory()
	}

	if m.showPanel {
		switch {
		case key.Matches(msg, m.keys.Close):
			return m.toggleHistory()
		case key.Matches(msg, m.keys.Up):
			m.panel.MoveUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.panel.MoveDown()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	if !m.acceptsInput() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input text. The input is cleared only when the session
// accepted the question.
func (m Model) submit() (Model, tea.Cmd) {
	if !m.acceptsInput() {
		return m, nil
	}

	before := m.session.State().Seq
	jobs := m.session.Submit(m.input.Value())
	if m.session.State().Seq == before {
		return m, nil
	}

	m.input.Reset()
	cmds := []tea.Cmd{runJobs(jobs), m.syncLoading()}
	m.refresh()
	return m, tea.Batch(cmds...)
}

// reset starts a new conversation, cancelling any request in flight.
func (m Model) reset() (Model, tea.Cmd) {
	jobs := m.session.Reset()
	m.input.Reset()
	cmds := []tea.Cmd{runJobs(jobs), m.syncLoading()}
	m.refresh()
	return m, tea.Batch(cmds...)
}

// toggleHistory shows or hides the saved conversations.
func (m Model) toggleHistory() (Model, tea.Cmd) {
	m.showPanel = !m.showPanel
	m.resize(m.width, m.height)
	if !m.showPanel {
		return m, nil
	}
	m.panel.SetLoading()
	return m, loadSummaries(m.session)
}
