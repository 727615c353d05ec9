// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	body := m.viewport.View()
	if m.showPanel {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.panel.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.loadingLine(),
		m.inputView(),
		m.statusBar(),
	)
}

// loadingLine shows the spinner, or the last error while idle.
func (m Model) loadingLine() string {
	if m.spinner.IsActive() {
		return m.spinner.View()
	}
	if st := m.session.State(); st.LastError != "" {
		return m.theme.ErrorStyle.Render(styles.StatusIndicators.Error + " " + firstLine(st.LastError))
	}
	return ""
}

func (m Model) inputView() string {
	if !m.acceptsInput() {
		return m.theme.InputContainer.Render(m.theme.InputDisabled.Render("  " + WaitingText))
	}
	return m.theme.InputContainer.Render(m.input.View())
}

func (m Model) statusBar() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
