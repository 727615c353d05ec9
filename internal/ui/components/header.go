// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// Header is the title bar of the chat view.
type Header struct {
	Title    string
	Subtitle string
	User     string
	Count    int
	Width    int

	theme *styles.Theme
}

// NewHeader creates the header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:    "🍷 Sumy",
		Subtitle: "tu sumiller virtual",
		Width:    80,
		theme:    theme,
	}
}

// View renders the header across Width columns.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title) + " " + h.theme.HeaderSubtitle.Render(h.Subtitle)

	right := ""
	if h.User != "" {
		right = h.theme.ShortcutDesc.Render(util.TruncateWidth(h.User, 30))
	}
	if h.Count > 0 {
		right += h.theme.ShortcutDesc.Render("  " + formatInt(h.Count) + " msgs")
	}

	gap := h.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right
	return h.theme.Header.Width(h.Width).Render(line)
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}
