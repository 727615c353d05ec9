// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer turns inline markdown into styled terminal text.
// *glamour.TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// NewMarkdownRenderer builds a glamour renderer wrapping at width.
func NewMarkdownRenderer(width int, dark bool) (*glamour.TermRenderer, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	if width < 20 {
		width = 20
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	theme    *styles.Theme
	renderer MarkdownRenderer
}

// NewMessageBubble creates a bubble. renderer may be nil, in which case
// assistant text is shown as is.
func NewMessageBubble(msg model.Message, theme *styles.Theme, renderer MarkdownRenderer) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
		renderer:      renderer,
	}
}

// View renders the bubble with its author line.
func (b *MessageBubble) View() string {
	header := b.theme.Author.Render(b.Message.Type.DisplayName())
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		header += " " + b.theme.Timestamp.Render(b.Message.Timestamp.Format("15:04"))
	}

	maxWidth := b.Width
	if maxWidth < 10 {
		maxWidth = 10
	}
	// margin, border and padding take eight columns
	bubble := b.theme.Bubble(b.Message.Type).Render(b.content(max(maxWidth-8, 10)))

	out := lipgloss.JoinVertical(lipgloss.Left, header, bubble)
	if b.Message.Type == model.TypeUser {
		return lipgloss.NewStyle().Width(b.Width).Align(lipgloss.Right).Render(out)
	}
	return out
}

// content returns the body text wrapped to width.
func (b *MessageBubble) content(width int) string {
	text := b.Message.Content
	if strings.TrimSpace(text) == "" {
		return "..."
	}
	if b.Message.Type == model.TypeAssistant && b.renderer != nil {
		if rendered, err := b.renderer.Render(text); err == nil {
			return strings.Trim(rendered, "\n")
		}
	}
	return lipgloss.NewStyle().Width(min(width, lipgloss.Width(text))).Render(text)
}

// RenderTranscript renders every message separated by a blank line.
func RenderTranscript(msgs []model.Message, theme *styles.Theme, renderer MarkdownRenderer, width int) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		b := NewMessageBubble(msg, theme, renderer)
		b.Width = width
		parts = append(parts, b.View())
	}
	return strings.Join(parts, "\n\n")
}
