// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// =============================================================================
// HISTORY PANEL
// =============================================================================

const (
	// HistoryPanelTitle heads the panel.
	HistoryPanelTitle = "Conversaciones"

	// HistoryEmptyText is shown when the user has no saved conversations.
	HistoryEmptyText = "Aún no hay conversaciones"

	historyLoadingText = "Cargando..."
)

// HistoryPanel lists saved conversation summaries, newest first.
type HistoryPanel struct {
	items    []history.ConversationSummary
	selected int
	loading  bool
	err      error

	Width  int
	Height int

	theme *styles.Theme
	now   func() time.Time
}

// NewHistoryPanel creates an empty panel.
func NewHistoryPanel(theme *styles.Theme) *HistoryPanel {
	return &HistoryPanel{
		Width:  36,
		Height: 20,
		theme:  theme,
		now:    time.Now,
	}
}

// SetLoading marks the panel as waiting for summaries.
func (p *HistoryPanel) SetLoading() {
	p.loading = true
	p.err = nil
}

// SetItems replaces the listed summaries.
func (p *HistoryPanel) SetItems(items []history.ConversationSummary, err error) {
	p.loading = false
	p.err = err
	p.items = items
	if p.selected >= len(items) {
		p.selected = max(len(items)-1, 0)
	}
}

// Items returns the listed summaries.
func (p *HistoryPanel) Items() []history.ConversationSummary {
	return p.items
}

// Selected returns the highlighted summary.
func (p *HistoryPanel) Selected() (history.ConversationSummary, bool) {
	if p.selected < 0 || p.selected >= len(p.items) {
		return history.ConversationSummary{}, false
	}
	return p.items[p.selected], true
}

// MoveUp highlights the previous entry.
func (p *HistoryPanel) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown highlights the next entry.
func (p *HistoryPanel) MoveDown() {
	if p.selected < len(p.items)-1 {
		p.selected++
	}
}

// View renders the panel.
func (p *HistoryPanel) View() string {
	inner := max(p.Width-4, 10)

	var b strings.Builder
	b.WriteString(p.theme.PanelTitle.Render(HistoryPanelTitle))
	b.WriteString("\n\n")

	switch {
	case p.loading:
		b.WriteString(p.theme.PanelEmpty.Render(historyLoadingText))
	case p.err != nil:
		b.WriteString(p.theme.ErrorStyle.Render(util.TruncateWidth("Error: "+p.err.Error(), inner)))
	case len(p.items) == 0:
		b.WriteString(p.theme.PanelEmpty.Render(HistoryEmptyText))
	default:
		// Each entry takes three lines.
		visible := max((p.Height-4)/3, 1)
		start := 0
		if p.selected >= visible {
			start = p.selected - visible + 1
		}
		end := min(start+visible, len(p.items))
		for i := start; i < end; i++ {
			b.WriteString(p.renderItem(p.items[i], i == p.selected, inner))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}

	return p.theme.Panel.Width(p.Width - 2).Render(b.String())
}

func (p *HistoryPanel) renderItem(item history.ConversationSummary, selected bool, width int) string {
	title := util.PadRight(util.TruncateWidth(item.Title, width), width)
	if selected {
		title = p.theme.PanelItemSelected.Render(title)
	} else {
		title = p.theme.PanelItem.Render(title)
	}

	last := item.LastMessage
	if last == "" {
		last = "-"
	}
	meta := util.TruncateWidth(last, width) + "\n" + RelativeTime(item.UpdatedAt, p.now())
	return title + "\n" + p.theme.PanelMeta.Render(meta)
}

// RelativeTime formats t relative to now in Spanish.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "ahora mismo"
	case d < time.Hour:
		return "hace " + plural(int(d.Minutes()), "minuto")
	case d < 24*time.Hour:
		return "hace " + plural(int(d.Hours()), "hora")
	case d < 7*24*time.Hour:
		return "hace " + plural(int(d.Hours()/24), "día")
	default:
		return t.Format("02/01/2006")
	}
}

func plural(n int, unit string) string {
	s := formatInt(n) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
