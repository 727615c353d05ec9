// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// DefaultThinkingMessage is shown while Sumy prepares an answer.
const DefaultThinkingMessage = "Sumy está pensando"

// Spinner is a loading indicator with an optional elapsed timer.
type Spinner struct {
	spinner spinner.Model

	style     SpinnerStyle
	message   string
	startTime time.Time

	isActive  bool
	showTimer bool

	// now is replaced in tests
	now func() time.Time
}

// SpinnerStyle defines the visual style for the spinner.
type SpinnerStyle int

const (
	SpinnerGlass SpinnerStyle = iota
	SpinnerDots
	SpinnerLine
)

// NewSpinner creates the default thinking spinner.
func NewSpinner() Spinner {
	s := Spinner{
		spinner:   spinner.New(),
		message:   DefaultThinkingMessage,
		showTimer: true,
		now:       time.Now,
	}
	s.SetStyle(SpinnerGlass)
	return s
}

// SetStyle changes the spinner animation.
func (s *Spinner) SetStyle(style SpinnerStyle) {
	s.style = style

	cfg := styles.GlassSpinner
	switch style {
	case SpinnerDots:
		cfg = styles.DotsSpinner
	case SpinnerLine:
		cfg = styles.LineSpinner
	}
	s.spinner.Spinner = spinner.Spinner{Frames: cfg.Frames, FPS: cfg.Duration()}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Start activates the spinner and returns its first tick.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = s.now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// Elapsed returns the time since Start.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return s.now().Sub(s.startTime)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update advances the animation. Ticks stop once the spinner is stopped.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner, or nothing when stopped.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}

	frame := lipgloss.NewStyle().Foreground(styles.Wine).Render(s.spinner.View())
	text := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(s.message + "...")
	result := frame + " " + text

	if s.showTimer && !s.startTime.IsZero() {
		result += lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" (" + formatElapsed(s.Elapsed()) + ")")
	}
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatElapsed formats a duration as "12s" or "1m 5s".
func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return strconv.Itoa(seconds) + "s"
	}
	return strconv.Itoa(seconds/60) + "m " + strconv.Itoa(seconds%60) + "s"
}
