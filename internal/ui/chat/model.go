// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/session"
	"github.com/maitre-ia/sumy-tui/internal/ui/components"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

const (
	// Placeholder is the hint shown in the empty input.
	Placeholder = "Escribe tu pregunta sobre vinos..."

	// WaitingText replaces the input while a query is in flight.
	WaitingText = "Esperando la respuesta de Sumy..."

	// EmptyTranscript is shown before the first question.
	EmptyTranscript = "¡Hola! Soy Sumy. Pregúntame por vinos, maridajes o regiones."

	inputCharLimit = 2000

	// header, input, spinner and status lines
	chromeHeight = 6
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat view. It renders a session and forwards input to it.
type Model struct {
	session *session.Session
	theme   *styles.Theme
	keys    KeyMap
	log     *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  components.Spinner
	header   *components.Header
	panel    *components.HistoryPanel

	renderer  components.MarkdownRenderer
	markdown  bool
	showPanel bool

	width  int
	height int
}

// Options configures the chat view.
type Options struct {
	Theme    *styles.Theme
	Markdown bool
	Logger   *zap.Logger
}

// New creates the chat view over s.
func New(s *session.Session, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.CharLimit = inputCharLimit
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.PlaceholderStyle = opts.Theme.InputPlaceholder
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	m := Model{
		session:  s,
		theme:    opts.Theme,
		keys:     DefaultKeyMap(),
		log:      opts.Logger.Named("chat"),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  components.NewSpinner(),
		header:   components.NewHeader(opts.Theme),
		panel:    components.NewHistoryPanel(opts.Theme),
		markdown: opts.Markdown,
	}
	m.resize(80, 24)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Session returns the session the view renders.
func (m Model) Session() *session.Session {
	return m.session
}

// SetUser changes the identity queries are sent for.
func (m *Model) SetUser(id *auth.Identity) tea.Cmd {
	cmd := runJobs(m.session.SetUser(id))
	m.header.User = ""
	if id != nil {
		m.header.User = id.Name()
	}
	loading := m.syncLoading()
	m.refresh()
	return tea.Batch(cmd, loading)
}

// Close cancels any request in flight.
func (m Model) Close() {
	m.session.Close()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	m.header.Width = width
	m.input.Width = max(width-6, 10)

	vpWidth := width
	if m.showPanel {
		m.panel.Width = min(max(width/3, 30), width)
		m.panel.Height = max(height-chromeHeight, 5)
		vpWidth = max(width-m.panel.Width-1, 20)
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = max(height-chromeHeight, 3)

	m.rebuildRenderer()
	m.refresh()
}

// rebuildRenderer recreates the markdown renderer for the transcript width.
func (m *Model) rebuildRenderer() {
	if !m.markdown {
		m.renderer = nil
		return
	}
	r, err := components.NewMarkdownRenderer(m.theme.BubbleWidth()-8, m.theme.IsDark)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		m.renderer = nil
		return
	}
	m.renderer = r
}

// refresh re-renders the transcript and keeps it scrolled to the bottom.
func (m *Model) refresh() {
	msgs := m.session.Messages()
	m.header.Count = len(msgs)
	if len(msgs) == 0 {
		m.viewport.SetContent(m.theme.PanelEmpty.Render(EmptyTranscript))
		return
	}
	m.viewport.SetContent(components.RenderTranscript(msgs, m.theme, m.renderer, m.viewport.Width))
	m.viewport.GotoBottom()
}

// acceptsInput reports whether the input may be edited and submitted.
// Under the cancel policy a new question replaces the one in flight.
func (m Model) acceptsInput() bool {
	st := m.session.State()
	return st.InputEnabled() || m.session.Policy() == session.SubmitCancel
}

// syncLoading starts or stops the spinner and input to match the session.
func (m *Model) syncLoading() tea.Cmd {
	var cmd tea.Cmd
	if m.session.State().IsLoading() {
		if !m.spinner.IsActive() {
			cmd = m.spinner.Start()
		}
	} else {
		m.spinner.Stop()
	}

	if m.acceptsInput() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return cmd
}
