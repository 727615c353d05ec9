// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/ui/chat"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// IdentityChangedMsg reports a new identity, or nil after sign-out.
type IdentityChangedMsg struct {
	Identity *auth.Identity
}

// Options configures the root model.
type Options struct {
	Theme  *styles.Theme
	User   *auth.Identity
	SignIn SignInFunc

	// Changes, when set, delivers identity changes from outside the
	// process (see auth.Watcher).
	Changes <-chan *auth.Identity

	Logger *zap.Logger
}

// Model routes between the login and chat views.
type Model struct {
	chat    chat.Model
	login   LoginModel
	user    *auth.Identity
	changes <-chan *auth.Identity
	log     *zap.Logger
}

// New creates the root model around a chat view.
func New(c chat.Model, opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Model{
		chat:    c,
		login:   NewLogin(opts.Theme, opts.SignIn),
		changes: opts.Changes,
		log:     opts.Logger.Named("app"),
	}
	m.setUser(opts.User)
	return m
}

// ActiveView returns the view selected by the auth gate.
func (m *Model) ActiveView() auth.View {
	return auth.Gate(m.user)
}

// User returns the signed-in identity.
func (m *Model) User() *auth.Identity {
	return m.user
}

// Init starts listening for identity changes.
func (m *Model) Init() tea.Cmd {
	return m.waitForIdentity()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.login.SetSize(msg.Width, msg.Height)
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd

	case IdentityChangedMsg:
		cmd := m.setUser(msg.Identity)
		return m, tea.Batch(cmd, m.waitForIdentity())

	case signInResultMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		if msg.err != nil {
			m.log.Warn("sign-in failed", zap.Error(msg.err))
			return m, cmd
		}
		return m, tea.Batch(cmd, m.setUser(msg.id))

	case tea.KeyMsg:
		if m.ActiveView() == auth.ViewLogin {
			if msg.Type == tea.KeyCtrlC {
				m.chat.Close()
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.login, cmd = m.login.Update(msg)
			return m, cmd
		}
	}

	// Session results and spinner ticks belong to the chat even while the
	// login view is shown, so a request cancelled by sign-out still settles.
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

// View renders the active view.
func (m *Model) View() string {
	if m.ActiveView() == auth.ViewLogin {
		return m.login.View()
	}
	return m.chat.View()
}

func (m *Model) setUser(id *auth.Identity) tea.Cmd {
	if !auth.IsAuthenticated(id) {
		id = nil
	}
	m.user = id
	m.log.Info("auth gate", zap.Stringer("view", auth.Gate(id)))
	return m.chat.SetUser(id)
}

// waitForIdentity blocks on the next identity change.
func (m *Model) waitForIdentity() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return IdentityChangedMsg{Identity: id}
	}
}
