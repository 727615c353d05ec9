// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN VIEW
// =============================================================================

const (
	LoginTitle    = "Sumy"
	LoginSubtitle = "Tu sumiller virtual"
	LoginButton   = "Continuar con Google"
	SigningIn     = "Iniciando sesión..."

	tokenPlaceholder = "pega aquí tu token de Google"
	signInTimeout    = 10 * time.Second
)

// SignInFunc verifies a token and stores the identity.
type SignInFunc func(ctx context.Context, token string) (*auth.Identity, error)

// signInResultMsg is the outcome of a sign-in attempt.
type signInResultMsg struct {
	id  *auth.Identity
	err error
}

// LoginModel is the login view.
type LoginModel struct {
	theme  *styles.Theme
	input  textinput.Model
	signIn SignInFunc

	signingIn bool
	errText   string

	width  int
	height int
}

// NewLogin creates the login view. signIn may be nil when no provider is
// configured; pressing the button then reports an error.
func NewLogin(theme *styles.Theme, signIn SignInFunc) LoginModel {
	ti := textinput.New()
	ti.Placeholder = tokenPlaceholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 8192
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	return LoginModel{
		theme:  theme,
		input:  ti,
		signIn: signIn,
		width:  80,
		height: 24,
	}
}

// SetSize records the terminal size.
func (l *LoginModel) SetSize(width, height int) {
	l.width, l.height = width, height
}

// Update handles keys and sign-in results.
func (l LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		l.signingIn = false
		if msg.err != nil {
			l.errText = describeAuthError(msg.err)
			return l, nil
		}
		l.errText = ""
		l.input.Reset()
		return l, nil

	case tea.KeyMsg:
		if l.signingIn {
			return l, nil
		}
		if msg.Type == tea.KeyEnter {
			return l.submit()
		}
		var cmd tea.Cmd
		l.input, cmd = l.input.Update(msg)
		return l, cmd
	}
	return l, nil
}

func (l LoginModel) submit() (LoginModel, tea.Cmd) {
	token := strings.TrimSpace(l.input.Value())
	if token == "" {
		l.errText = "Pega el token de tu cuenta de Google para continuar."
		return l, nil
	}
	if l.signIn == nil {
		l.errText = describeAuthError(&auth.AuthError{Op: "sign-in", Cause: auth.ErrNoSecret})
		return l, nil
	}

	l.signingIn = true
	l.errText = ""
	signIn := l.signIn
	return l, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), signInTimeout)
		defer cancel()
		id, err := signIn(ctx, token)
		return signInResultMsg{id: id, err: err}
	}
}

// View renders the login box centered on screen.
func (l LoginModel) View() string {
	lines := []string{
		l.theme.LoginTitle.Render("🍷 " + LoginTitle),
		l.theme.LoginSubtitle.Render(LoginSubtitle),
		"",
	}

	if l.signingIn {
		lines = append(lines, l.theme.LoginSubtitle.Render(SigningIn))
	} else {
		lines = append(lines,
			l.theme.LoginButton.Render(LoginButton),
			"",
			l.input.View(),
		)
	}
	if l.errText != "" {
		lines = append(lines, "", l.theme.LoginError.Render(l.errText))
	}

	box := l.theme.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, box)
}

// describeAuthError returns the text shown for a failed sign-in.
func describeAuthError(err error) string {
	var ae *auth.AuthError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return "Error de autenticación: " + err.Error()
}
