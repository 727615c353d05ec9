// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth decides whether a user is signed in and supplies the identity.
//
// Sign-in itself is delegated to an identity provider. The gate only reads
// the presence of an identity with a user id.
package auth

import (
	"context"
	"errors"
	"strings"
)

// =============================================================================
// IDENTITY
// =============================================================================

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the best label for the user.
func (id *Identity) Name() string {
	if id == nil {
		return ""
	}
	if id.DisplayName != "" {
		return id.DisplayName
	}
	if id.Email != "" {
		return id.Email
	}
	return id.UID
}

// IsAuthenticated reports whether id is a signed-in user: non-nil with a
// non-blank user id.
func IsAuthenticated(id *Identity) bool {
	return id != nil && strings.TrimSpace(id.UID) != ""
}

// =============================================================================
// GATE
// =============================================================================

// View is the screen selected by the gate.
type View int

const (
	ViewLogin View = iota
	ViewChat
)

// String returns the view name.
func (v View) String() string {
	if v == ViewChat {
		return "chat"
	}
	return "login"
}

// Gate selects the chat view for an authenticated identity and the login
// view otherwise.
func Gate(id *Identity) View {
	if IsAuthenticated(id) {
		return ViewChat
	}
	return ViewLogin
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider supplies the current identity.
type Provider interface {
	// CurrentUser returns the signed-in identity, or nil when signed out.
	CurrentUser(ctx context.Context) (*Identity, error)

	// SignOut forgets the current identity.
	SignOut(ctx context.Context) error
}

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors wrapped by AuthError.
var (
	ErrInvalidToken   = errors.New("invalid identity token")
	ErrMissingSubject = errors.New("identity token has no subject")
	ErrNoSecret       = errors.New("no token secret configured")
)

// AuthError is an identity-provider failure. It is shown in the login view
// and never reaches the chat session.
type AuthError struct {
	Op    string // "sign-in", "load", "store", "sign-out"
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return "auth " + e.Op + " failed"
	}
	return "auth " + e.Op + ": " + e.Cause.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the Spanish text shown in the login view.
func (e *AuthError) UserMessage() string {
	switch {
	case errors.Is(e.Cause, ErrNoSecret):
		return "Error de autenticación: falta configurar auth.token_secret."
	case errors.Is(e.Cause, ErrInvalidToken), errors.Is(e.Cause, ErrMissingSubject):
		return "Error de autenticación: el token no es válido o ha caducado."
	}
	return "Error de autenticación: " + e.Error()
}
