// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// GATE TESTS
// =============================================================================

func TestIsAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		id   *Identity
		want bool
	}{
		{"nil", nil, false},
		{"empty uid", &Identity{Email: "a@b.c"}, false},
		{"blank uid", &Identity{UID: "   "}, false},
		{"uid only", &Identity{UID: "x"}, true},
		{"full", &Identity{UID: "x", Email: "a@b.c", DisplayName: "Ana"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAuthenticated(tc.id); got != tc.want {
				t.Errorf("IsAuthenticated = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	assert.Equal(t, ViewLogin, Gate(nil))
	assert.Equal(t, ViewChat, Gate(&Identity{UID: "x"}))
	assert.Equal(t, "chat", ViewChat.String())
}

func TestIdentity_Name(t *testing.T) {
	assert.Equal(t, "Ana", (&Identity{UID: "x", Email: "a@b.c", DisplayName: "Ana"}).Name())
	assert.Equal(t, "a@b.c", (&Identity{UID: "x", Email: "a@b.c"}).Name())
	assert.Equal(t, "x", (&Identity{UID: "x"}).Name())
	assert.Equal(t, "", (*Identity)(nil).Name())
}

// =============================================================================
// FILE PROVIDER TESTS
// =============================================================================

func TestFileProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewFileProvider(filepath.Join(t.TempDir(), "user.json"))

	id, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, id, "missing file means signed out")

	want := &Identity{UID: "uid-1", Email: "ana@example.com", DisplayName: "Ana"}
	require.NoError(t, p.Store(ctx, want))

	got, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(p.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, p.SignOut(ctx))
	got, err = p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, p.SignOut(ctx), "signing out twice is not an error")
}

func TestFileProvider_StoreRejectsAnonymous(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "user.json"))
	err := p.Store(context.Background(), &Identity{Email: "x@y.z"})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "store", authErr.Op)
}

func TestFileProvider_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := NewFileProvider(path).CurrentUser(context.Background())
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
}

// =============================================================================
// TOKEN PROVIDER TESTS
// =============================================================================

func newTokenProvider(t *testing.T, issuer string) *TokenProvider {
	t.Helper()
	return NewTokenProvider(NewFileProvider(filepath.Join(t.TempDir(), "user.json")), "s3cr3t", issuer)
}

func TestTokenProvider_SignIn(t *testing.T) {
	ctx := context.Background()
	p := newTokenProvider(t, "sumy")

	token, err := p.Issue(Identity{UID: "uid-7", Email: "eva@example.com", DisplayName: "Eva"}, time.Hour)
	require.NoError(t, err)

	id, err := p.SignIn(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "uid-7", id.UID)
	assert.Equal(t, "Eva", id.DisplayName)

	stored, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, stored)
}

func TestTokenProvider_Rejects(t *testing.T) {
	p := newTokenProvider(t, "sumy")

	expired, err := p.Issue(Identity{UID: "u"}, -time.Minute)
	require.NoError(t, err)

	other := NewTokenProvider(p.FileProvider, "another-secret", "sumy")
	forged, err := other.Issue(Identity{UID: "u"}, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewTokenProvider(p.FileProvider, "s3cr3t", "evil").Issue(Identity{UID: "u"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := p.Issue(Identity{}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidToken},
		{"wrong issuer", wrongIssuer, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"no subject", noSubject, ErrMissingSubject},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.SignIn(context.Background(), tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Contains(t, authErr.UserMessage(), "Error de autenticación")
		})
	}

	id, err := p.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, id, "failed sign-ins must not store an identity")
}

func TestTokenProvider_NoSecret(t *testing.T) {
	p := NewTokenProvider(NewFileProvider(filepath.Join(t.TempDir(), "u.json")), "", "")
	_, err := p.Verify("x.y.z")
	assert.ErrorIs(t, err, ErrNoSecret)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func waitIdentity(t *testing.T, ch <-chan *Identity) *Identity {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for identity change")
		return nil
	}
}

func TestWatcher_SignInAndOut(t *testing.T) {
	ctx := context.Background()
	p := NewFileProvider(filepath.Join(t.TempDir(), "sumy", "user.json"))

	w, err := NewWatcher(p, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, p.Store(ctx, &Identity{UID: "uid-9", DisplayName: "Leo"}))
	id := waitIdentity(t, w.Changes())
	require.NotNil(t, id)
	assert.Equal(t, "uid-9", id.UID)

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, waitIdentity(t, w.Changes()))
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(NewFileProvider(filepath.Join(t.TempDir(), "user.json")), nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
