// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an identity token. The user id is the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider signs users in with an HMAC-signed identity token and
// remembers them through a FileProvider.
type TokenProvider struct {
	*FileProvider

	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenProvider verifies tokens with secret and, when issuer is not
// empty, requires a matching "iss" claim.
func NewTokenProvider(store *FileProvider, secret, issuer string) *TokenProvider {
	return &TokenProvider{
		FileProvider: store,
		secret:       []byte(secret),
		issuer:       issuer,
		now:          time.Now,
	}
}

// Verify parses tokenString and returns the identity it asserts.
func (p *TokenProvider) Verify(tokenString string) (*Identity, error) {
	if len(p.secret) == 0 {
		return nil, &AuthError{Op: "sign-in", Cause: ErrNoSecret}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, &AuthError{Op: "sign-in", Cause: fmt.Errorf("%w: %v", ErrInvalidToken, err)}
	}
	if !token.Valid {
		return nil, &AuthError{Op: "sign-in", Cause: ErrInvalidToken}
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, &AuthError{Op: "sign-in", Cause: ErrMissingSubject}
	}

	return &Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// SignIn verifies tokenString and stores the identity.
func (p *TokenProvider) SignIn(ctx context.Context, tokenString string) (*Identity, error) {
	id, err := p.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if err := p.Store(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

// Issue signs a token for id valid for ttl. Used by the login command to
// mint development tokens and by tests.
func (p *TokenProvider) Issue(id Identity, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", &AuthError{Op: "issue", Cause: ErrNoSecret}
	}
	now := p.now()
	claims := Claims{
		Email: id.Email,
		Name:  id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
