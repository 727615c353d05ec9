// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/maitre-ia/sumy-tui/internal/util"
)

// DefaultIdentityPath returns ~/.sumy/user.json, the cached "sumy-user"
// record.
func DefaultIdentityPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sumy", "user.json")
	}
	return filepath.Join(home, ".sumy", "user.json")
}

// FileProvider keeps the signed-in identity in a JSON file.
type FileProvider struct {
	path string
}

// NewFileProvider returns a provider backed by path (default
// DefaultIdentityPath).
func NewFileProvider(path string) *FileProvider {
	if path == "" {
		path = DefaultIdentityPath()
	}
	return &FileProvider{path: path}
}

// Path returns the identity file location.
func (p *FileProvider) Path() string {
	return p.path
}

// CurrentUser implements Provider. A missing file means signed out.
func (p *FileProvider) CurrentUser(_ context.Context) (*Identity, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &AuthError{Op: "load", Cause: err}
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, &AuthError{Op: "load", Cause: err}
	}
	if !IsAuthenticated(&id) {
		return nil, nil
	}
	return &id, nil
}

// Store saves id as the signed-in identity.
func (p *FileProvider) Store(_ context.Context, id *Identity) error {
	if !IsAuthenticated(id) {
		return &AuthError{Op: "store", Cause: ErrMissingSubject}
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return &AuthError{Op: "store", Cause: err}
	}
	if err := util.AtomicWriteFile(p.path, data, 0600); err != nil {
		return &AuthError{Op: "store", Cause: err}
	}
	return nil
}

// SignOut implements Provider.
func (p *FileProvider) SignOut(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &AuthError{Op: "sign-out", Cause: err}
	}
	return nil
}
