// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned when a destructive action cannot
// prompt and --confirm was not given.
var ErrConfirmationRequired = errors.New("confirmation required: use --confirm")

// ConfirmationOptions describes how a destructive action may be confirmed.
type ConfirmationOptions struct {
	ConfirmFlag bool // --confirm was passed
	JSONMode    bool // --json forbids prompting
}

// RequireConfirmation asks before a destructive action.
//
//  1. --confirm proceeds without asking
//  2. JSON mode or a non-interactive stdin fails with ErrConfirmationRequired
//  3. otherwise the user answers a [s/N] prompt on env.In
func RequireConfirmation(env *Env, action string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}
	if opts.JSONMode || !env.Interactive || env.In == nil {
		return false, ErrConfirmationRequired
	}

	fmt.Fprintf(env.Out, "%s ¿Seguro que quieres %s? [s/N]: ", WarningStyle.Render("[!]"), action)

	input, err := bufio.NewReader(env.In).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "s", "si", "sí", "y", "yes":
		return true, nil
	}
	return false, nil
}
