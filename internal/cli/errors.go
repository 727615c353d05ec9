// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/config"
	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitServerError   = 6
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// ErrNotSignedIn is returned by commands that need an identity.
var ErrNotSignedIn = errors.New("not signed in: run 'sumy login --token <token>'")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "rate", "config"
	Action  string // e.g. "send", "set"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string // optional
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrInvalidFormat reports an argument with the wrong shape.
func ErrInvalidFormat(field, value, expected string) error {
	return &ValidationError{Field: field, Value: value, Reason: "invalid format", Example: expected}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON object in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON writes err as a JSON object with its category.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":     err.Error(),
		"success":   false,
		"exit_code": GetExitCode(err),
	}

	var (
		cmdErr      *CommandError
		validErr    *ValidationError
		notFoundErr *NotFoundError
		clientErr   *sumiller.ClientError
		authErr     *auth.AuthError
	)
	switch {
	case errors.As(err, &validErr):
		output["error_type"] = "validation_error"
		output["field"] = validErr.Field
		if validErr.Example != "" {
			output["example"] = validErr.Example
		}
	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["resource"] = notFoundErr.Resource
		output["id"] = notFoundErr.ID
	case errors.As(err, &authErr):
		output["error_type"] = "auth_error"
		output["op"] = authErr.Op
	case errors.As(err, &clientErr):
		output["error_type"] = "client_error"
		output["category"] = clientErr.Type.String()
		if clientErr.StatusCode != 0 {
			output["status_code"] = clientErr.StatusCode
		}
	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validErr    *ValidationError
		notFoundErr *NotFoundError
		authErr     *auth.AuthError
		cfgErr      config.ValidateErrors
		cfgOne      config.ValidationError
	)
	switch {
	case errors.As(err, &validErr), errors.Is(err, ErrConfirmationRequired), sumiller.IsValidationError(err):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &cfgOne):
		return ExitConfigError
	case errors.Is(err, ErrNotSignedIn), errors.As(err, &authErr):
		return ExitAuthError
	case errors.As(err, &notFoundErr), errors.Is(err, history.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded), sumiller.IsCanceled(err):
		return ExitTimeoutError
	case sumiller.IsNetworkError(err):
		return ExitNetworkError
	case sumiller.IsServerError(err):
		return ExitServerError
	}
	return ExitGeneralError
}
