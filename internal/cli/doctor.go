// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/history"
)

// doctorTimeout bounds every network check.
const doctorTimeout = 5 * time.Second

// =============================================================================
// CHECK TYPES
// =============================================================================

// CheckStatus is the outcome of one diagnostic.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns "pass", "warn" or "fail".
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	}
	return "unknown"
}

// Symbol returns the styled marker for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	}
	return "?"
}

// HealthCheck is one diagnostic result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	Result  string      `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render formats the check for the terminal.
func (c *HealthCheck) Render() string {
	out := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		out += "\n" + DimStyle.Render("     -> "+c.Fix)
	}
	return out
}

// DoctorData is the payload of "doctor".
type DoctorData struct {
	Checks  []*HealthCheck `json:"checks"`
	Passed  int            `json:"passed"`
	Warned  int            `json:"warned"`
	Failed  int            `json:"failed"`
	Healthy bool           `json:"healthy"`
}

// =============================================================================
// DOCTOR
// =============================================================================

// HandleDoctor runs every diagnostic. Any failed check makes the command
// fail.
func HandleDoctor(ctx context.Context, env *Env, args Args) error {
	checks := runAllChecks(ctx, env)

	data := DoctorData{Checks: checks}
	for _, c := range checks {
		c.Result = c.Status.String()
		switch c.Status {
		case CheckPass:
			data.Passed++
		case CheckWarn:
			data.Warned++
		case CheckFail:
			data.Failed++
		}
	}
	data.Healthy = data.Failed == 0

	if args.JSON {
		if err := NewJSONResponse("doctor", data).Print(env.Out); err != nil {
			return err
		}
	} else {
		printDoctor(env.Out, data)
	}

	if data.Failed > 0 {
		return NewCommandError("doctor", "check", fmt.Sprintf("%d check(s) failed", data.Failed), nil)
	}
	return nil
}

func printDoctor(w io.Writer, data DoctorData) {
	fmt.Fprintln(w, TitleStyle.Render("sumy doctor"))
	for _, c := range data.Checks {
		fmt.Fprintln(w, c.Render())
	}
	fmt.Fprintln(w, RenderSeparator(41))

	parts := []string{fmt.Sprintf("%d passed", data.Passed)}
	if data.Warned > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d warning", data.Warned)))
	}
	if data.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", data.Failed)))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

// runAllChecks runs the diagnostics in display order.
func runAllChecks(ctx context.Context, env *Env) []*HealthCheck {
	return []*HealthCheck{
		checkConfigValid(env),
		checkTokenSecret(env),
		checkSignedIn(ctx, env),
		checkService(ctx, env),
		checkHistory(ctx, env),
		checkLogDir(env),
	}
}

// =============================================================================
// CHECKS
// =============================================================================

func checkConfigValid(env *Env) *HealthCheck {
	check := &HealthCheck{Name: "config"}
	if err := env.Config.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = "Config invalid: " + err.Error()
		check.Fix = "sumy config show"
		return check
	}
	check.Message = "Config valid"
	if env.ConfigPath != "" {
		if _, err := os.Stat(env.ConfigPath); os.IsNotExist(err) {
			check.Message = "Config valid (using defaults)"
		}
	}
	return check
}

func checkTokenSecret(env *Env) *HealthCheck {
	check := &HealthCheck{Name: "token secret"}
	if strings.TrimSpace(env.Config.Auth.TokenSecret) == "" {
		check.Status = CheckWarn
		check.Message = "No token secret: sign-in is disabled"
		check.Fix = "sumy config set auth.token_secret <secret> (or SUMY_TOKEN_SECRET)"
		return check
	}
	check.Message = "Token secret configured"
	return check
}

func checkSignedIn(ctx context.Context, env *Env) *HealthCheck {
	check := &HealthCheck{Name: "identity"}
	id, err := env.Auth.CurrentUser(ctx)
	switch {
	case err != nil:
		check.Status = CheckFail
		check.Message = "Identity file unreadable: " + err.Error()
		check.Fix = "sumy logout && sumy login --token <token>"
	case !auth.IsAuthenticated(id):
		check.Status = CheckWarn
		check.Message = "Not signed in"
		check.Fix = "sumy login --token <token>"
	default:
		check.Message = "Signed in as " + id.Name()
	}
	return check
}

func checkService(ctx context.Context, env *Env) *HealthCheck {
	check := &HealthCheck{Name: "service"}
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	h, err := env.Client.Health(ctx)
	switch {
	case err != nil:
		check.Status = CheckFail
		check.Message = "Query service unreachable: " + err.Error()
		check.Fix = "check api.base_url (" + env.Config.API.BaseURL + ")"
	case !h.Healthy():
		check.Status = CheckWarn
		check.Message = "Query service reports status " + h.Status
	default:
		check.Message = "Query service healthy"
	}
	return check
}

func checkHistory(ctx context.Context, env *Env) *HealthCheck {
	check := &HealthCheck{Name: "history"}
	backend := strings.ToLower(env.Config.History.Backend)
	if backend == history.BackendNone {
		check.Status = CheckWarn
		check.Message = "Conversation history disabled"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()
	if _, err := env.History(ctx); err != nil {
		check.Status = CheckFail
		check.Message = "History store unavailable: " + err.Error()
		check.Fix = "sumy config set history.backend none"
		return check
	}
	check.Message = "History store ready (" + backend + ")"
	return check
}

func checkLogDir(env *Env) *HealthCheck {
	check := &HealthCheck{Name: "logs"}
	path := env.Config.Log.OutputPath
	if path == "" || path == "stderr" {
		check.Message = "Logging to stderr"
		return check
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		check.Status = CheckFail
		check.Message = "Cannot create log directory: " + err.Error()
		return check
	}
	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		check.Status = CheckFail
		check.Message = "Log directory not writable: " + err.Error()
		check.Fix = "chmod 700 " + dir
		return check
	}
	os.Remove(probe)
	check.Message = "Log directory writable"
	return check
}
