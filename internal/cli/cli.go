// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information, overridden at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdHistory
	CmdHealth
	CmdStats
	CmdContext
	CmdRate
	CmdPrefs
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdAsk:     "ask",
	CmdChat:    "chat",
	CmdLogin:   "login",
	CmdLogout:  "logout",
	CmdWhoami:  "whoami",
	CmdHistory: "history",
	CmdHealth:  "health",
	CmdStats:   "stats",
	CmdContext: "context",
	CmdRate:    "rate",
	CmdPrefs:   "prefs",
	CmdConfig:  "config",
	CmdDoctor:  "doctor",
	CmdVersion: "version",
	CmdHelp:    "help",
}

// String returns the command name as typed.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// NeedsConfig reports whether the command reads the configuration file.
func (c Command) NeedsConfig() bool {
	return c != CmdVersion && c != CmdHelp && c != CmdUnknown
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // --json
	Quiet      bool   // -q, --quiet
	NoMarkdown bool   // --no-markdown
	ConfigPath string // --config <path>

	// Name is the command word as typed, kept for error messages.
	Name string

	// Raw holds the arguments after the command word.
	Raw []string
}

const usageText = `sumy - tu sumiller en la terminal

Usage:
  sumy                          Start the chat interface (default)
  sumy ask "question"           Ask a single question
  sumy chat                     Line-based chat (REPL)
  sumy login --token <token>    Sign in with an identity token
  sumy login --dev <uid>        Mint and use a local development token
  sumy logout                   Sign out
  sumy whoami                   Show the signed-in user
  sumy history [list]           List saved conversations
  sumy history delete <id>      Delete a saved conversation
    --confirm                   Skip the confirmation prompt
  sumy health                   Check the query service
  sumy stats                    Show service statistics
  sumy context                  Show what the service remembers about you
  sumy rate <wine> <1-5>        Rate a wine
    --notes "text"              Optional tasting notes
  sumy prefs key=value...       Update your preferences
  sumy config show              Show the configuration (secrets masked)
  sumy config get <key>         Show one value
  sumy config set <key> <value> Change and save one value
  sumy config keys              List every key
  sumy doctor                   Diagnose configuration, identity and service
  sumy version                  Show version information
  sumy help                     Show this help

Global flags:
  --json                        Machine-readable output
  -q, --quiet                   Less output
  --no-markdown                 Print answers as plain text
  --config <path>               Use another configuration file

Environment:
  SUMY_HOME                     Configuration directory (default ~/.sumy)
  SUMY_API_URL, SUMY_TOKEN_SECRET, SUMY_HISTORY_BACKEND, ...
                                Override single settings (see 'sumy config keys')
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// Parse splits argv (without the program name) into a command and its
// arguments. No arguments selects the TUI.
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	args.Name = remaining[0]
	args.Raw = remaining[1:]

	switch strings.ToLower(remaining[0]) {
	case "tui":
		return CmdTUI, args
	case "ask", "a":
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "login", "signin":
		return CmdLogin, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami", "me":
		return CmdWhoami, args
	case "history", "conversations":
		return CmdHistory, args
	case "health", "status":
		return CmdHealth, args
	case "stats":
		return CmdStats, args
	case "context":
		return CmdContext, args
	case "rate":
		return CmdRate, args
	case "prefs", "preferences":
		return CmdPrefs, args
	case "config":
		return CmdConfig, args
	case "doctor", "check":
		return CmdDoctor, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	}
	return CmdUnknown, args
}

// parseGlobalFlags extracts global flags wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--no-markdown":
			args.NoMarkdown = true
		case arg == "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// Run executes every command except the TUI, which main starts itself.
func Run(ctx context.Context, cmd Command, args Args, env *Env) error {
	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, env, args)
	case CmdChat:
		return HandleChat(ctx, env, args)
	case CmdLogin:
		return HandleLogin(ctx, env, args)
	case CmdLogout:
		return HandleLogout(ctx, env, args)
	case CmdWhoami:
		return HandleWhoami(ctx, env, args)
	case CmdHistory:
		return HandleHistory(ctx, env, args)
	case CmdHealth:
		return HandleHealth(ctx, env, args)
	case CmdStats:
		return HandleStats(ctx, env, args)
	case CmdContext:
		return HandleContext(ctx, env, args)
	case CmdRate:
		return HandleRate(ctx, env, args)
	case CmdPrefs:
		return HandlePrefs(ctx, env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	case CmdDoctor:
		return HandleDoctor(ctx, env, args)
	case CmdVersion:
		return HandleVersion(env.Out, args)
	case CmdHelp:
		PrintUsage(env.Out)
		return nil
	case CmdTUI:
		return NewCommandError("tui", "start", "the chat interface is started by the sumy binary", nil)
	}
	example := "sumy help"
	if s := SuggestCommand(args.Name); s != "" {
		example = "sumy " + s
	}
	return &ValidationError{
		Field:   "command",
		Value:   args.Name,
		Reason:  "unknown command",
		Example: example,
	}
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if args.JSON {
		return NewJSONResponse("version", data).Print(w)
	}
	fmt.Fprintf(w, "sumy %s\n", data.Version)
	if !args.Quiet {
		fmt.Fprintf(w, "  commit: %s\n  built:  %s\n  go:     %s\n", data.GitCommit, data.BuildDate, data.GoVersion)
	}
	return nil
}
