// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive commands
// of sumy.
//
// Every command runs against an Env, which carries the configuration, the
// query service client, the identity provider and the conversation store.
// The TUI is started by main from the same Env.
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	env := cli.NewEnv(cfg, path, log)
//	if err := cli.Run(ctx, cmd, args, env); err != nil {
//	    cli.DisplayError(os.Stderr, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - ask, chat: one question or a line-based conversation
//   - login, logout, whoami: identity token management
//   - history: list and delete saved conversations
//   - health, stats, context, rate, prefs: query service endpoints
//   - config, doctor: configuration and diagnostics
//
// All commands support --json for scripting.
package cli
