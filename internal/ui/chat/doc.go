// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view of the sumy TUI.
//
// The view owns no chat state of its own: every key press that matters is
// turned into a session call, and every asynchronous job the session returns
// runs as a tea.Cmd whose result is dispatched back through EventMsg. The
// transcript, the loading indicator and the input are rendered from the
// session after each step.
//
// Key bindings:
//
//	Enter       send the question
//	Ctrl+L      start a new conversation
//	Ctrl+H      show or hide saved conversations
//	PgUp/PgDn   scroll the transcript
//	Ctrl+C      quit
package chat
