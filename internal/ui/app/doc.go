// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the sumy TUI. It applies the
// auth gate: the login view is shown while no identity is signed in, the
// chat view otherwise. Identity changes made from another terminal arrive
// through an auth.Watcher and flip the view without a restart.
package app
