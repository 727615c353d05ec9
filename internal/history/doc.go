// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists conversation summaries keyed by user.
//
// A summary records the title, last answer and message count of one chat
// conversation. The chat session saves a summary after every answered query
// and the history panel lists them newest first.
//
// # Backends
//
//   - sqlite: local database under ~/.sumy (default)
//   - redis: shared store, one sorted set per user
//   - file: one JSON document per user
//   - none: persistence disabled
//
// # Usage
//
//	repo, err := history.Open(ctx, history.Options{Backend: "sqlite", SQLitePath: path})
//	defer repo.Close()
//	sums, err := repo.LoadConversationHistory(ctx, uid)
package history
