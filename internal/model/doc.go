// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages and the
// in-session conversation store.
//
// # Key Types
//
//   - Message: Single immutable chat entry (user, assistant or error)
//   - MessageType: Message kind enumeration
//   - Store: Ordered, append-only message list owned by one chat session
//   - Conversation: The in-memory Store implementation
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("¿Qué vino me recomiendas?"))
//	for _, msg := range conv.List() {
//	    fmt.Println(msg.Type, msg.Content)
//	}
package model
