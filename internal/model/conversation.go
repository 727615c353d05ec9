// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the ordered message list of one chat session.
//
// Append preserves insertion order and never deduplicates. List returns a
// snapshot: mutating the returned slice does not affect the store.
type Store interface {
	Append(msg Message)
	List() []Message
	Clear()
	Len() int
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the in-memory Store. It is owned by a single session loop
// and is not safe for concurrent use.
type Conversation struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	messages []Message
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        NewConversationID(),
		CreatedAt: now,
		UpdatedAt: now,
		messages:  make([]Message, 0, 16),
	}
}

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return "conv_" + NewID()[len("msg_"):]
}

// Append adds a message at the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
	c.UpdatedAt = time.Now()
}

// List returns a copy of the messages in insertion order.
func (c *Conversation) List() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear removes every message and starts a new conversation identity, so a
// reset session is persisted as a separate summary.
func (c *Conversation) Clear() {
	c.messages = c.messages[:0:0]
	c.ID = NewConversationID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message and whether one exists.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastOfType returns the most recent message of the given type.
func (c *Conversation) LastOfType(t MessageType) (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Type == t {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
