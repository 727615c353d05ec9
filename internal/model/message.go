// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType identifies who (or what) produced a message.
type MessageType string

const (
	TypeUser      MessageType = "user"
	TypeAssistant MessageType = "assistant"
	TypeError     MessageType = "error"
)

// String returns the string representation of the type.
func (t MessageType) String() string {
	return string(t)
}

// DisplayName returns a human-readable label for the type.
func (t MessageType) DisplayName() string {
	switch t {
	case TypeUser:
		return "Tú"
	case TypeAssistant:
		return "Sumy"
	case TypeError:
		return "Error"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeUser, TypeAssistant, TypeError:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single chat entry. Messages are values and are never mutated
// after creation; Content may carry inline emphasis markup (**bold**, *italic*).
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(t MessageType, content string) Message {
	return Message{
		ID:        NewID(),
		Type:      t,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(TypeUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(TypeAssistant, content)
}

// NewErrorMessage creates an error message.
func NewErrorMessage(content string) Message {
	return NewMessage(TypeError, content)
}

// NewID returns a fresh message identifier.
func NewID() string {
	return "msg_" + uuid.NewString()
}

// IsEmpty returns true if the message has no visible content.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Preview returns a truncated single-line preview of the content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	content := strings.Join(strings.Fields(m.Content), " ")
	runes := []rune(content)
	if maxLen <= 3 || len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HISTORY HELPERS
// =============================================================================

// HistoryEntry is one prior turn as the query service expects it.
// Role is TypeUser or TypeAssistant.
type HistoryEntry struct {
	Role    MessageType `json:"role"`
	Content string      `json:"content"`
}

// QueryHistory returns the messages that are sent to the query service as
// conversation context. Error entries are local diagnostics and are dropped.
func QueryHistory(msgs []Message) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		if m.Type != TypeUser && m.Type != TypeAssistant {
			continue
		}
		out = append(out, HistoryEntry{Role: m.Type, Content: m.Content})
	}
	return out
}
