// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// =============================================================================
// SUMMARY
// =============================================================================

// DefaultTitle names a conversation without a user message.
const DefaultTitle = "Nueva conversación"

// Display widths, in terminal cells.
const (
	TitleWidth       = 50
	LastMessageWidth = 100
)

// DefaultMaxConversations is the per-user cap when none is configured.
const DefaultMaxConversations = 50

// ConversationSummary describes one stored conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"last_message"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summarize builds the summary of a conversation. The title is the first
// user message and the last message is the latest assistant answer.
func Summarize(convID, userID string, msgs []model.Message, createdAt, updatedAt time.Time) ConversationSummary {
	sum := ConversationSummary{
		ID:           convID,
		UserID:       userID,
		Title:        DefaultTitle,
		MessageCount: len(msgs),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	for _, m := range msgs {
		if m.Type == model.TypeUser && !m.IsEmpty() {
			sum.Title = util.TruncateWidth(util.OneLine(m.Content), TitleWidth)
			break
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == model.TypeAssistant && !msgs[i].IsEmpty() {
			sum.LastMessage = util.TruncateWidth(util.OneLine(msgs[i].Content), LastMessageWidth)
			break
		}
	}
	return sum
}

func (s ConversationSummary) validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrMissingID
	}
	return nil
}

// sortNewestFirst orders summaries by UpdatedAt descending, ties by ID.
func sortNewestFirst(sums []ConversationSummary) {
	sort.SliceStable(sums, func(i, j int) bool {
		if !sums[i].UpdatedAt.Equal(sums[j].UpdatedAt) {
			return sums[i].UpdatedAt.After(sums[j].UpdatedAt)
		}
		return sums[i].ID < sums[j].ID
	})
}

// overflow sorts sums newest first and splits them at limit. drop holds
// what a capped store evicts.
func overflow(sums []ConversationSummary, limit int) (keep, drop []ConversationSummary) {
	sortNewestFirst(sums)
	if limit <= 0 || len(sums) <= limit {
		return sums, nil
	}
	return sums[:limit], sums[limit:]
}

// =============================================================================
// REPOSITORY
// =============================================================================

var (
	ErrNotFound    = errors.New("conversation not found")
	ErrMissingUser = errors.New("user id is required")
	ErrMissingID   = errors.New("conversation id is required")
)

// Repository stores conversation summaries per user.
type Repository interface {
	// LoadConversationHistory returns the user's summaries, newest first.
	// It returns an empty slice when the user has none.
	LoadConversationHistory(ctx context.Context, userID string) ([]ConversationSummary, error)

	// SaveConversation inserts or replaces a summary and enforces the
	// per-user cap. Summaries are ranked by UpdatedAt descending, ties by ID
	// ascending, and everything ranked past the cap is evicted: the oldest
	// first, and among equal times the greater ID.
	SaveConversation(ctx context.Context, sum ConversationSummary) error

	// DeleteConversation removes one summary. It returns ErrNotFound when
	// the user has no conversation with that id.
	DeleteConversation(ctx context.Context, userID, id string) error

	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend          string
	SQLitePath       string
	RedisURL         string
	Dir              string
	MaxConversations int
}

// Open returns the repository for opts.Backend.
func Open(ctx context.Context, opts Options) (Repository, error) {
	limit := opts.MaxConversations
	if limit <= 0 {
		limit = DefaultMaxConversations
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		return NewSQLiteRepository(opts.SQLitePath, limit)
	case BackendRedis:
		return NewRedisRepository(ctx, opts.RedisURL, limit)
	case BackendFile:
		return NewFileRepository(opts.Dir, limit)
	case BackendNone:
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", opts.Backend)
}

// Nop is a Repository that stores nothing.
type Nop struct{}

func (Nop) LoadConversationHistory(context.Context, string) ([]ConversationSummary, error) {
	return []ConversationSummary{}, nil
}
func (Nop) SaveConversation(context.Context, ConversationSummary) error { return nil }
func (Nop) DeleteConversation(context.Context, string, string) error    { return ErrNotFound }
func (Nop) Close() error                                               { return nil }
