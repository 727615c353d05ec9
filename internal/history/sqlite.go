// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	last_message  TEXT NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user
	ON conversations(user_id, updated_at DESC);
`

// SQLiteRepository stores summaries in a local SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	max int
}

// DefaultSQLitePath returns ~/.sumy/history.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sumy", "history.db")
	}
	return filepath.Join(home, ".sumy", "history.db")
}

// NewSQLiteRepository opens (and creates if needed) the database at path.
// The path ":memory:" opens a private in-memory database.
func NewSQLiteRepository(path string, maxConversations int) (*SQLiteRepository, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure history database: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	return &SQLiteRepository{db: db, max: maxConversations}, nil
}

// LoadConversationHistory implements Repository.
func (r *SQLiteRepository) LoadConversationHistory(ctx context.Context, userID string) ([]ConversationSummary, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, last_message, message_count, created_at, updated_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY updated_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	defer rows.Close()

	sums := []ConversationSummary{}
	for rows.Next() {
		var s ConversationSummary
		var created, updated int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.LastMessage, &s.MessageCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("load conversation history: %w", err)
		}
		s.CreatedAt = time.Unix(0, created)
		s.UpdatedAt = time.Unix(0, updated)
		sums = append(sums, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	return sums, nil
}

// SaveConversation implements Repository.
func (r *SQLiteRepository) SaveConversation(ctx context.Context, sum ConversationSummary) error {
	if err := sum.validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	defer tx.Rollback()

	// A conversation id never moves between users.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, last_message, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			last_message = excluded.last_message,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at
		WHERE conversations.user_id = excluded.user_id`,
		sum.ID, sum.UserID, sum.Title, sum.LastMessage, sum.MessageCount,
		sum.CreatedAt.UnixNano(), sum.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM conversations
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM conversations
			WHERE user_id = ?
			ORDER BY updated_at DESC, id ASC
			LIMIT ?)`,
		sum.UserID, sum.UserID, r.max)
	if err != nil {
		return fmt.Errorf("evict old conversations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// DeleteConversation implements Repository.
func (r *SQLiteRepository) DeleteConversation(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
