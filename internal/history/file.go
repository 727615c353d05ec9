// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maitre-ia/sumy-tui/internal/util"
)

// FileRepository keeps one JSON document of summaries per user.
type FileRepository struct {
	// BaseDir holds the per-user files (default: ~/.sumy/history/)
	BaseDir string

	// MaxConversations limits stored summaries per user
	MaxConversations int

	mu sync.Mutex
}

// DefaultHistoryDir returns ~/.sumy/history.
func DefaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sumy", "history")
	}
	return filepath.Join(home, ".sumy", "history")
}

// NewFileRepository creates a repository rooted at baseDir.
func NewFileRepository(baseDir string, maxConversations int) (*FileRepository, error) {
	if baseDir == "" {
		baseDir = DefaultHistoryDir()
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	return &FileRepository{BaseDir: baseDir, MaxConversations: maxConversations}, nil
}

// filePath hashes the user id so any identifier is a safe file name.
func (r *FileRepository) filePath(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return filepath.Join(r.BaseDir, hex.EncodeToString(sum[:16])+".json")
}

func (r *FileRepository) read(userID string) ([]ConversationSummary, error) {
	data, err := os.ReadFile(r.filePath(userID))
	if os.IsNotExist(err) {
		return []ConversationSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	sums := []ConversationSummary{}
	if err := json.Unmarshal(data, &sums); err != nil {
		return nil, fmt.Errorf("corrupt history file: %w", err)
	}
	return sums, nil
}

func (r *FileRepository) write(userID string, sums []ConversationSummary) error {
	data, err := json.MarshalIndent(sums, "", "  ")
	if err != nil {
		return err
	}
	// atomic write with fsync
	return util.AtomicWriteFile(r.filePath(userID), data, 0600)
}

// LoadConversationHistory implements Repository.
func (r *FileRepository) LoadConversationHistory(_ context.Context, userID string) ([]ConversationSummary, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sums, err := r.read(userID)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	sortNewestFirst(sums)
	return sums, nil
}

// SaveConversation implements Repository.
func (r *FileRepository) SaveConversation(_ context.Context, sum ConversationSummary) error {
	if err := sum.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sums, err := r.read(sum.UserID)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	replaced := false
	for i := range sums {
		if sums[i].ID == sum.ID {
			sum.CreatedAt = sums[i].CreatedAt
			sums[i] = sum
			replaced = true
			break
		}
	}
	if !replaced {
		sums = append(sums, sum)
	}

	sums, _ = overflow(sums, r.MaxConversations)

	if err := r.write(sum.UserID, sums); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// DeleteConversation implements Repository.
func (r *FileRepository) DeleteConversation(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sums, err := r.read(userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	for i := range sums {
		if sums[i].ID == id {
			sums = append(sums[:i], sums[i+1:]...)
			if err := r.write(userID, sums); err != nil {
				return fmt.Errorf("delete conversation: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

// Close implements Repository.
func (r *FileRepository) Close() error {
	return nil
}
