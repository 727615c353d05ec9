// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// =============================================================================
// SUMMARIZE TESTS
// =============================================================================

func TestSummarize(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(5 * time.Minute)
	msgs := []model.Message{
		model.NewUserMessage("¿Qué vino\nme recomiendas para un cordero asado?"),
		model.NewAssistantMessage("Un Ribera del Duero crianza."),
		model.NewUserMessage("¿Y blanco?"),
		model.NewErrorMessage("Error de conexión"),
	}

	s := Summarize("conv_1", "uid", msgs, created, updated)

	assert.Equal(t, "conv_1", s.ID)
	assert.Equal(t, "uid", s.UserID)
	assert.Equal(t, "¿Qué vino me recomiendas para un cordero asado?", s.Title)
	assert.Equal(t, "Un Ribera del Duero crianza.", s.LastMessage)
	assert.Equal(t, 4, s.MessageCount)
	assert.Equal(t, created, s.CreatedAt)
	assert.Equal(t, updated, s.UpdatedAt)
}

func TestSummarize_LongTitleTruncated(t *testing.T) {
	long := strings.Repeat("Tempranillo ", 20)
	s := Summarize("c", "u", []model.Message{model.NewUserMessage(long)}, time.Now(), time.Now())

	assert.LessOrEqual(t, util.StringWidth(s.Title), TitleWidth)
	assert.True(t, strings.HasSuffix(s.Title, "..."))
	assert.Empty(t, s.LastMessage)
}

func TestSummarize_NoUserMessage(t *testing.T) {
	s := Summarize("c", "u", nil, time.Now(), time.Now())
	assert.Equal(t, DefaultTitle, s.Title)
	assert.Zero(t, s.MessageCount)
}

// =============================================================================
// REPOSITORY CONFORMANCE
// =============================================================================

func summaryAt(id, user string, minute int) ConversationSummary {
	at := time.Date(2025, 1, 1, 10, minute, 0, 0, time.UTC)
	return ConversationSummary{
		ID:           id,
		UserID:       user,
		Title:        "Título " + id,
		LastMessage:  "respuesta " + id,
		MessageCount: 2,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// runRepositoryTests exercises the Repository contract against repo. The
// repository must be empty and capped at three conversations per user.
func runRepositoryTests(t *testing.T, repo Repository) {
	ctx := context.Background()
	user := fmt.Sprintf("user-%d", time.Now().UnixNano())

	t.Run("empty history is non-nil", func(t *testing.T) {
		sums, err := repo.LoadConversationHistory(ctx, user)
		require.NoError(t, err)
		assert.NotNil(t, sums)
		assert.Empty(t, sums)
	})

	t.Run("newest first", func(t *testing.T) {
		require.NoError(t, repo.SaveConversation(ctx, summaryAt("a", user, 1)))
		require.NoError(t, repo.SaveConversation(ctx, summaryAt("c", user, 3)))
		require.NoError(t, repo.SaveConversation(ctx, summaryAt("b", user, 2)))

		sums, err := repo.LoadConversationHistory(ctx, user)
		require.NoError(t, err)
		require.Len(t, sums, 3)
		assert.Equal(t, []string{"c", "b", "a"}, ids(sums))
		assert.Equal(t, "Título c", sums[0].Title)
		assert.True(t, sums[0].UpdatedAt.Equal(summaryAt("c", user, 3).UpdatedAt))
	})

	t.Run("update moves to front", func(t *testing.T) {
		s := summaryAt("a", user, 4)
		s.MessageCount = 6
		require.NoError(t, repo.SaveConversation(ctx, s))

		sums, err := repo.LoadConversationHistory(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, ids(sums))
		assert.Equal(t, 6, sums[0].MessageCount)
	})

	t.Run("cap evicts oldest", func(t *testing.T) {
		require.NoError(t, repo.SaveConversation(ctx, summaryAt("d", user, 5)))

		sums, err := repo.LoadConversationHistory(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "c"}, ids(sums))
	})

	t.Run("users are isolated", func(t *testing.T) {
		other := user + "-other"
		require.NoError(t, repo.SaveConversation(ctx, summaryAt("x", other, 1)))

		sums, err := repo.LoadConversationHistory(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, ids(sums))

		assert.ErrorIs(t, repo.DeleteConversation(ctx, user, "x"), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteConversation(ctx, user, "a"))
		assert.ErrorIs(t, repo.DeleteConversation(ctx, user, "a"), ErrNotFound)

		sums, err := repo.LoadConversationHistory(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c"}, ids(sums))
	})

	t.Run("equal times keep the smaller id", func(t *testing.T) {
		tied := user + "-ties"
		for _, id := range []string{"t1", "t3", "t2", "t0"} {
			require.NoError(t, repo.SaveConversation(ctx, summaryAt(id, tied, 1)))
		}

		sums, err := repo.LoadConversationHistory(ctx, tied)
		require.NoError(t, err)
		assert.Equal(t, []string{"t0", "t1", "t2"}, ids(sums))
	})

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, repo.SaveConversation(ctx, ConversationSummary{ID: "z"}), ErrMissingUser)
		assert.ErrorIs(t, repo.SaveConversation(ctx, ConversationSummary{UserID: user}), ErrMissingID)
		_, err := repo.LoadConversationHistory(ctx, "")
		assert.ErrorIs(t, err, ErrMissingUser)
	})
}

func ids(sums []ConversationSummary) []string {
	out := make([]string, len(sums))
	for i, s := range sums {
		out[i] = s.ID
	}
	return out
}

// =============================================================================
// BACKENDS
// =============================================================================

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "history.db"), 3)
	require.NoError(t, err)
	defer repo.Close()

	runRepositoryTests(t, repo)
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path, 10)
	require.NoError(t, err)
	require.NoError(t, repo.SaveConversation(ctx, summaryAt("keep", "u", 1)))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, 10)
	require.NoError(t, err)
	defer repo.Close()

	sums, err := repo.LoadConversationHistory(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(sums))
}

func TestFileRepository(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir(), 3)
	require.NoError(t, err)
	defer repo.Close()

	runRepositoryTests(t, repo)
}

func TestFileRepository_CorruptFile(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir(), 3)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.filePath("u"), []byte("{not json"), 0600))

	_, err = repo.LoadConversationHistory(context.Background(), "u")
	assert.Error(t, err)
}

// TestRedisRepository runs against a live server named by SUMY_TEST_REDIS_URL.
func TestRedisRepository(t *testing.T) {
	url := os.Getenv("SUMY_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SUMY_TEST_REDIS_URL not set")
	}

	repo, err := NewRedisRepository(context.Background(), url, 3)
	require.NoError(t, err)
	defer repo.Close()
	repo.Prefix = fmt.Sprintf("sumy-test-%d:", time.Now().UnixNano())

	runRepositoryTests(t, repo)
}

func TestRedisRepository_InMemory(t *testing.T) {
	mem := newMemRedis()
	repo := NewRedisRepositoryWithClient(mem, 3)

	runRepositoryTests(t, repo)

	require.NoError(t, repo.Close())
	assert.True(t, mem.closed)
}

func TestRedisRepository_EvictDropsDocuments(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	repo := NewRedisRepositoryWithClient(mem, 2)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SaveConversation(ctx, summaryAt(id, "u", i)))
	}

	assert.NotContains(t, mem.kv, repo.summaryKey("a"))
	assert.Contains(t, mem.kv, repo.summaryKey("c"))
	assert.Len(t, mem.zsets[repo.userKey("u")], 2)
}

func TestRedisRepository_RejectsForeignID(t *testing.T) {
	ctx := context.Background()
	repo := NewRedisRepositoryWithClient(newMemRedis(), 3)

	require.NoError(t, repo.SaveConversation(ctx, summaryAt("shared", "u1", 1)))
	assert.Error(t, repo.SaveConversation(ctx, summaryAt("shared", "u2", 2)))
}

func TestOverflow(t *testing.T) {
	sums := []ConversationSummary{
		summaryAt("b", "u", 1),
		summaryAt("z", "u", 3),
		summaryAt("a", "u", 1),
		summaryAt("c", "u", 2),
	}

	keep, drop := overflow(sums, 3)
	assert.Equal(t, []string{"z", "c", "a"}, ids(keep))
	assert.Equal(t, []string{"b"}, ids(drop))

	keep, drop = overflow(sums, 10)
	assert.Len(t, keep, 4)
	assert.Empty(t, drop)
}

func TestNewRedisRepository_BadURL(t *testing.T) {
	_, err := NewRedisRepository(context.Background(), "http://not-redis", 3)
	assert.Error(t, err)

	_, err = NewRedisRepository(context.Background(), "", 3)
	assert.Error(t, err)
}

func TestRedisKeys(t *testing.T) {
	repo := NewRedisRepositoryWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	defer repo.Close()

	assert.Equal(t, "sumy:user:u1:conversations", repo.userKey("u1"))
	assert.Equal(t, "sumy:conversation:c1", repo.summaryKey("c1"))
	assert.Equal(t, DefaultMaxConversations, repo.max)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(dir, "h.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepository{}, repo)
	repo.Close()

	repo, err = Open(ctx, Options{Backend: BackendFile, Dir: filepath.Join(dir, "files")})
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)

	repo, err = Open(ctx, Options{Backend: BackendNone})
	require.NoError(t, err)
	sums, err := repo.LoadConversationHistory(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, sums)

	_, err = Open(ctx, Options{Backend: "firestore"})
	assert.Error(t, err)
}
