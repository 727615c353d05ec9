// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

func TestLog_GroupedRecord(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := New(zap.New(core))

	tr.Log("Test query", "Test response", sumiller.Metadata{
		Classification:   sumiller.ClassWineSearch,
		RAGUsed:          true,
		WineResults:      2,
		KnowledgeResults: 0,
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.True(t, strings.Contains(entry.Message, "🍷 Sumy Traceability"))

	fields := entry.ContextMap()
	assert.Equal(t, "Test query", fields["query"])
	assert.Equal(t, "Test response", fields["response"])

	md, ok := fields["metadata"].(map[string]interface{})
	require.True(t, ok, "metadata should be a grouped object, got %T", fields["metadata"])
	assert.Equal(t, "WINE_SEARCH", md["classification"])
	assert.Equal(t, true, md["rag_used"])
	assert.EqualValues(t, 2, md["wine_results"])
	assert.EqualValues(t, 0, md["knowledge_results"])
}

func TestLog_TruncatesLongText(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tr := New(zap.New(core))

	tr.Log(strings.Repeat("a", 500), "ok", sumiller.Metadata{})

	got := logs.All()[0].ContextMap()["query"].(string)
	assert.LessOrEqual(t, len([]rune(got)), previewLen)
}

func TestLog_PanicIsSwallowed(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	l := zap.New(zapcore.RegisterHooks(core, func(zapcore.Entry) error {
		panic("sink exploded")
	}))
	tr := New(l)

	assert.NotPanics(t, func() {
		tr.Log("q", "r", sumiller.Metadata{})
	})
}

func TestLog_NilLogger(t *testing.T) {
	var tr *Logger
	assert.NotPanics(t, func() {
		tr.Log("q", "r", sumiller.Metadata{})
	})
	assert.NotPanics(t, func() {
		New(nil).Log("q", "r", sumiller.Metadata{})
	})
}
