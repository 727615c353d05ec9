// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package trace records how the query service produced each answer.
package trace

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maitre-ia/sumy-tui/internal/sumiller"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// Title is the message of every traceability record.
const Title = "🍷 Sumy Traceability"

// previewLen bounds the query and response text kept in a record.
const previewLen = 120

// Logger emits one grouped record per answered query.
// A nil *Logger is valid and logs nothing.
type Logger struct {
	log *zap.Logger
}

// New creates a traceability logger on top of l.
func New(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{log: l.Named("trace")}
}

// Log records query, response and the service metadata. It never panics and
// never reports failure to the caller.
func (t *Logger) Log(query, response string, md sumiller.Metadata) {
	if t == nil || t.log == nil {
		return
	}
	defer func() { _ = recover() }()

	t.log.Info(Title,
		zap.String("query", util.TruncateRunes(util.OneLine(query), previewLen)),
		zap.String("response", util.TruncateRunes(util.OneLine(response), previewLen)),
		zap.Object("metadata", metadataFields(md)),
	)
}

// metadataFields groups the service metadata under a single key.
func metadataFields(md sumiller.Metadata) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("classification", string(md.Classification))
		if !md.Classification.Known() {
			enc.AddBool("unknown_classification", true)
		}
		enc.AddBool("rag_used", md.RAGUsed)
		enc.AddInt("wine_results", md.WineResults)
		enc.AddInt("knowledge_results", md.KnowledgeResults)
		return nil
	})
}
