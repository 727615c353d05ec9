// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers used across sumy.
//
// The terminal UI owns stdout, so loggers write to a file by default. The
// output path "stderr" is accepted for the non-interactive CLI commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format values accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultOutputPath returns ~/.sumy/logs/sumy.log.
func DefaultOutputPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sumy", "sumy.log")
	}
	return filepath.Join(home, ".sumy", "logs", "sumy.log")
}

// New builds a logger from a level name, an encoding format and an output
// path. Unknown levels fall back to info. An empty path selects
// DefaultOutputPath; "stdout" is rejected.
func New(level, format, outputPath string) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var zapConfig zap.Config
	if format == FormatConsole {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = FormatJSON
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = logLevel

	path, err := resolveOutput(outputPath)
	if err != nil {
		return nil, err
	}
	zapConfig.OutputPaths = []string{path}
	zapConfig.ErrorOutputPaths = []string{path}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func resolveOutput(outputPath string) (string, error) {
	switch outputPath {
	case "stdout":
		return "", fmt.Errorf("log output %q is reserved for the terminal UI", outputPath)
	case "stderr":
		return outputPath, nil
	case "":
		outputPath = DefaultOutputPath()
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return outputPath, nil
}

// Named returns l scoped to a component, or a no-op logger when l is nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(name)
}
