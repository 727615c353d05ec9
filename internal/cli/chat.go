// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/config"
	"github.com/maitre-ia/sumy-tui/internal/session"
)

const (
	chatPrompt      = "sumy> "
	chatHistoryFile = "chat_history"
	summaryTimeout  = 5 * time.Second
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads REPL input with history. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// linerReader adds a persistent history file to liner.
type linerReader struct {
	*liner.State
	historyFile string
}

// newLinerReader opens a liner prompt and loads the previous input history
// from the configuration directory.
func newLinerReader() (LineReader, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{State: line, historyFile: filepath.Join(dir, chatHistoryFile)}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r, nil
}

// Close saves the input history with 0600 permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.State.WriteHistory(f)
			f.Close()
		}
	}
	return r.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

// HandleChat runs the line-based chat until "/salir", Ctrl+C or Ctrl+D.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	id, err := env.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sess, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	sess.Run(sess.SetUser(id))

	open := env.NewLineReader
	if open == nil {
		open = newLinerReader
	}
	input, err := open()
	if err != nil {
		return NewCommandError("chat", "start", "cannot read input", err)
	}
	defer input.Close()

	if !args.Quiet {
		fmt.Fprintln(env.Out, TitleStyle.Render("🍷 Sumy"))
		fmt.Fprintf(env.Out, "Hola, %s. Escribe tu pregunta sobre vinos. %s\n",
			id.Name(), DimStyle.Render("(/ayuda para ver los comandos)"))
	}

	for {
		line, err := input.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				printExitSummary(env, sess)
				return nil
			}
			return NewCommandError("chat", "read", "input failed", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if strings.HasPrefix(line, "/") {
			if !handleSlashCommand(ctx, env, args, sess, line) {
				printExitSummary(env, sess)
				return nil
			}
			continue
		}
		if isExitWord(line) {
			printExitSummary(env, sess)
			return nil
		}

		msg, ok := sess.Ask(line)
		if !ok {
			continue
		}
		printMessage(env.Out, env, args, msg)
	}
}

// handleSlashCommand runs one REPL command and reports whether to continue.
func handleSlashCommand(ctx context.Context, env *Env, args Args, sess *session.Session, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/salir", "/exit", "/quit", "/q":
		return false

	case "/nueva", "/reset", "/clear":
		sess.Run(sess.Reset())
		fmt.Fprintln(env.Out, DimStyle.Render("Nueva conversación."))

	case "/historial", "/history":
		ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
		defer cancel()
		sums, err := sess.Summaries(ctx)
		if err != nil {
			env.Logger.Warn("load summaries", zap.Error(err))
			fmt.Fprintln(env.Out, ErrorStyle.Render("No se pudo cargar el historial."))
			break
		}
		printSummaries(env.Out, sums, time.Now())

	case "/ayuda", "/help", "/?":
		printChatHelp(env.Out)

	default:
		fmt.Fprintf(env.Out, "%s %s\n", WarningStyle.Render("Comando desconocido:"), fields[0])
		printChatHelp(env.Out)
	}
	return true
}

func isExitWord(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit", "salir":
		return true
	}
	return false
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w, "  /nueva      empezar una conversación nueva")
	fmt.Fprintln(w, "  /historial  ver las conversaciones guardadas")
	fmt.Fprintln(w, "  /ayuda      mostrar esta ayuda")
	fmt.Fprintln(w, "  /salir      terminar (también Ctrl+D)")
}

func printExitSummary(env *Env, sess *session.Session) {
	n := len(sess.Messages())
	fmt.Fprintln(env.Out)
	fmt.Fprintln(env.Out, DimStyle.Render(fmt.Sprintf("%d mensajes en esta conversación. ¡Salud!", n)))
}
