// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/session"
	"github.com/maitre-ia/sumy-tui/internal/ui/components"
)

// HandleAsk sends one question and prints the answer.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	parser := NewArgParser(args.Raw)
	query := strings.TrimSpace(strings.Join(parser.PositionalFrom(0), " "))
	if query == "" {
		return ErrMissingArgument("question", `sumy ask "¿Qué vino marida con una paella?"`)
	}

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

	return OutputJSON(env.Out, args.JSON, "ask", func() (interface{}, error) {
		msg, ok := sess.Ask(query)
		if !ok {
			return nil, NewCommandError("ask", "send", "the question was not sent", nil)
		}
		if msg.Type == model.TypeError {
			return nil, NewCommandError("ask", "send", msg.Content, sess.LastErr())
		}
		if !args.JSON {
			printMessage(env.Out, env, args, msg)
		}
		return AskData{
			Query:          session.NormalizeInput(query),
			Response:       msg.Content,
			Type:           msg.Type.String(),
			ConversationID: sess.ConversationID(),
		}, nil
	})
}

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// answerRenderer returns the renderer for assistant text, or nil for plain
// output.
func answerRenderer(env *Env, args Args) components.MarkdownRenderer {
	if args.NoMarkdown || !env.Config.UI.Markdown {
		return nil
	}
	if env.Renderer != nil {
		return env.Renderer
	}
	if !IsStdoutTTY() {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()-4),
	)
	if err != nil {
		env.Logger.Debug("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	env.Renderer = r
	return r
}

// renderContent renders assistant text, falling back to the raw content.
func renderContent(env *Env, args Args, content string) string {
	r := answerRenderer(env, args)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// printMessage writes one assistant or error message.
func printMessage(w io.Writer, env *Env, args Args, msg model.Message) {
	switch msg.Type {
	case model.TypeError:
		fmt.Fprintln(w, ErrorStyle.Render(msg.Content))
	case model.TypeAssistant:
		if !args.Quiet {
			fmt.Fprintln(w, AssistantStyle.Render(msg.Type.DisplayName()+":"))
		}
		fmt.Fprintln(w, renderContent(env, args, msg.Content))
	default:
		fmt.Fprintln(w, msg.Content)
	}
}
