// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/ui/components"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// HandleHistory lists or deletes saved conversation summaries.
//
//	sumy history [list] [--limit N]
//	sumy history delete <id> [--confirm]
func HandleHistory(ctx context.Context, env *Env, args Args) error {
	parser := NewArgParser(args.Raw, "confirm")

	id, err := env.CurrentUser(ctx)
	if err != nil {
		return err
	}
	repo, err := env.History(ctx)
	if err != nil {
		return err
	}

	switch parser.Subcommand() {
	case "", "list", "ls":
		limit := 0
		if parser.HasFlag("limit") {
			if limit, err = parser.FlagInt("limit"); err != nil || limit < 0 {
				return ErrInvalidFormat("limit", parser.Flag("limit"), "sumy history --limit 10")
			}
		}
		return OutputJSON(env.Out, args.JSON, "history", func() (interface{}, error) {
			sums, err := repo.LoadConversationHistory(ctx, id.UID)
			if err != nil {
				return nil, err
			}
			if limit > 0 && len(sums) > limit {
				sums = sums[:limit]
			}
			if !args.JSON {
				printSummaries(env.Out, sums, time.Now())
			}
			return sums, nil
		})

	case "delete", "rm":
		convID := parser.Positional(1)
		if convID == "" {
			return ErrMissingArgument("conversation id", "sumy history delete <id>")
		}
		ok, err := RequireConfirmation(env, "eliminar la conversación "+convID, ConfirmationOptions{
			ConfirmFlag: parser.BoolFlag("confirm"),
			JSONMode:    args.JSON,
		})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Out, "Cancelado.")
			return nil
		}
		return OutputJSON(env.Out, args.JSON, "history delete", func() (interface{}, error) {
			err := repo.DeleteConversation(ctx, id.UID, convID)
			if errors.Is(err, history.ErrNotFound) {
				return nil, &NotFoundError{Resource: "conversation", ID: convID}
			}
			if err != nil {
				return nil, err
			}
			if !args.JSON {
				fmt.Fprintln(env.Out, SuccessStyle.Render("[OK]")+" conversación eliminada")
			}
			return map[string]string{"deleted": convID}, nil
		})
	}

	return &ValidationError{
		Field:   "history subcommand",
		Value:   parser.Subcommand(),
		Reason:  "unknown subcommand",
		Example: "sumy history list | sumy history delete <id>",
	}
}

// printSummaries writes one line per conversation, newest first.
func printSummaries(w io.Writer, sums []history.ConversationSummary, now time.Time) {
	if len(sums) == 0 {
		fmt.Fprintln(w, DimStyle.Render(components.HistoryEmptyText))
		return
	}
	for _, s := range sums {
		fmt.Fprintf(w, "%s  %s  %s\n",
			PromptStyle.Render(util.PadRight(util.TruncateWidth(s.Title, history.TitleWidth), history.TitleWidth)),
			DimStyle.Render(fmt.Sprintf("%3d msgs", s.MessageCount)),
			DimStyle.Render(components.RelativeTime(s.UpdatedAt, now)))
		if s.LastMessage != "" {
			fmt.Fprintln(w, "    "+util.TruncateWidth(s.LastMessage, history.TitleWidth+20))
		}
		fmt.Fprintln(w, "    "+DimStyle.Render(s.ID))
	}
}
