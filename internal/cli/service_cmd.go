// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maitre-ia/sumy-tui/internal/sumiller"
	"github.com/maitre-ia/sumy-tui/internal/util"
)

// contextPreviewWidth bounds remembered queries in "context" output.
const contextPreviewWidth = 60

// =============================================================================
// HEALTH / STATS
// =============================================================================

// HandleHealth checks GET /health. An unhealthy answer is an error.
func HandleHealth(ctx context.Context, env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "health", func() (interface{}, error) {
		h, err := env.Client.Health(ctx)
		if err != nil {
			return nil, err
		}
		if !h.Healthy() {
			return nil, NewCommandError("health", "check", "service reported status "+strconv.Quote(h.Status), nil)
		}
		if !args.JSON {
			fmt.Fprintln(env.Out, SuccessStyle.Render("[OK]")+" "+h.Service+" "+h.Status)
			if !args.Quiet && h.Timestamp != "" {
				fmt.Fprintln(env.Out, DimStyle.Render(h.Timestamp))
			}
		}
		return h, nil
	})
}

// HandleStats prints GET /stats.
func HandleStats(ctx context.Context, env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "stats", func() (interface{}, error) {
		st, err := env.Client.Stats(ctx)
		if err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintln(env.Out, TitleStyle.Render(st.ServiceName))
			fmt.Fprintln(env.Out, RenderField("Modelo", st.Model))
			fmt.Fprintln(env.Out, RenderField("RAG", yesNo(st.RAGServiceEnabled)))
			fmt.Fprintln(env.Out, RenderField("Conversaciones", strconv.Itoa(st.TotalConversations)))
			fmt.Fprintln(env.Out, RenderField("Usuarios", strconv.Itoa(st.UniqueUsers)))
			fmt.Fprintln(env.Out, RenderField("Valoraciones", strconv.Itoa(st.TotalRatings)))
			fmt.Fprintln(env.Out, RenderField("Base de datos", strconv.FormatFloat(st.DatabaseSizeKB, 'f', 1, 64)+" KB"))
		}
		return st, nil
	})
}

// =============================================================================
// USER CONTEXT
// =============================================================================

// HandleContext prints what the service remembers about the user.
func HandleContext(ctx context.Context, env *Env, args Args) error {
	id, err := env.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return OutputJSON(env.Out, args.JSON, "context", func() (interface{}, error) {
		uc, err := env.Client.UserContext(ctx, id.UID)
		if err != nil {
			return nil, err
		}
		if uc.Error != "" {
			return nil, NewCommandError("context", "load", uc.Error, nil)
		}
		if !args.JSON {
			printUserContext(env, uc)
		}
		return uc, nil
	})
}

func printUserContext(env *Env, uc *sumiller.UserContext) {
	w := env.Out

	fmt.Fprintln(w, TitleStyle.Render("Preferencias"))
	if len(uc.Preferences) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  (ninguna)"))
	}
	keys := make([]string, 0, len(uc.Preferences))
	for k := range uc.Preferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(w, "  "+RenderField(k, fmt.Sprint(uc.Preferences[k])))
	}

	fmt.Fprintln(w, TitleStyle.Render("Vinos favoritos"))
	if len(uc.FavoriteWines) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  (ninguno)"))
	}
	for _, fw := range uc.FavoriteWines {
		fmt.Fprintln(w, "  "+RenderField(fw.WineName, strconv.FormatFloat(fw.AvgRating, 'f', 1, 64)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Consultas recientes"))
	if len(uc.RecentConversations) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  (ninguna)"))
	}
	for _, ex := range uc.RecentConversations {
		fmt.Fprintf(w, "  %s %s\n",
			DimStyle.Render(ex.Timestamp),
			util.TruncateWidth(util.OneLine(ex.Query), contextPreviewWidth))
	}
}

// =============================================================================
// RATINGS / PREFERENCES
// =============================================================================

// HandleRate records a rating: sumy rate <wine name...> <1-5> [--notes text].
func HandleRate(ctx context.Context, env *Env, args Args) error {
	const usage = `sumy rate "Marqués de Riscal Reserva" 4 --notes "muy equilibrado"`

	parser := NewArgParser(args.Raw)
	pos := parser.PositionalFrom(0)
	if len(pos) < 2 {
		return ErrMissingArgument("wine and rating", usage)
	}

	ratingArg := pos[len(pos)-1]
	rating, err := strconv.Atoi(ratingArg)
	if err != nil || rating < sumiller.MinRating || rating > sumiller.MaxRating {
		return &ValidationError{Field: "rating", Value: ratingArg, Reason: "must be an integer from 1 to 5", Example: usage}
	}
	wine := strings.TrimSpace(strings.Join(pos[:len(pos)-1], " "))
	if wine == "" {
		return ErrMissingArgument("wine", usage)
	}

	id, err := env.CurrentUser(ctx)
	if err != nil {
		return err
	}

	return OutputJSON(env.Out, args.JSON, "rate", func() (interface{}, error) {
		ack, err := env.Client.RateWine(ctx, sumiller.WineRating{
			WineName: wine,
			Rating:   rating,
			Notes:    parser.Flag("notes"),
			UserID:   id.UID,
		})
		if err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintf(env.Out, "%s %s %s\n", SuccessStyle.Render("[OK]"), wine, stars(rating))
			if !args.Quiet && ack.Message != "" {
				fmt.Fprintln(env.Out, DimStyle.Render(ack.Message))
			}
		}
		return ack, nil
	})
}

// HandlePrefs updates preferences: sumy prefs key=value [key=value...].
func HandlePrefs(ctx context.Context, env *Env, args Args) error {
	const usage = "sumy prefs tipo=tinto presupuesto=20 ecologico=true"

	parser := NewArgParser(args.Raw)
	pairs := parser.PositionalFrom(0)
	if len(pairs) == 0 {
		return ErrMissingArgument("key=value", usage)
	}

	prefs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return ErrInvalidFormat("preference", pair, usage)
		}
		prefs[key] = ParseScalar(value)
	}

	id, err := env.CurrentUser(ctx)
	if err != nil {
		return err
	}

	return OutputJSON(env.Out, args.JSON, "prefs", func() (interface{}, error) {
		ack, err := env.Client.UpdatePreferences(ctx, id.UID, prefs)
		if err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintf(env.Out, "%s %d preferencias guardadas\n", SuccessStyle.Render("[OK]"), len(prefs))
		}
		return ack, nil
	})
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", sumiller.MaxRating-n)
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
