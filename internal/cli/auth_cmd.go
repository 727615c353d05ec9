// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maitre-ia/sumy-tui/internal/auth"
)

// devTokenTTL is the lifetime of tokens minted by "login --dev".
const devTokenTTL = 24 * time.Hour

// loginData is the payload of "login".
type loginData struct {
	Identity WhoamiData `json:"identity"`
	Token    string     `json:"token,omitempty"`
}

// HandleLogin verifies an identity token and stores the identity. With
// --dev it mints the token itself from the configured secret.
func HandleLogin(ctx context.Context, env *Env, args Args) error {
	parser := NewArgParser(args.Raw)

	token := parser.Flag("token")
	if token == "" {
		token = parser.Positional(0)
	}

	var minted string
	if uid := strings.TrimSpace(parser.Flag("dev")); uid != "" {
		tok, err := env.Auth.Issue(auth.Identity{
			UID:         uid,
			Email:       parser.Flag("email"),
			DisplayName: parser.Flag("name"),
		}, devTokenTTL)
		if err != nil {
			return err
		}
		token, minted = tok, tok
	}

	if strings.TrimSpace(token) == "" {
		return ErrMissingArgument("token", "sumy login --token <id-token>")
	}

	return OutputJSON(env.Out, args.JSON, "login", func() (interface{}, error) {
		id, err := env.Auth.SignIn(ctx, token)
		if err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintln(env.Out, SuccessStyle.Render("Sesión iniciada como "+id.Name()))
		}
		return loginData{Identity: whoami(env, id), Token: minted}, nil
	})
}

// HandleLogout forgets the stored identity.
func HandleLogout(ctx context.Context, env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "logout", func() (interface{}, error) {
		if err := env.Auth.SignOut(ctx); err != nil {
			return nil, err
		}
		if !args.JSON {
			fmt.Fprintln(env.Out, "Sesión cerrada.")
		}
		return map[string]bool{"signed_out": true}, nil
	})
}

// HandleWhoami prints the signed-in user.
func HandleWhoami(ctx context.Context, env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "whoami", func() (interface{}, error) {
		id, err := env.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		data := whoami(env, id)
		if !args.JSON {
			fmt.Fprintln(env.Out, RenderField("Usuario", id.Name()))
			fmt.Fprintln(env.Out, RenderField("UID", id.UID))
			if id.Email != "" {
				fmt.Fprintln(env.Out, RenderField("Email", id.Email))
			}
			if !args.Quiet {
				fmt.Fprintln(env.Out, DimStyle.Render(data.IdentityPath))
			}
		}
		return data, nil
	})
}

func whoami(env *Env, id *auth.Identity) WhoamiData {
	return WhoamiData{
		UID:          id.UID,
		Email:        id.Email,
		DisplayName:  id.DisplayName,
		IdentityPath: env.Auth.Path(),
	}
}
