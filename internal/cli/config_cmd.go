// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/maitre-ia/sumy-tui/internal/config"
)

// maskedValue replaces secrets in config output.
const maskedValue = "********"

// HandleConfig shows and edits the configuration file.
//
//	sumy config show
//	sumy config get <key> [--reveal]
//	sumy config set <key> <value>
//	sumy config keys
func HandleConfig(env *Env, args Args) error {
	parser := NewArgParser(args.Raw, "reveal")
	cfg := env.Config

	switch parser.Subcommand() {
	case "", "show":
		return OutputJSON(env.Out, args.JSON, "config show", func() (interface{}, error) {
			if !args.JSON {
				if !args.Quiet && env.ConfigPath != "" {
					fmt.Fprintln(env.Out, DimStyle.Render("# "+env.ConfigPath))
				}
				fmt.Fprint(env.Out, cfg.String())
			}
			return configValues(cfg), nil
		})

	case "get":
		key := parser.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "sumy config get api.base_url")
		}
		return OutputJSON(env.Out, args.JSON, "config get", func() (interface{}, error) {
			v, err := cfg.Get(key)
			if err != nil {
				return nil, &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "sumy config keys"}
			}
			if config.IsSecret(key) && !parser.BoolFlag("reveal") && fmt.Sprint(v) != "" {
				v = maskedValue
			}
			if !args.JSON {
				fmt.Fprintln(env.Out, fmt.Sprint(v))
			}
			return map[string]interface{}{key: v}, nil
		})

	case "set":
		key, value := parser.Positional(1), strings.Join(parser.PositionalFrom(2), " ")
		if key == "" || parser.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "sumy config set api.base_url http://localhost:8000")
		}
		return OutputJSON(env.Out, args.JSON, "config set", func() (interface{}, error) {
			if err := setConfigValue(env, key, value); err != nil {
				return nil, err
			}
			if !args.JSON {
				fmt.Fprintf(env.Out, "%s %s updated\n", SuccessStyle.Render("[OK]"), key)
			}
			return map[string]string{"key": key, "path": env.ConfigPath}, nil
		})

	case "keys", "list":
		return OutputJSON(env.Out, args.JSON, "config keys", func() (interface{}, error) {
			keys := config.GetAllKeys()
			if !args.JSON {
				for _, k := range keys {
					fmt.Fprintln(env.Out, k)
				}
			}
			return keys, nil
		})
	}

	return &ValidationError{
		Field:   "config subcommand",
		Value:   parser.Subcommand(),
		Reason:  "unknown subcommand",
		Example: "sumy config show | get <key> | set <key> <value> | keys",
	}
}

// setConfigValue changes one key on a copy, validates it and saves it.
// The loaded configuration only changes when the save succeeds.
func setConfigValue(env *Env, key, value string) error {
	next := *env.Config
	if err := next.Set(key, value); err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "sumy config keys"}
	}
	if err := next.Validate(); err != nil {
		return err
	}

	if env.ConfigPath == "" {
		if err := config.Save(&next); err != nil {
			return NewCommandError("config", "set", "cannot save the configuration file", err)
		}
		env.ConfigPath, _ = config.ConfigPath()
	} else if err := config.SaveTOML(&next, env.ConfigPath); err != nil {
		return NewCommandError("config", "set", "cannot save "+env.ConfigPath, err)
	}
	*env.Config = next
	return nil
}

// configValues flattens cfg to key -> value with secrets masked.
func configValues(cfg *config.Config) map[string]interface{} {
	out := make(map[string]interface{})
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if config.IsSecret(key) && fmt.Sprint(v) != "" {
			v = maskedValue
		}
		out[key] = v
	}
	return out
}
