// sumy - a wine sommelier chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/cli"
	"github.com/maitre-ia/sumy-tui/internal/config"
	"github.com/maitre-ia/sumy-tui/internal/logging"
	"github.com/maitre-ia/sumy-tui/internal/ui/app"
	"github.com/maitre-ia/sumy-tui/internal/ui/chat"
	"github.com/maitre-ia/sumy-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	os.Exit(run(cmd, args))
}

// run executes cmd and returns the process exit code.
func run(cmd cli.Command, args cli.Args) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cmd.NeedsConfig() {
		env := &cli.Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
		return finish(cli.Run(ctx, cmd, args, env), args)
	}

	// ==========================================================================
	// CONFIGURATION
	// ==========================================================================
	cfg, path, err := loadConfig(args.ConfigPath)
	if err != nil {
		return finish(err, args)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		log = zap.NewNop()
	}
	defer log.Sync()

	env := cli.NewEnv(cfg, path, log)
	defer env.Close()

	log.Debug("starting",
		zap.String("command", cmd.String()),
		zap.String("version", Version),
		zap.String("api", cfg.API.BaseURL),
		zap.String("history", cfg.History.Backend))

	if cmd == cli.CmdTUI {
		return finish(runTUI(ctx, env), args)
	}
	return finish(cli.Run(ctx, cmd, args, env), args)
}

// loadConfig reads the configuration file and returns it with its path.
func loadConfig(override string) (*config.Config, string, error) {
	path := override
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// finish prints err once and maps it to an exit code.
func finish(err error, args cli.Args) int {
	if err == nil {
		return cli.ExitSuccess
	}
	cli.DisplayError(os.Stderr, err, args.JSON)
	return cli.GetExitCode(err)
}

// =============================================================================
// TUI
// =============================================================================

// runTUI starts the chat interface behind the login gate.
func runTUI(ctx context.Context, env *cli.Env) error {
	log := env.Logger

	sess, err := env.NewSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	user, err := env.Auth.CurrentUser(ctx)
	if err != nil {
		log.Warn("stored identity unreadable, showing sign-in", zap.Error(err))
		user = nil
	}

	theme := styles.NewTheme()
	c := chat.New(sess, chat.Options{
		Theme:    theme,
		Markdown: env.Config.UI.Markdown,
		Logger:   log,
	})

	opts := app.Options{
		Theme:  theme,
		User:   user,
		SignIn: env.Auth.SignIn,
		Logger: log,
	}
	watcher, err := auth.NewWatcher(env.Auth.FileProvider, log)
	if err != nil {
		log.Warn("identity watcher disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		opts.Changes = watcher.Changes()
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if env.Config.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(app.New(c, opts), programOpts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run sumy: %w", err)
	}
	return nil
}
