// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/config"
	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/session"
	"github.com/maitre-ia/sumy-tui/internal/sumiller"
	"github.com/maitre-ia/sumy-tui/internal/trace"
	"github.com/maitre-ia/sumy-tui/internal/ui/components"
)

// ServiceClient is the part of the query service the commands use.
type ServiceClient interface {
	session.QueryClient
	Health(ctx context.Context) (*sumiller.HealthStatus, error)
	Stats(ctx context.Context) (*sumiller.ServiceStats, error)
	UserContext(ctx context.Context, userID string) (*sumiller.UserContext, error)
	RateWine(ctx context.Context, rating sumiller.WineRating) (*sumiller.Ack, error)
	UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (*sumiller.Ack, error)
}

// Env carries the collaborators every command shares. The TUI is wired
// from the same Env.
type Env struct {
	Config     *config.Config
	ConfigPath string

	Client ServiceClient
	Auth   *auth.TokenProvider
	Tracer session.Tracer
	Logger *zap.Logger

	// Renderer formats answers; nil picks glamour on a terminal and plain
	// text elsewhere.
	Renderer components.MarkdownRenderer

	// NewLineReader opens the REPL input; nil uses liner.
	NewLineReader func() (LineReader, error)

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Interactive reports whether In is a terminal that may be prompted.
	Interactive bool

	history history.Repository
}

// NewEnv wires the service client, identity provider and tracer from cfg.
func NewEnv(cfg *config.Config, configPath string, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	client := sumiller.NewClientWithConfig(&sumiller.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		UserAgent:         "sumy/" + Version,
	})
	files := auth.NewFileProvider(cfg.Auth.IdentityPath)

	return &Env{
		Config:      cfg,
		ConfigPath:  configPath,
		Client:      client,
		Auth:        auth.NewTokenProvider(files, cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer),
		Tracer:      trace.New(log),
		Logger:      log,
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Interactive: IsTTY(),
	}
}

// History opens the configured summary store on first use.
func (e *Env) History(ctx context.Context) (history.Repository, error) {
	if e.history != nil {
		return e.history, nil
	}
	repo, err := history.Open(ctx, history.Options{
		Backend:          e.Config.History.Backend,
		SQLitePath:       e.Config.History.SQLitePath,
		RedisURL:         e.Config.History.RedisURL,
		Dir:              e.Config.History.Dir,
		MaxConversations: e.Config.History.MaxConversations,
	})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	e.history = repo
	return repo, nil
}

// NewSession builds a chat session with every collaborator attached. A
// summary store that cannot be opened is logged and left out.
func (e *Env) NewSession(ctx context.Context) (*session.Session, error) {
	policy, err := session.ParseSubmitPolicy(e.Config.Session.SubmitPolicy)
	if err != nil {
		return nil, &ValidationError{Field: "session.submit_policy", Value: e.Config.Session.SubmitPolicy, Reason: err.Error()}
	}

	opts := session.Options{
		Client: e.Client,
		Tracer: e.Tracer,
		Policy: policy,
		Logger: e.Logger,
	}
	if repo, err := e.History(ctx); err != nil {
		e.Logger.Warn("history disabled", zap.Error(err))
	} else {
		opts.History = repo
	}
	return session.New(opts)
}

// CurrentUser returns the signed-in identity or ErrNotSignedIn.
func (e *Env) CurrentUser(ctx context.Context) (*auth.Identity, error) {
	id, err := e.Auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !auth.IsAuthenticated(id) {
		return nil, ErrNotSignedIn
	}
	return id, nil
}

// Close releases the summary store.
func (e *Env) Close() error {
	if e.history == nil {
		return nil
	}
	err := e.history.Close()
	e.history = nil
	return err
}
