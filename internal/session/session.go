// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/maitre-ia/sumy-tui/internal/auth"
	"github.com/maitre-ia/sumy-tui/internal/history"
	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// QueryClient sends one query to the service.
type QueryClient interface {
	SendMessage(ctx context.Context, req sumiller.QueryRequest) (*sumiller.QueryResponse, error)
}

// Tracer records the metadata of each answer. Implementations must not panic.
type Tracer interface {
	Log(query, response string, md sumiller.Metadata)
}

// Job is asynchronous work started by a transition. It runs off the UI loop
// and returns the event to dispatch next, or nil.
type Job func() Event

// persistTimeout bounds one summary save.
const persistTimeout = 5 * time.Second

// ErrNoClient is returned by New without a query client.
var ErrNoClient = errors.New("session: query client is required")

// =============================================================================
// SESSION
// =============================================================================

// Options configures a Session.
type Options struct {
	Client  QueryClient        // required
	Store   model.Store        // default: model.NewConversation()
	Tracer  Tracer             // optional
	History history.Repository // optional
	Policy  SubmitPolicy
	Logger  *zap.Logger

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// Session is the explicit context of one chat: it owns the state, the
// conversation and the collaborators. Dispatch, Submit and Reset must be
// called from a single goroutine; Jobs may run anywhere.
type Session struct {
	machine Machine
	state   State

	store   model.Store
	client  QueryClient
	tracer  Tracer
	history history.Repository
	log     *zap.Logger

	user           *auth.Identity
	conversationID string
	lastErr        error
	startedAt      time.Time

	ctx     context.Context
	stop    context.CancelFunc
	cancels map[uint64]context.CancelFunc

	now   func() time.Time
	newID func() string
}

// New creates a session in the idle phase.
func New(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, ErrNoClient
	}
	if opts.Store == nil {
		opts.Store = model.NewConversation()
	}
	if opts.Policy == "" {
		opts.Policy = SubmitReject
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = model.NewID
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		machine: Machine{Policy: opts.Policy},
		store:   opts.Store,
		client:  opts.Client,
		tracer:  opts.Tracer,
		history: opts.History,
		log:     opts.Logger.Named("session"),
		ctx:     ctx,
		stop:    stop,
		cancels: make(map[uint64]context.CancelFunc),
		now:     opts.Now,
		newID:   opts.NewID,
	}
	s.startConversation()
	return s, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Policy returns how a submit during a request is handled.
func (s *Session) Policy() SubmitPolicy {
	return s.machine.Policy
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []model.Message {
	return s.store.List()
}

// ConversationID identifies the current conversation in the history store.
func (s *Session) ConversationID() string {
	return s.conversationID
}

// User returns the identity queries are sent for.
func (s *Session) User() *auth.Identity {
	return s.user
}

// SetUser changes the identity. Switching to a different user resets the
// conversation.
func (s *Session) SetUser(id *auth.Identity) []Job {
	prev := s.user
	s.user = id
	if prev != nil && (id == nil || prev.UID != id.UID) {
		return s.Dispatch(Reset{})
	}
	return nil
}

// Submit dispatches the user's text. It does nothing without a signed-in
// user.
func (s *Session) Submit(text string) []Job {
	if !auth.IsAuthenticated(s.user) {
		s.log.Warn("submit without identity ignored")
		return nil
	}
	return s.Dispatch(Submit{
		Text:    text,
		UserID:  s.user.UID,
		History: s.store.List(),
	})
}

// Reset clears the conversation and cancels any request in flight.
func (s *Session) Reset() []Job {
	return s.Dispatch(Reset{})
}

// Dispatch applies e, performs the synchronous effects and returns the
// asynchronous ones as jobs.
func (s *Session) Dispatch(e Event) []Job {
	e = s.stamp(e)
	s.release(e)

	prev := s.state
	next, effects := s.machine.Reduce(s.state, e)
	s.state = next
	s.recordErr(prev, e)

	if prev.Phase != next.Phase {
		s.log.Debug("transition",
			zap.Stringer("from", prev.Phase),
			zap.Stringer("to", next.Phase),
			zap.Uint64("seq", next.Seq))
	}

	var jobs []Job
	for _, eff := range effects {
		if job := s.perform(eff); job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// recordErr keeps the cause of the latest applied failure.
func (s *Session) recordErr(prev State, e Event) {
	switch ev := e.(type) {
	case Submit:
		if s.state.Seq != prev.Seq {
			s.lastErr = nil
		}
	case QueryFailed:
		if prev.IsLoading() && ev.Seq == prev.Seq {
			s.lastErr = ev.Err
		}
	case Reset:
		s.lastErr = nil
	}
}

// LastErr returns the error behind the latest failed query, or nil once a
// new query starts or the conversation is reset.
func (s *Session) LastErr() error {
	return s.lastErr
}

// stamp fills the message id and time the reducer needs to stay pure.
func (s *Session) stamp(e Event) Event {
	switch ev := e.(type) {
	case Submit:
		if ev.MessageID == "" {
			ev.MessageID = s.newID()
		}
		if ev.At.IsZero() {
			ev.At = s.now()
		}
		return ev
	case QuerySucceeded:
		if ev.MessageID == "" {
			ev.MessageID = s.newID()
		}
		if ev.At.IsZero() {
			ev.At = s.now()
		}
		return ev
	case QueryFailed:
		if ev.MessageID == "" {
			ev.MessageID = s.newID()
		}
		if ev.At.IsZero() {
			ev.At = s.now()
		}
		return ev
	}
	return e
}

// perform executes one effect.
func (s *Session) perform(eff Effect) Job {
	switch e := eff.(type) {
	case AppendMessage:
		s.store.Append(e.Message)

	case LoadingChanged:
		s.log.Debug("loading changed", zap.Bool("loading", e.Loading))

	case SendQuery:
		return s.sendJob(e)

	case CancelQuery:
		if cancel, ok := s.cancels[e.Seq]; ok {
			cancel()
			delete(s.cancels, e.Seq)
			s.log.Info("query cancelled", zap.Uint64("seq", e.Seq))
		}

	case TraceResponse:
		s.trace(e)

	case PersistConversation:
		return s.persistJob()

	case ClearConversation:
		s.store.Clear()
		s.startConversation()
	}
	return nil
}

func (s *Session) sendJob(e SendQuery) Job {
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancels[e.Seq] = cancel
	client := s.client
	log := s.log

	log.Info("query sent",
		zap.Uint64("seq", e.Seq),
		zap.Int("history", len(e.Request.ConversationHistory)))

	return func() Event {
		defer cancel()
		start := time.Now()
		resp, err := client.SendMessage(ctx, e.Request)
		if err != nil {
			log.Warn("query failed",
				zap.Uint64("seq", e.Seq),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return QueryFailed{Seq: e.Seq, Err: err}
		}
		log.Info("query answered",
			zap.Uint64("seq", e.Seq),
			zap.Duration("elapsed", time.Since(start)))
		return QuerySucceeded{Seq: e.Seq, Response: resp}
	}
}

// trace calls the tracer, discarding any panic.
func (s *Session) trace(e TraceResponse) {
	if s.tracer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("tracer panicked", zap.Any("panic", r))
		}
	}()
	s.tracer.Log(e.Query, e.Response, e.Metadata)
}

// persistJob snapshots the conversation now and saves it off the loop.
// Failures are logged only.
func (s *Session) persistJob() Job {
	if s.history == nil || !auth.IsAuthenticated(s.user) {
		return nil
	}
	sum := history.Summarize(s.conversationID, s.user.UID, s.store.List(), s.startedAt, s.now())
	repo := s.history
	log := s.log
	ctx := s.ctx

	return func() Event {
		ctx, cancel := context.WithTimeout(ctx, persistTimeout)
		defer cancel()
		if err := repo.SaveConversation(ctx, sum); err != nil {
			log.Warn("save conversation summary", zap.String("conversation", sum.ID), zap.Error(err))
		}
		return nil
	}
}

func (s *Session) startConversation() {
	s.conversationID = model.NewConversationID()
	s.startedAt = s.now()
}

// release drops the cancel func of a finished request.
func (s *Session) release(e Event) {
	var seq uint64
	switch ev := e.(type) {
	case QuerySucceeded:
		seq = ev.Seq
	case QueryFailed:
		seq = ev.Seq
	default:
		return
	}
	if cancel, ok := s.cancels[seq]; ok {
		cancel()
		delete(s.cancels, seq)
	}
}

// Summaries loads the signed-in user's saved conversations, newest first.
func (s *Session) Summaries(ctx context.Context) ([]history.ConversationSummary, error) {
	return s.SummaryLoader()(ctx)
}

// SummaryLoader captures the current user and store so the load can run off
// the session goroutine.
func (s *Session) SummaryLoader() func(context.Context) ([]history.ConversationSummary, error) {
	repo, user := s.history, s.user
	return func(ctx context.Context) ([]history.ConversationSummary, error) {
		if repo == nil || !auth.IsAuthenticated(user) {
			return []history.ConversationSummary{}, nil
		}
		return repo.LoadConversationHistory(ctx, user.UID)
	}
}

// Close cancels every request in flight.
func (s *Session) Close() {
	s.stop()
	for seq, cancel := range s.cancels {
		cancel()
		delete(s.cancels, seq)
	}
}

// Run drives jobs to completion on the calling goroutine, dispatching each
// resulting event. It is the synchronous loop used by the CLI.
func (s *Session) Run(jobs []Job) {
	for len(jobs) > 0 {
		job := jobs[0]
		jobs = jobs[1:]
		if ev := job(); ev != nil {
			jobs = append(jobs, s.Dispatch(ev)...)
		}
	}
}

// Ask submits text and waits for the outcome. It returns the assistant or
// error message appended for this query.
func (s *Session) Ask(text string) (model.Message, bool) {
	before := s.store.Len()
	s.Run(s.Submit(text))

	msgs := s.store.List()
	for i := len(msgs) - 1; i >= before; i-- {
		if msgs[i].Type != model.TypeUser {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}
