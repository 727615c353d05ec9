// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

// =============================================================================
// STATE
// =============================================================================

// Phase is the coarse state of the chat session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the session state. Loading and input enablement are derived from
// Phase, so a loading session can never accept input.
type State struct {
	Phase     Phase
	LastError string

	// Seq identifies the most recent request. Results carrying any other
	// sequence number are stale.
	Seq uint64

	// Pending is the query text of the in-flight request.
	Pending string
}

// IsLoading reports whether a request is in flight.
func (s State) IsLoading() bool {
	return s.Phase == PhaseSending
}

// InputEnabled reports whether the user may submit.
func (s State) InputEnabled() bool {
	return !s.IsLoading()
}

// =============================================================================
// SUBMIT POLICY
// =============================================================================

// SubmitPolicy decides what a submit does while a request is in flight.
type SubmitPolicy string

const (
	// SubmitReject ignores the submit. This is the default.
	SubmitReject SubmitPolicy = "reject"

	// SubmitCancel cancels the in-flight request and sends the new one.
	SubmitCancel SubmitPolicy = "cancel"
)

// ParseSubmitPolicy parses a policy name. The empty string means reject.
func ParseSubmitPolicy(s string) (SubmitPolicy, error) {
	switch SubmitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SubmitReject:
		return SubmitReject, nil
	case SubmitCancel:
		return SubmitCancel, nil
	}
	return "", fmt.Errorf("unknown submit policy %q (want reject or cancel)", s)
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is an input to the state machine.
type Event interface {
	isEvent()
}

// Submit is the user sending text. History is the conversation before this
// message; MessageID and At stamp the user message.
type Submit struct {
	Text      string
	UserID    string
	History   []model.Message
	MessageID string
	At        time.Time
}

// QuerySucceeded reports the answer to request Seq.
type QuerySucceeded struct {
	Seq       uint64
	Response  *sumiller.QueryResponse
	MessageID string
	At        time.Time
}

// QueryFailed reports the failure of request Seq.
type QueryFailed struct {
	Seq       uint64
	Err       error
	MessageID string
	At        time.Time
}

// Reset clears the conversation and returns to idle.
type Reset struct{}

func (Submit) isEvent()         {}
func (QuerySucceeded) isEvent() {}
func (QueryFailed) isEvent()    {}
func (Reset) isEvent()          {}

// =============================================================================
// EFFECTS
// =============================================================================

// Effect is work requested by a transition.
type Effect interface {
	isEffect()
}

// AppendMessage appends Message to the conversation store.
type AppendMessage struct {
	Message model.Message
}

// LoadingChanged toggles the loading indicator and input enablement.
type LoadingChanged struct {
	Loading bool
}

// SendQuery starts request Seq.
type SendQuery struct {
	Seq     uint64
	Request sumiller.QueryRequest
}

// CancelQuery aborts request Seq.
type CancelQuery struct {
	Seq uint64
}

// TraceResponse records the service metadata of an answer.
type TraceResponse struct {
	Query    string
	Response string
	Metadata sumiller.Metadata
}

// PersistConversation saves the conversation summary.
type PersistConversation struct{}

// ClearConversation empties the conversation store.
type ClearConversation struct{}

func (AppendMessage) isEffect()       {}
func (LoadingChanged) isEffect()      {}
func (SendQuery) isEffect()           {}
func (CancelQuery) isEffect()         {}
func (TraceResponse) isEffect()       {}
func (PersistConversation) isEffect() {}
func (ClearConversation) isEffect()   {}

// =============================================================================
// MACHINE
// =============================================================================

// Machine is the chat session reducer. It holds configuration only and is
// safe to copy.
type Machine struct {
	Policy SubmitPolicy
}

// Reduce returns the next state and the effects of applying e to s. It never
// mutates its inputs and performs no I/O.
func (m Machine) Reduce(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case Submit:
		return m.submit(s, ev)
	case QuerySucceeded:
		return m.succeeded(s, ev)
	case QueryFailed:
		return m.failed(s, ev)
	case Reset:
		return m.reset(s)
	}
	return s, nil
}

func (m Machine) submit(s State, ev Submit) (State, []Effect) {
	text := NormalizeInput(ev.Text)
	if text == "" {
		return s, nil
	}

	var effects []Effect
	if s.IsLoading() {
		if m.Policy != SubmitCancel {
			return s, nil
		}
		effects = append(effects, CancelQuery{Seq: s.Seq})
	} else {
		effects = append(effects, LoadingChanged{Loading: true})
	}

	next := State{
		Phase:     PhaseSending,
		LastError: s.LastError,
		Seq:       s.Seq + 1,
		Pending:   text,
	}

	user := model.Message{
		ID:        ev.MessageID,
		Type:      model.TypeUser,
		Content:   text,
		Timestamp: ev.At,
	}

	// The user message is appended before the request is sent so a slow
	// answer can never reorder it.
	effects = append([]Effect{AppendMessage{Message: user}}, effects...)
	effects = append(effects, SendQuery{
		Seq: next.Seq,
		Request: sumiller.QueryRequest{
			Query:               text,
			UserID:              ev.UserID,
			ConversationHistory: model.QueryHistory(ev.History),
		},
	})
	return next, effects
}

func (m Machine) succeeded(s State, ev QuerySucceeded) (State, []Effect) {
	if !s.IsLoading() || ev.Seq != s.Seq {
		return s, nil
	}

	var resp sumiller.QueryResponse
	if ev.Response != nil {
		resp = *ev.Response
	}

	assistant := model.Message{
		ID:        ev.MessageID,
		Type:      model.TypeAssistant,
		Content:   resp.Response,
		Timestamp: ev.At,
	}

	next := State{Phase: PhaseIdle, Seq: s.Seq}
	return next, []Effect{
		AppendMessage{Message: assistant},
		LoadingChanged{Loading: false},
		TraceResponse{Query: s.Pending, Response: resp.Response, Metadata: resp.Metadata},
		PersistConversation{},
	}
}

func (m Machine) failed(s State, ev QueryFailed) (State, []Effect) {
	if !s.IsLoading() || ev.Seq != s.Seq {
		return s, nil
	}

	text := DescribeError(ev.Err)
	errMsg := model.Message{
		ID:        ev.MessageID,
		Type:      model.TypeError,
		Content:   text,
		Timestamp: ev.At,
	}

	next := State{Phase: PhaseError, LastError: text, Seq: s.Seq}
	return next, []Effect{
		AppendMessage{Message: errMsg},
		LoadingChanged{Loading: false},
	}
}

func (m Machine) reset(s State) (State, []Effect) {
	var effects []Effect
	if s.IsLoading() {
		effects = append(effects, CancelQuery{Seq: s.Seq}, LoadingChanged{Loading: false})
	}
	effects = append(effects, ClearConversation{})
	return State{Phase: PhaseIdle, Seq: s.Seq}, effects
}

// NormalizeInput trims text and converts it to Unicode NFC so that composed
// and decomposed accents are sent identically.
func NormalizeInput(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
