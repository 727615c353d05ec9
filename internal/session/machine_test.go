// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-ia/sumy-tui/internal/model"
	"github.com/maitre-ia/sumy-tui/internal/sumiller"
)

var testTime = time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)

func submit(text string) Submit {
	return Submit{Text: text, UserID: "uid", MessageID: "msg_u", At: testTime}
}

func appended(effects []Effect) []model.Message {
	var out []model.Message
	for _, e := range effects {
		if a, ok := e.(AppendMessage); ok {
			out = append(out, a.Message)
		}
	}
	return out
}

func loadingToggles(effects []Effect) []bool {
	var out []bool
	for _, e := range effects {
		if l, ok := e.(LoadingChanged); ok {
			out = append(out, l.Loading)
		}
	}
	return out
}

func findSend(t *testing.T, effects []Effect) SendQuery {
	t.Helper()
	for _, e := range effects {
		if sq, ok := e.(SendQuery); ok {
			return sq
		}
	}
	t.Fatal("no SendQuery effect")
	return SendQuery{}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestReduce_SubmitFromIdleAndError(t *testing.T) {
	starts := map[string]State{
		"idle":  {Phase: PhaseIdle},
		"error": {Phase: PhaseError, LastError: "Error de conexión", Seq: 4},
	}

	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			next, effects := Machine{}.Reduce(start, submit("  ¿Un tinto para carne?  "))

			assert.Equal(t, PhaseSending, next.Phase)
			assert.True(t, next.IsLoading())
			assert.False(t, next.InputEnabled())
			assert.Equal(t, start.Seq+1, next.Seq)

			msgs := appended(effects)
			require.Len(t, msgs, 1, "exactly one user message")
			assert.Equal(t, model.TypeUser, msgs[0].Type)
			assert.Equal(t, "¿Un tinto para carne?", msgs[0].Content)
			assert.Equal(t, "msg_u", msgs[0].ID)
			assert.Equal(t, testTime, msgs[0].Timestamp)

			_, first := effects[0].(AppendMessage)
			assert.True(t, first, "user message is appended before anything else")
			assert.Equal(t, []bool{true}, loadingToggles(effects))

			sq := findSend(t, effects)
			assert.Equal(t, next.Seq, sq.Seq)
			assert.Equal(t, "¿Un tinto para carne?", sq.Request.Query)
			assert.Equal(t, "uid", sq.Request.UserID)
		})
	}
}

func TestReduce_EmptySubmitIgnored(t *testing.T) {
	states := []State{
		{Phase: PhaseIdle},
		{Phase: PhaseError, LastError: "Error", Seq: 2},
		{Phase: PhaseSending, Seq: 3, Pending: "q"},
	}
	inputs := []string{"", " ", "\n\t  ", "\u00a0"}

	for _, s := range states {
		for _, in := range inputs {
			next, effects := Machine{Policy: SubmitCancel}.Reduce(s, submit(in))
			assert.Equal(t, s, next, "state must not change for %q", in)
			assert.Empty(t, effects, "no effects for %q", in)
		}
	}
}

func TestReduce_SubmitWhileSendingRejected(t *testing.T) {
	s := State{Phase: PhaseSending, Seq: 1, Pending: "primera"}
	next, effects := Machine{Policy: SubmitReject}.Reduce(s, submit("segunda"))

	assert.Equal(t, s, next)
	assert.Nil(t, effects)

	// The zero policy behaves as reject
	next, effects = Machine{}.Reduce(s, submit("segunda"))
	assert.Equal(t, s, next)
	assert.Nil(t, effects)
}

func TestReduce_SubmitWhileSendingCancels(t *testing.T) {
	s := State{Phase: PhaseSending, Seq: 1, Pending: "primera"}
	next, effects := Machine{Policy: SubmitCancel}.Reduce(s, submit("segunda"))

	assert.Equal(t, PhaseSending, next.Phase)
	assert.Equal(t, uint64(2), next.Seq)
	assert.Equal(t, "segunda", next.Pending)

	assert.Contains(t, effects, CancelQuery{Seq: 1})
	assert.Empty(t, loadingToggles(effects), "loading stays on; no toggle")
	assert.Len(t, appended(effects), 1)
	assert.Equal(t, uint64(2), findSend(t, effects).Seq)
}

func TestReduce_SubmitNormalizesNFC(t *testing.T) {
	_, effects := Machine{}.Reduce(State{}, submit("cafe\u0301 y vino"))
	assert.Equal(t, "café y vino", findSend(t, effects).Request.Query)
	assert.Equal(t, "café y vino", appended(effects)[0].Content)
}

func TestReduce_SubmitHistoryExcludesErrors(t *testing.T) {
	history := []model.Message{
		model.NewUserMessage("hola"),
		model.NewErrorMessage("Error de conexión"),
		model.NewUserMessage("hola otra vez"),
		model.NewAssistantMessage("¡Hola!"),
	}
	ev := submit("¿Qué tal un Albariño?")
	ev.History = history

	_, effects := Machine{}.Reduce(State{}, ev)
	req := findSend(t, effects).Request

	require.Len(t, req.ConversationHistory, 3)
	for _, m := range req.ConversationHistory {
		assert.NotEqual(t, model.TypeError, m.Role)
	}
	assert.Len(t, history, 4, "input history must not be modified")
}

func TestReduce_SubmitEmptyHistoryIsNonNil(t *testing.T) {
	_, effects := Machine{}.Reduce(State{}, submit("hola"))
	assert.NotNil(t, findSend(t, effects).Request.ConversationHistory)
}

// =============================================================================
// RESULTS
// =============================================================================

func TestReduce_Success(t *testing.T) {
	s := State{Phase: PhaseSending, Seq: 3, Pending: "vino para paella", LastError: "Error anterior"}
	resp := &sumiller.QueryResponse{
		Response: "Te recomiendo...",
		Metadata: sumiller.Metadata{Classification: sumiller.ClassWineSearch, RAGUsed: true, WineResults: 2},
	}

	next, effects := Machine{}.Reduce(s, QuerySucceeded{Seq: 3, Response: resp, MessageID: "msg_a", At: testTime})

	assert.Equal(t, PhaseIdle, next.Phase)
	assert.Empty(t, next.LastError)
	assert.True(t, next.InputEnabled())

	msgs := appended(effects)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.TypeAssistant, msgs[0].Type)
	assert.Equal(t, "Te recomiendo...", msgs[0].Content)

	assert.Equal(t, []bool{false}, loadingToggles(effects))
	assert.Contains(t, effects, TraceResponse{Query: "vino para paella", Response: "Te recomiendo...", Metadata: resp.Metadata})
	assert.Contains(t, effects, PersistConversation{})
}

func TestReduce_Failure(t *testing.T) {
	s := State{Phase: PhaseSending, Seq: 1, Pending: "q"}
	err := &sumiller.ClientError{Type: sumiller.ErrTypeServer, StatusCode: 500, Message: "Internal server error"}

	next, effects := Machine{}.Reduce(s, QueryFailed{Seq: 1, Err: err, MessageID: "msg_e", At: testTime})

	assert.Equal(t, PhaseError, next.Phase)
	assert.True(t, next.InputEnabled(), "errors never block input")
	assert.Contains(t, next.LastError, "Error")

	msgs := appended(effects)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.TypeError, msgs[0].Type)
	assert.Equal(t, next.LastError, msgs[0].Content)
	assert.Equal(t, []bool{false}, loadingToggles(effects))
}

func TestReduce_StaleResultsIgnored(t *testing.T) {
	sending := State{Phase: PhaseSending, Seq: 5, Pending: "q"}
	idle := State{Phase: PhaseIdle, Seq: 5}

	events := []Event{
		QuerySucceeded{Seq: 4, Response: &sumiller.QueryResponse{Response: "vieja"}},
		QueryFailed{Seq: 4, Err: errors.New("vieja")},
	}
	for _, ev := range events {
		next, effects := Machine{}.Reduce(sending, ev)
		assert.Equal(t, sending, next)
		assert.Empty(t, effects)

		next, effects = Machine{}.Reduce(idle, ev)
		assert.Equal(t, idle, next)
		assert.Empty(t, effects)
	}

	// A current-seq result after a reset is ignored as well
	next, effects := Machine{}.Reduce(idle, QuerySucceeded{Seq: 5})
	assert.Equal(t, idle, next)
	assert.Empty(t, effects)
}

func TestReduce_NilResponseTreatedAsEmpty(t *testing.T) {
	next, effects := Machine{}.Reduce(State{Phase: PhaseSending, Seq: 1}, QuerySucceeded{Seq: 1})
	assert.Equal(t, PhaseIdle, next.Phase)
	assert.Len(t, appended(effects), 1)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestReduce_LoadingTogglesOncePerRequest(t *testing.T) {
	m := Machine{}
	outcomes := []Event{
		QuerySucceeded{Seq: 1, Response: &sumiller.QueryResponse{Response: "ok"}},
		QueryFailed{Seq: 1, Err: &sumiller.ClientError{Type: sumiller.ErrTypeNetwork}},
	}

	for _, outcome := range outcomes {
		var toggles []bool
		s, effects := m.Reduce(State{}, submit("hola"))
		toggles = append(toggles, loadingToggles(effects)...)
		assert.False(t, s.InputEnabled())

		s, effects = m.Reduce(s, outcome)
		toggles = append(toggles, loadingToggles(effects)...)
		assert.True(t, s.InputEnabled())

		assert.Equal(t, []bool{true, false}, toggles)
	}
}

func TestReduce_Reset(t *testing.T) {
	next, effects := Machine{}.Reduce(State{Phase: PhaseSending, Seq: 2, Pending: "q"}, Reset{})
	assert.Equal(t, State{Phase: PhaseIdle, Seq: 2}, next)
	assert.Equal(t, []Effect{CancelQuery{Seq: 2}, LoadingChanged{Loading: false}, ClearConversation{}}, effects)

	next, effects = Machine{}.Reduce(State{Phase: PhaseError, LastError: "Error", Seq: 2}, Reset{})
	assert.Equal(t, State{Phase: PhaseIdle, Seq: 2}, next)
	assert.Equal(t, []Effect{ClearConversation{}}, effects)
}

func TestLoadingImpliesInputDisabled(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseSending, PhaseError} {
		s := State{Phase: p}
		if s.IsLoading() && s.InputEnabled() {
			t.Errorf("phase %s: loading with input enabled", p)
		}
	}
}

func TestParseSubmitPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SubmitPolicy
		wantErr bool
	}{
		{"", SubmitReject, false},
		{"reject", SubmitReject, false},
		{" Cancel ", SubmitCancel, false},
		{"queue", "", true},
	}
	for _, tc := range tests {
		got, err := ParseSubmitPolicy(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "sending", PhaseSending.String())
	assert.True(t, strings.HasPrefix(Phase(9).String(), "phase("))
}

// =============================================================================
// ERROR DESCRIPTIONS
// =============================================================================

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network", &sumiller.ClientError{Type: sumiller.ErrTypeNetwork, Message: "x"}, "Error de conexión"},
		{"server", &sumiller.ClientError{Type: sumiller.ErrTypeServer, StatusCode: 500, Message: "Internal server error"}, "Error del servidor (500): Internal server error"},
		{"server no message", &sumiller.ClientError{Type: sumiller.ErrTypeServer, StatusCode: 503}, "Service Unavailable"},
		{"canceled", &sumiller.ClientError{Type: sumiller.ErrTypeCanceled}, "cancel"},
		{"invalid", &sumiller.ClientError{Type: sumiller.ErrTypeInvalidResponse}, "interpretar"},
		{"validation", sumiller.ErrEmptyQuery, "query must not be empty"},
		{"plain", errors.New("boom"), "Error inesperado"},
		{"nil", nil, "Error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DescribeError(tc.err)
			assert.Contains(t, got, tc.want)
			assert.True(t, strings.HasPrefix(got, "Error"), "description must start with Error: %q", got)
		})
	}
}
