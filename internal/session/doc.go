// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the chat session: a pure state machine plus
// the runtime that owns the conversation and talks to the query service.
//
// # Key Types
//
//   - Machine: pure reducer, Reduce(State, Event) -> (State, []Effect)
//   - State: phase (idle, sending, error) and the last error text
//   - Event: Submit, QuerySucceeded, QueryFailed, Reset
//   - Effect: work the runtime performs after a transition
//   - Session: runtime owning the store, client, tracer and summary repository
//   - Job: asynchronous work that reports back with an Event
//
// # Usage
//
//	sess, err := session.New(session.Options{Client: client, Tracer: tracer})
//	sess.SetUser(identity)
//	jobs := sess.Submit("¿Qué vino va con el cordero?")
//	for _, job := range jobs {
//	    if ev := job(); ev != nil {
//	        jobs = append(jobs, sess.Dispatch(ev)...)
//	    }
//	}
//
// The Bubble Tea chat view wraps each Job in a tea.Cmd, so the network call
// never blocks the UI loop.
package session
