// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sumiller provides the HTTP client for the Sumy query service.
//
// The service answers wine questions through a single POST /query endpoint
// and exposes a few auxiliary endpoints (health, stats, ratings, preferences,
// user context). The client performs exactly one network call per operation
// and never retries: failures are returned as *ClientError values that the
// caller classifies into user-visible messages.
//
// # Error Types
//
//   - ErrTypeNetwork: transport failure (connection refused, aborted, timeout)
//   - ErrTypeServer: non-2xx status; StatusCode carries the HTTP status
//   - ErrTypeInvalidResponse: 2xx with an undecodable body
//   - ErrTypeValidation: request rejected before any network call
//   - ErrTypeCanceled: the caller's context was cancelled
//
// # Usage
//
//	client := sumiller.NewClientWithConfig(&sumiller.ClientConfig{
//	    BaseURL: "https://sumiller.example.com",
//	})
//	resp, err := client.SendMessage(ctx, sumiller.QueryRequest{
//	    Query:  "¿Qué vino va bien con salmón?",
//	    UserID: "uid-123",
//	})
//	if sumiller.IsServerError(err) {
//	    log.Printf("status %d", sumiller.StatusCode(err))
//	}
package sumiller
