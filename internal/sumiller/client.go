// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sumiller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/maitre-ia/sumy-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the query service client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int // set for ErrTypeServer
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Type == ErrTypeServer && e.StatusCode != 0 {
		msg = fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNetwork
	ErrTypeServer
	ErrTypeInvalidResponse
	ErrTypeValidation
	ErrTypeCanceled
)

// String returns the name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNetwork:
		return "network"
	case ErrTypeServer:
		return "server"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeValidation:
		return "validation"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrEmptyQuery    = &ClientError{Type: ErrTypeValidation, Message: "query must not be empty"}
	ErrInvalidRating = &ClientError{Type: ErrTypeValidation, Message: "rating must be between 1 and 5"}
	ErrMissingUser   = &ClientError{Type: ErrTypeValidation, Message: "user id must not be empty"}
)

// errorTypeOf returns the ErrorType of err, or ErrTypeUnknown.
func errorTypeOf(err error) ErrorType {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	return errorTypeOf(err) == ErrTypeNetwork
}

// IsServerError reports whether err is a non-2xx response.
func IsServerError(err error) bool {
	return errorTypeOf(err) == ErrTypeServer
}

// IsCanceled reports whether err came from a cancelled context.
func IsCanceled(err error) bool {
	return errorTypeOf(err) == ErrTypeCanceled
}

// IsValidationError reports whether the request was rejected locally.
func IsValidationError(err error) bool {
	return errorTypeOf(err) == ErrTypeValidation
}

// StatusCode returns the HTTP status carried by a server error, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrTypeServer {
		return ce.StatusCode
	}
	return 0
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the query service client.
type ClientConfig struct {
	// BaseURL is the query service base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout bounds each request at the transport level (default: 60s).
	// The chat session itself never times out a request.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls (0 = unlimited)
	RequestsPerSecond float64

	// UserAgent sent with every request
	UserAgent string

	// HTTPClient overrides the transport (tests, proxies)
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://127.0.0.1:8000",
		Timeout:   60 * time.Second,
		UserAgent: "sumy-tui",
	}
}

// maxErrorBody caps how much of a failed response body is read.
const maxErrorBody = 64 << 10

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Sumy query service.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := sumiller.NewClient()
//	resp, err := client.SendMessage(ctx, sumiller.QueryRequest{Query: "hola", UserID: uid})
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	c := &Client{
		config:     config,
		httpClient: httpClient,
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// QUERY
// =============================================================================

// SendMessage submits a query with its conversation history and returns the
// service's answer. It performs a single POST /query and never retries.
func (c *Client) SendMessage(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if req.ConversationHistory == nil {
		req.ConversationHistory = []model.HistoryEntry{}
	}

	var out QueryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// AUXILIARY ENDPOINTS
// =============================================================================

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (*ServiceStats, error) {
	var out ServiceStats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserContext fetches the remembered context of a user.
func (c *Client) UserContext(ctx context.Context, userID string) (*UserContext, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	var out UserContext
	path := "/user/" + url.PathEscape(userID) + "/context"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RateWine records a 1-5 rating. Out-of-range ratings are rejected before
// any network call.
func (c *Client) RateWine(ctx context.Context, rating WineRating) (*Ack, error) {
	if rating.Rating < MinRating || rating.Rating > MaxRating {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(rating.WineName) == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "wine name must not be empty"}
	}
	if strings.TrimSpace(rating.UserID) == "" {
		return nil, ErrMissingUser
	}
	var out Ack
	if err := c.doJSON(ctx, http.MethodPost, "/rate-wine", rating, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePreferences replaces the stored preferences of a user.
func (c *Client) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (*Ack, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	var out Ack
	body := preferencesRequest{Preferences: prefs, UserID: userID}
	if err := c.doJSON(ctx, http.MethodPost, "/preferences", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// doJSON performs one request with an optional JSON body and decodes a JSON
// success body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.transportError(ctx, err)
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeValidation, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// transportError classifies a failure that produced no HTTP response.
func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &ClientError{Type: ErrTypeCanceled, Message: "request cancelled", Cause: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeNetwork, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeNetwork, Message: "could not reach the query service", Cause: err}
}

// serverError builds an ErrTypeServer error from a non-2xx response.
func serverError(resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if len(data) > 0 && json.Unmarshal(data, &eb) == nil && eb.message() != "" {
		msg = eb.message()
	}
	if msg == "" {
		msg = resp.Status
	}

	return &ClientError{
		Type:       ErrTypeServer,
		Message:    msg,
		StatusCode: resp.StatusCode,
	}
}
