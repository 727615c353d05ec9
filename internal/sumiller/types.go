// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sumiller

import "github.com/maitre-ia/sumy-tui/internal/model"

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classification is the category the service assigned to a query.
// Values outside the known set are kept verbatim.
type Classification string

const (
	ClassWineSearch Classification = "WINE_SEARCH"
	ClassWineTheory Classification = "WINE_THEORY"
	ClassGeneral    Classification = "GENERAL"
	ClassOffTopic   Classification = "OFF_TOPIC"
)

// Known reports whether c is one of the categories the service documents.
func (c Classification) Known() bool {
	switch c {
	case ClassWineSearch, ClassWineTheory, ClassGeneral, ClassOffTopic:
		return true
	}
	return false
}

// =============================================================================
// QUERY TYPES
// =============================================================================

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query               string          `json:"query"`
	UserID              string          `json:"user_id"`
	ConversationHistory []model.HistoryEntry `json:"conversation_history"`
}

// Metadata describes how the service produced a response.
type Metadata struct {
	Classification   Classification `json:"classification"`
	RAGUsed          bool           `json:"rag_used"`
	WineResults      int            `json:"wine_results"`
	KnowledgeResults int            `json:"knowledge_results"`
}

// QueryResponse is the success body of POST /query.
type QueryResponse struct {
	Response string   `json:"response"`
	Metadata Metadata `json:"metadata"`
}

// errorBody is the optional JSON body of a failed request. The service may
// use either the "error" or the FastAPI "detail" key.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (b errorBody) message() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Detail
}

// =============================================================================
// AUXILIARY ENDPOINT TYPES
// =============================================================================

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether the service declared itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// WineRating is the body of POST /rate-wine.
type WineRating struct {
	WineName string `json:"wine_name"`
	Rating   int    `json:"rating"`
	Notes    string `json:"notes,omitempty"`
	UserID   string `json:"user_id"`
}

// MinRating and MaxRating bound a wine rating.
const (
	MinRating = 1
	MaxRating = 5
)

// preferencesRequest is the body of POST /preferences.
type preferencesRequest struct {
	Preferences map[string]any `json:"preferences"`
	UserID      string         `json:"user_id"`
}

// Ack is the generic acknowledgement returned by write endpoints.
type Ack struct {
	Message string `json:"message"`
}

// PastExchange is one remembered query/response pair.
type PastExchange struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// FavoriteWine is a wine with the user's average rating.
type FavoriteWine struct {
	WineName  string  `json:"wine_name"`
	AvgRating float64 `json:"avg_rating"`
}

// UserContext is the body of GET /user/{id}/context.
type UserContext struct {
	UserID              string         `json:"user_id"`
	RecentConversations []PastExchange `json:"recent_conversations"`
	Preferences         map[string]any `json:"preferences"`
	FavoriteWines       []FavoriteWine `json:"favorite_wines"`
	Error               string         `json:"error,omitempty"`
}

// ServiceStats is the body of GET /stats.
type ServiceStats struct {
	ServiceName        string  `json:"service_name"`
	Model              string  `json:"openai_model"`
	RAGServiceEnabled  bool    `json:"rag_service_enabled"`
	TotalConversations int     `json:"total_conversations"`
	UniqueUsers        int     `json:"unique_users"`
	TotalRatings       int     `json:"total_ratings"`
	DatabaseSizeKB     float64 `json:"database_size_kb"`
}
