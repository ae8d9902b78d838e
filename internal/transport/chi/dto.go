package chi

import (
	"time"

	"github.com/kestrel-sec/detdex/internal/domain/search/result"
)

// SearchRequest is the inbound search payload. Slice fields distinguish
// "omitted" (nil) from "explicitly empty" ([]), which validation rejects.
type SearchRequest struct {
	QueryText       string   `json:"query_text"`
	Platforms       []string `json:"platforms,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	MinQualityScore *float64 `json:"min_quality_score,omitempty"`
	Page            int      `json:"page,omitempty"`
	Size            int      `json:"size,omitempty"`
	SortField       string   `json:"sort_field,omitempty"`
	SortOrder       string   `json:"sort_order,omitempty"`
}

// SearchHit is one ranked result on the wire.
type SearchHit struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	PlatformType string              `json:"platform_type"`
	Score        float64             `json:"score"`
	Highlights   map[string][]string `json:"highlights"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
}

// SearchResponse is the outbound search payload.
type SearchResponse struct {
	Hits               []SearchHit                 `json:"hits"`
	Total              int64                       `json:"total"`
	TookMS             int64                       `json:"took_ms"`
	MaxScore           float64                     `json:"max_score"`
	Aggregations       map[string]map[string]int64 `json:"aggregations"`
	PerformanceMetrics result.Metrics              `json:"performance_metrics"`
}

// SuggestResponse is the outbound autocomplete payload.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// IndexResponse acknowledges an indexed detection.
type IndexResponse struct {
	ID string `json:"id"`
}

// HealthResponse reports aggregated component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes on the wire.
const (
	codeBadRequest     = "bad_request"
	codeInvalidQuery   = "validation_failed"
	codeQueryRejected  = "query_rejected"
	codeUnavailable    = "backend_unavailable"
	codeIndexUnhealthy = "index_unhealthy"
	codeBadGateway     = "malformed_backend_response"
	codeInternal       = "internal_error"
)

func resultToResponse(res *result.Result) SearchResponse {
	hits := make([]SearchHit, len(res.Hits()))
	for i, h := range res.Hits() {
		hits[i] = SearchHit{
			ID:           h.ID(),
			Name:         h.Name(),
			Description:  h.Description(),
			PlatformType: string(h.Platform()),
			Score:        h.Score(),
			Highlights:   h.Highlights(),
			CreatedAt:    h.CreatedAt(),
			UpdatedAt:    h.UpdatedAt(),
			Metadata:     h.Metadata(),
		}
	}
	return SearchResponse{
		Hits:               hits,
		Total:              res.Total(),
		TookMS:             res.TookMS(),
		MaxScore:           res.MaxScore(),
		Aggregations:       res.Aggregations(),
		PerformanceMetrics: res.Metrics(),
	}
}
