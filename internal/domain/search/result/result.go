// Package result holds the caller-facing search result shapes.
package result

import (
	"fmt"
	"time"

	"github.com/kestrel-sec/detdex/internal/domain"
)

// Hit is a single ranked search result.
type Hit struct {
	id          string
	name        string
	description string
	platform    domain.Platform
	score       float64
	highlights  map[string][]string
	createdAt   time.Time
	updatedAt   time.Time
	metadata    map[string]any
}

// NewHit creates a hit, clamping score into [0, 1] regardless of the
// backend-reported magnitude. A nil highlights map becomes an empty one.
func NewHit(
	id, name, description string,
	platform domain.Platform,
	score float64,
	highlights map[string][]string,
	createdAt, updatedAt time.Time,
	metadata map[string]any,
) Hit {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	if highlights == nil {
		highlights = map[string][]string{}
	}
	return Hit{
		id: id, name: name, description: description,
		platform: platform, score: score, highlights: highlights,
		createdAt: createdAt, updatedAt: updatedAt, metadata: metadata,
	}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Name returns the detection name.
func (h *Hit) Name() string { return h.name }

// Description returns the detection description.
func (h *Hit) Description() string { return h.description }

// Platform returns the platform type.
func (h *Hit) Platform() domain.Platform { return h.platform }

// Score returns the normalized relevance score in [0, 1].
func (h *Hit) Score() float64 { return h.score }

// Highlights returns per-field highlighted snippets (never nil).
func (h *Hit) Highlights() map[string][]string { return h.highlights }

// CreatedAt returns the creation timestamp.
func (h *Hit) CreatedAt() time.Time { return h.createdAt }

// UpdatedAt returns the last update timestamp.
func (h *Hit) UpdatedAt() time.Time { return h.updatedAt }

// Metadata returns free-form document metadata.
func (h *Hit) Metadata() map[string]any { return h.metadata }

// Metrics is the per-request performance record. All three fields are
// mandatory; a backend response that omits any of them is malformed.
type Metrics struct {
	QueryTimeMS      int64 `json:"query_time_ms"`
	TotalShards      int   `json:"total_shards"`
	SuccessfulShards int   `json:"successful_shards"`
}

// NewMetrics builds the performance record from optional backend telemetry.
// Missing shard counts or timing are an integrity error, not a recoverable
// condition.
func NewMetrics(queryTimeMS *int64, totalShards, successfulShards *int) (Metrics, error) {
	if queryTimeMS == nil {
		return Metrics{}, fmt.Errorf("%w: missing query_time_ms", domain.ErrMalformedResponse)
	}
	if totalShards == nil {
		return Metrics{}, fmt.Errorf("%w: missing total_shards", domain.ErrMalformedResponse)
	}
	if successfulShards == nil {
		return Metrics{}, fmt.Errorf("%w: missing successful_shards", domain.ErrMalformedResponse)
	}
	return Metrics{
		QueryTimeMS:      *queryTimeMS,
		TotalShards:      *totalShards,
		SuccessfulShards: *successfulShards,
	}, nil
}

// Result is an assembled search response.
type Result struct {
	hits         []Hit
	total        int64
	tookMS       int64
	maxScore     float64
	aggregations map[string]map[string]int64
	metrics      Metrics
}

// New creates a search result.
func New(
	hits []Hit,
	total, tookMS int64,
	maxScore float64,
	aggregations map[string]map[string]int64,
	metrics Metrics,
) (Result, error) {
	if total < 0 {
		return Result{}, fmt.Errorf("%w: negative total", domain.ErrMalformedResponse)
	}
	if tookMS < 0 {
		return Result{}, fmt.Errorf("%w: negative took_ms", domain.ErrMalformedResponse)
	}
	if maxScore < 0 {
		maxScore = 0
	}
	if aggregations == nil {
		aggregations = map[string]map[string]int64{}
	}
	return Result{
		hits: hits, total: total, tookMS: tookMS,
		maxScore: maxScore, aggregations: aggregations, metrics: metrics,
	}, nil
}

// Hits returns the ranked hits in relevance order.
func (r *Result) Hits() []Hit { return r.hits }

// Total returns the total match count.
func (r *Result) Total() int64 { return r.total }

// TookMS returns the backend execution time in milliseconds.
func (r *Result) TookMS() int64 { return r.tookMS }

// MaxScore returns the maximum raw score observed.
func (r *Result) MaxScore() float64 { return r.maxScore }

// Aggregations returns facet buckets keyed by facet name.
func (r *Result) Aggregations() map[string]map[string]int64 { return r.aggregations }

// Metrics returns the performance record.
func (r *Result) Metrics() Metrics { return r.metrics }
