// Package search builds backend queries and assembles their responses.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
	"github.com/kestrel-sec/detdex/internal/es"
)

// Repo executes search queries against the backend and assembles results.
type Repo struct {
	backend es.Searcher
	profile bool
}

// New creates a search repository.
func New(backend es.Searcher) *Repo {
	return &Repo{backend: backend}
}

// WithProfiling enables execution profiling on outgoing queries.
func (r *Repo) WithProfiling() *Repo {
	r.profile = true
	return r
}

// Search runs the query against the index and assembles the caller-facing result.
func (r *Repo) Search(ctx context.Context, index string, q *query.Query) (result.Result, error) {
	body := BuildSearchBody(q, r.profile)

	resp, err := r.backend.Search(ctx, index, body)
	if err != nil {
		return result.Result{}, fmt.Errorf("search %s: %w", index, err)
	}

	return assemble(resp)
}

// hitSource is the projected document shape returned by the backend.
type hitSource struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PlatformType string    `json:"platform_type"`
	QualityScore float64   `json:"quality_score"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// assemble maps a raw backend response into a Result. A response missing
// shard-count telemetry fails the whole assembly: it signals a protocol
// mismatch with the backend, not a recoverable condition.
func assemble(resp *es.SearchResponse) (result.Result, error) {
	var totalShards, successfulShards *int
	if resp.Shards != nil {
		totalShards = resp.Shards.Total
		successfulShards = resp.Shards.Successful
	}
	metrics, err := result.NewMetrics(resp.Took, totalShards, successfulShards)
	if err != nil {
		return result.Result{}, err
	}

	hits := make([]result.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hit, err := assembleHit(h)
		if err != nil {
			return result.Result{}, err
		}
		hits = append(hits, hit)
	}

	maxScore := 0.0
	if resp.Hits.MaxScore != nil {
		maxScore = *resp.Hits.MaxScore
	}

	var took int64
	if resp.Took != nil {
		took = *resp.Took
	}

	return result.New(hits, resp.Hits.Total.Value, took, maxScore, assembleAggs(resp.Aggregations), metrics)
}

func assembleHit(h es.HitEnvelope) (result.Hit, error) {
	var src hitSource
	if len(h.Source) > 0 {
		if err := json.Unmarshal(h.Source, &src); err != nil {
			return result.Hit{}, fmt.Errorf("%w: decode hit %s: %w", domain.ErrMalformedResponse, h.ID, err)
		}
	}

	id := src.ID
	if id == "" {
		id = h.ID
	}

	score := 0.0
	if h.Score != nil {
		score = *h.Score
	}

	metadata := map[string]any{
		"quality_score": src.QualityScore,
		"tags":          src.Tags,
	}

	return result.NewHit(
		id, src.Name, src.Description,
		domain.Platform(src.PlatformType),
		score, h.Highlight,
		src.CreatedAt, src.UpdatedAt,
		metadata,
	), nil
}

func assembleAggs(aggs map[string]es.AggResult) map[string]map[string]int64 {
	if len(aggs) == 0 {
		return nil
	}
	out := make(map[string]map[string]int64, len(aggs))
	for name, agg := range aggs {
		buckets := make(map[string]int64, len(agg.Buckets))
		for _, b := range agg.Buckets {
			buckets[b.Key] = b.DocCount
		}
		out[name] = buckets
	}
	return out
}
