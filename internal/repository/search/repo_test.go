package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/es"
)

func TestSearch_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, index string, body *es.SearchBody) (*es.SearchResponse, error) {
		if index != "detections" {
			t.Errorf("unexpected index: %s", index)
		}
		if body.Query == nil {
			t.Error("expected a query body")
		}
		resp := healthyResponse()
		resp.Hits = es.HitsEnvelope{
			Total:    es.TotalHits{Value: 2, Relation: "eq"},
			MaxScore: f64Ptr(3.4),
			Hits: []es.HitEnvelope{
				{
					ID:    "doc-1",
					Score: f64Ptr(0.92),
					Source: json.RawMessage(`{
						"id": "doc-1",
						"name": "Suspicious PowerShell",
						"description": "Encoded command execution",
						"platform_type": "EDR",
						"quality_score": 0.8,
						"tags": ["execution"]
					}`),
					Highlight: map[string][]string{
						"name": {"Suspicious <em>PowerShell</em>"},
					},
				},
				{
					ID:    "doc-2",
					Score: f64Ptr(3.4),
					Source: json.RawMessage(`{
						"id": "doc-2",
						"name": "Registry Run Key",
						"description": "Persistence via autorun",
						"platform_type": "SIEM",
						"quality_score": 0.6
					}`),
				},
			},
		}
		return resp, nil
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	res, err := repo.Search(ctx, "detections", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total() != 2 {
		t.Errorf("expected total=2, got %d", res.Total())
	}
	if res.TookMS() != 7 {
		t.Errorf("expected took=7, got %d", res.TookMS())
	}
	if res.MaxScore() != 3.4 {
		t.Errorf("expected max_score=3.4, got %v", res.MaxScore())
	}
	if res.Metrics().TotalShards != 3 || res.Metrics().SuccessfulShards != 3 {
		t.Errorf("unexpected shard metrics: %+v", res.Metrics())
	}

	hits := res.Hits()
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "doc-1" {
		t.Errorf("expected ID doc-1, got %s", hits[0].ID())
	}
	if hits[0].Name() != "Suspicious PowerShell" {
		t.Errorf("unexpected name: %s", hits[0].Name())
	}
	if hits[0].Platform() != domain.PlatformEDR {
		t.Errorf("unexpected platform: %s", hits[0].Platform())
	}
	if hits[0].Score() != 0.92 {
		t.Errorf("expected score 0.92, got %v", hits[0].Score())
	}
	if got := hits[0].Highlights()["name"]; len(got) != 1 || got[0] != "Suspicious <em>PowerShell</em>" {
		t.Errorf("unexpected highlights: %v", hits[0].Highlights())
	}
	// Raw score above 1 is clamped.
	if hits[1].Score() != 1 {
		t.Errorf("expected clamped score 1, got %v", hits[1].Score())
	}
	// No highlight from the backend still yields an empty map.
	if hits[1].Highlights() == nil {
		t.Error("expected non-nil highlights map")
	}
}

func TestSearch_MissingShardStats(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		resp *es.SearchResponse
	}{
		{
			name: "no shards block",
			resp: &es.SearchResponse{Took: int64Ptr(5)},
		},
		{
			name: "no took",
			resp: &es.SearchResponse{Shards: &es.ShardStats{Total: intPtr(3), Successful: intPtr(3)}},
		},
		{
			name: "shards block missing successful",
			resp: &es.SearchResponse{Took: int64Ptr(5), Shards: &es.ShardStats{Total: intPtr(3)}},
		},
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms.searchFn = func(_ context.Context, _ string, _ *es.SearchBody) (*es.SearchResponse, error) {
				return tt.resp, nil
			}

			_, err := repo.Search(ctx, "detections", q)
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestSearch_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	backendErr := &es.Error{Op: es.OpSearch, Status: 503, Err: errors.New("service unavailable")}
	ms.searchFn = func(_ context.Context, _ string, _ *es.SearchBody) (*es.SearchResponse, error) {
		return nil, backendErr
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	_, err := repo.Search(ctx, "detections", q)
	if err == nil {
		t.Fatal("expected error")
	}
	var esErr *es.Error
	if !errors.As(err, &esErr) {
		t.Errorf("expected backend error preserved in chain, got %v", err)
	}
}

func TestSearch_FallsBackToEnvelopeID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, _ string, _ *es.SearchBody) (*es.SearchResponse, error) {
		resp := healthyResponse()
		resp.Hits = es.HitsEnvelope{
			Total: es.TotalHits{Value: 1},
			Hits: []es.HitEnvelope{
				{
					ID:     "envelope-id",
					Score:  f64Ptr(0.5),
					Source: json.RawMessage(`{"name": "No Embedded ID"}`),
				},
			},
		}
		return resp, nil
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	res, err := repo.Search(ctx, "detections", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Hits()[0].ID() != "envelope-id" {
		t.Errorf("expected envelope ID fallback, got %s", res.Hits()[0].ID())
	}
}

func TestSearch_MalformedHitSource(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, _ string, _ *es.SearchBody) (*es.SearchResponse, error) {
		resp := healthyResponse()
		resp.Hits = es.HitsEnvelope{
			Total: es.TotalHits{Value: 1},
			Hits: []es.HitEnvelope{
				{ID: "doc-1", Source: json.RawMessage(`{not json`)},
			},
		}
		return resp, nil
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	_, err := repo.Search(ctx, "detections", q)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestSearch_Aggregations(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, _ string, _ *es.SearchBody) (*es.SearchResponse, error) {
		resp := healthyResponse()
		resp.Aggregations = map[string]es.AggResult{
			"platforms": {Buckets: []es.Bucket{
				{Key: "EDR", DocCount: 12},
				{Key: "SIEM", DocCount: 5},
			}},
			"tags": {Buckets: []es.Bucket{
				{Key: "windows", DocCount: 9},
			}},
		}
		return resp, nil
	}

	q := mustQuery(t, query.Params{Text: "powershell encoded"})
	res, err := repo.Search(ctx, "detections", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	aggs := res.Aggregations()
	if aggs["platforms"]["EDR"] != 12 {
		t.Errorf("expected EDR bucket 12, got %d", aggs["platforms"]["EDR"])
	}
	if aggs["platforms"]["SIEM"] != 5 {
		t.Errorf("expected SIEM bucket 5, got %d", aggs["platforms"]["SIEM"])
	}
	if aggs["tags"]["windows"] != 9 {
		t.Errorf("expected windows bucket 9, got %d", aggs["tags"]["windows"])
	}
}
