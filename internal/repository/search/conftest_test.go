package search

import (
	"context"
	"testing"

	"github.com/kestrel-sec/detdex/internal/es"
)

// mockSearcher implements the consumer interface for tests.
type mockSearcher struct {
	searchFn func(ctx context.Context, index string, body *es.SearchBody) (*es.SearchResponse, error)
}

func (m *mockSearcher) Search(ctx context.Context, index string, body *es.SearchBody) (*es.SearchResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &es.SearchResponse{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockSearcher) {
	t.Helper()
	ms := &mockSearcher{}
	return New(ms), ms
}

func intPtr(v int) *int         { return &v }
func int64Ptr(v int64) *int64   { return &v }
func f64Ptr(v float64) *float64 { return &v }

// healthyResponse returns a minimal well-formed backend reply.
func healthyResponse() *es.SearchResponse {
	return &es.SearchResponse{
		Took:   int64Ptr(7),
		Shards: &es.ShardStats{Total: intPtr(3), Successful: intPtr(3)},
	}
}
