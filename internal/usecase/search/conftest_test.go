package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
	"github.com/kestrel-sec/detdex/internal/es"
	"github.com/kestrel-sec/detdex/internal/resilience"
)

// mockRepo implements the Repository consumer interface for tests.
type mockRepo struct {
	searchFn func(ctx context.Context, index string, q *query.Query) (result.Result, error)
	calls    int
}

func (m *mockRepo) Search(ctx context.Context, index string, q *query.Query) (result.Result, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, index, q)
	}
	return result.Result{}, nil
}

// mockCache implements the Cache consumer interface for tests.
type mockCache struct {
	lookupFn    func(ctx context.Context, q *query.Query) (result.Result, bool)
	stored      []result.Result
	invalidated int
}

func (m *mockCache) Lookup(ctx context.Context, q *query.Query) (result.Result, bool) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, q)
	}
	return result.Result{}, false
}

func (m *mockCache) Store(_ context.Context, _ *query.Query, res result.Result) {
	m.stored = append(m.stored, res)
}

func (m *mockCache) InvalidateAll(_ context.Context) {
	m.invalidated++
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockCache) {
	t.Helper()
	repo := &mockRepo{}
	cache := &mockCache{}
	breaker := resilience.NewBreaker("test", 5, time.Minute, zap.NewNop())
	retry := resilience.NewRetryer(3, time.Millisecond, 4*time.Millisecond, es.IsTransient, zap.NewNop())
	svc := New(repo, cache, breaker, retry, "detections", zap.NewNop())
	return svc, repo, cache
}

func mustQuery(t *testing.T, text string) *query.Query {
	t.Helper()
	q, err := query.New(query.Params{Text: text})
	if err != nil {
		t.Fatalf("failed to build query: %v", err)
	}
	return &q
}

func testResult(t *testing.T, total int64) result.Result {
	t.Helper()
	hit := result.NewHit(
		"doc-1", "Suspicious PowerShell", "Encoded command execution",
		domain.PlatformEDR, 0.9, nil, time.Now(), time.Now(), nil,
	)
	res, err := result.New(
		[]result.Hit{hit}, total, 7, 0.9, nil,
		result.Metrics{QueryTimeMS: 7, TotalShards: 3, SuccessfulShards: 3},
	)
	if err != nil {
		t.Fatalf("failed to build result: %v", err)
	}
	return res
}
