package search

import (
	"context"

	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
)

// Repository executes a search query against the backend index.
type Repository interface {
	Search(ctx context.Context, index string, q *query.Query) (result.Result, error)
}

// Cache memoizes assembled results. Implementations must be safe for
// concurrent callers; last-writer-wins on concurrent stores is acceptable.
type Cache interface {
	Lookup(ctx context.Context, q *query.Query) (result.Result, bool)
	Store(ctx context.Context, q *query.Query, res result.Result)
	InvalidateAll(ctx context.Context)
}
