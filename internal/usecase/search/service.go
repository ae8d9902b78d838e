// Package search orchestrates query execution: cache, resilience, assembly.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
	"github.com/kestrel-sec/detdex/internal/es"
	"github.com/kestrel-sec/detdex/internal/metrics"
	"github.com/kestrel-sec/detdex/internal/resilience"
)

const operation = "search"

// Service handles detection search with caching and resilient backend calls.
type Service struct {
	repo    Repository
	cache   Cache
	breaker *resilience.Breaker
	retry   *resilience.Retryer
	index   string
	logger  *zap.Logger
}

// New creates a search service.
func New(
	repo Repository,
	cache Cache,
	breaker *resilience.Breaker,
	retry *resilience.Retryer,
	index string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
		retry:   retry,
		index:   index,
		logger:  logger,
	}
}

// Search executes a validated query. Cached results short-circuit the
// backend entirely; misses go through the circuit breaker and bounded retry,
// and successful responses are cached for subsequent callers.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Result, error) {
	metrics.SearchRequestsTotal.WithLabelValues(operation).Inc()

	if res, ok := s.cache.Lookup(ctx, q); ok {
		metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
		return res, nil
	}
	metrics.ResultCacheTotal.WithLabelValues("miss").Inc()

	var res result.Result
	start := time.Now()
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, operation, func(ctx context.Context) error {
			var searchErr error
			res, searchErr = s.repo.Search(ctx, s.index, q)
			return searchErr
		})
	})
	metrics.BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		err = translateBackendError(err)
		metrics.SearchErrorsTotal.WithLabelValues(operation, errorType(err)).Inc()
		s.logger.Error("search failed",
			zap.String("index", s.index),
			zap.Int("token_count", q.TokenCount()),
			zap.Error(err),
		)
		return result.Result{}, err
	}

	s.cache.Store(ctx, q, res)
	return res, nil
}

// translateBackendError maps backend failures onto the uniform error
// taxonomy so callers never observe backend-specific error types.
func translateBackendError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrBackendUnavailable),
		errors.Is(err, domain.ErrMalformedResponse):
		return err
	case es.IsRequestError(err):
		return fmt.Errorf("%w: %w", domain.ErrQueryRejected, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrQueryRejected):
		return "rejected"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "integrity"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
