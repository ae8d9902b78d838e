// Package index handles detection writes, refresh, and index readiness.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/metrics"
	"github.com/kestrel-sec/detdex/internal/resilience"
)

// Repository wraps index administration and document writes.
type Repository interface {
	IsHealthy(ctx context.Context, index string) (bool, error)
	EnsureIndex(ctx context.Context, index string) error
	Refresh(ctx context.Context, index string) error
	IndexDocument(ctx context.Context, index string, doc *domain.DetectionDocument) error
}

// CacheInvalidator drops cached search results after a write.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// Service coordinates guarded writes to the detection index. Every write
// path consults the health guard first; a red cluster suppresses the
// operation with an explicit failure instead of attempting it.
type Service struct {
	repo    Repository
	cache   CacheInvalidator
	breaker *resilience.Breaker
	retry   *resilience.Retryer
	index   string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an indexing service.
func New(
	repo Repository,
	cache CacheInvalidator,
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
		now:     time.Now,
	}
}

// EnsureReady verifies cluster health and creates the index with its schema
// if absent. Called on the service-readiness path before serving.
func (s *Service) EnsureReady(ctx context.Context) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if err := s.repo.EnsureIndex(ctx, s.index); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// IndexDetection validates, normalizes, and writes a detection, then drops
// the entire result cache. IDs are assigned when the caller omits one.
func (s *Service) IndexDetection(ctx context.Context, doc *domain.DetectionDocument) (string, error) {
	metrics.SearchRequestsTotal.WithLabelValues("index").Inc()

	if err := doc.Validate(); err != nil {
		return "", err
	}
	if err := s.guard(ctx); err != nil {
		return "", err
	}

	doc.Normalize(s.now())
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	start := time.Now()
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, "index", func(ctx context.Context) error {
			return s.repo.IndexDocument(ctx, s.index, doc)
		})
	})
	metrics.BackendRequestDuration.WithLabelValues("index").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues("index", "unavailable").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	s.cache.InvalidateAll(ctx)
	s.logger.Info("detection indexed",
		zap.String("id", doc.ID),
		zap.String("platform", string(doc.PlatformType)),
	)
	return doc.ID, nil
}

// Refresh makes recent writes searchable, guarded by cluster health.
func (s *Service) Refresh(ctx context.Context) error {
	metrics.SearchRequestsTotal.WithLabelValues("refresh").Inc()

	if err := s.guard(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, "refresh", func(ctx context.Context) error {
			return s.repo.Refresh(ctx, s.index)
		})
	})
	metrics.BackendRequestDuration.WithLabelValues("refresh").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues("refresh", "unavailable").Inc()
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Service) guard(ctx context.Context) error {
	healthy, err := s.repo.IsHealthy(ctx, s.index)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	if !healthy {
		s.logger.Error("index health is red, refusing operation", zap.String("index", s.index))
		return domain.ErrIndexUnhealthy
	}
	return nil
}
