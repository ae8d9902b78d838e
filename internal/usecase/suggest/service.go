// Package suggest serves prefix autocomplete, independent of the search path.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/metrics"
	"github.com/kestrel-sec/detdex/internal/resilience"
)

// Suggestion limits.
const (
	// MinPrefixLength: shorter prefixes are too unselective to be useful and
	// yield an empty result rather than an error.
	MinPrefixLength = 2
	DefaultLimit    = 10
	MaxLimit        = 20

	// latencyBudget marks a degraded-mode signal, never a hard failure.
	latencyBudget = 500 * time.Millisecond

	operation = "suggest"
)

// Repository executes completion suggest queries.
type Repository interface {
	Suggest(ctx context.Context, index, prefix string, limit int) ([]string, error)
}

// Service handles autocomplete suggestions.
type Service struct {
	repo    Repository
	breaker *resilience.Breaker
	retry   *resilience.Retryer
	index   string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a suggestion service.
func New(
	repo Repository,
	breaker *resilience.Breaker,
	retry *resilience.Retryer,
	index string,
	logger *zap.Logger,
) *Service {
	return &Service{repo: repo, breaker: breaker, retry: retry, index: index, logger: logger, now: time.Now}
}

// Suggest returns ranked completion candidates for the prefix. The limit is
// clamped to MaxLimit; non-positive limits fall back to DefaultLimit.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	metrics.SearchRequestsTotal.WithLabelValues(operation).Inc()

	if utf8.RuneCountInString(prefix) < MinPrefixLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var suggestions []string
	start := s.now()
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, operation, func(ctx context.Context) error {
			var suggestErr error
			suggestions, suggestErr = s.repo.Suggest(ctx, s.index, prefix, limit)
			return suggestErr
		})
	})
	elapsed := s.now().Sub(start)
	metrics.BackendRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	if err != nil {
		if !errors.Is(err, domain.ErrBackendUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
		}
		metrics.SearchErrorsTotal.WithLabelValues(operation, "unavailable").Inc()
		return nil, err
	}

	if elapsed > latencyBudget {
		metrics.SuggestionLatencyBreachesTotal.Inc()
		s.logger.Warn("suggestion latency budget exceeded",
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", latencyBudget),
		)
	}

	return suggestions, nil
}
