package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retry defaults: 3 attempts, exponential backoff from 4s capped at 10s.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 4 * time.Second
	DefaultBackoffCap  = 10 * time.Second
)

// Retryer reruns transient failures with exponential backoff. Errors the
// classifier marks non-transient are surfaced immediately.
type Retryer struct {
	maxAttempts int
	base        time.Duration
	cap         time.Duration
	transient   func(error) bool
	logger      *zap.Logger
}

// NewRetryer creates a retryer. transient decides which errors are retried.
func NewRetryer(maxAttempts int, base, backoffCap time.Duration, transient func(error) bool, logger *zap.Logger) *Retryer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if backoffCap <= 0 {
		backoffCap = DefaultBackoffCap
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		base:        base,
		cap:         backoffCap,
		transient:   transient,
		logger:      logger,
	}
}

// Do runs fn up to maxAttempts times, sleeping between attempts. The sleep is
// context-aware so a caller-side timeout aborts the wait.
func (r *Retryer) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !r.transient(lastErr) {
			return lastErr
		}
		if attempt == r.maxAttempts {
			break
		}

		delay := r.backoff(attempt)
		r.logger.Warn("transient backend error, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(lastErr),
		)
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: retries exhausted: %w", op, lastErr)
}

// backoff returns base * 2^(attempt-1), capped.
func (r *Retryer) backoff(attempt int) time.Duration {
	d := r.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.cap {
			return r.cap
		}
	}
	if d > r.cap {
		return r.cap
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
