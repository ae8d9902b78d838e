// Package resilience wraps backend calls with circuit breaking and bounded retry.
package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
	"github.com/kestrel-sec/detdex/internal/metrics"
)

// Breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetAfter       = 60 * time.Second
)

// Breaker states reported to metrics.
const (
	stateClosed = 0
	stateOpen   = 1
)

// Breaker is a circuit breaker for one backend dependency. It opens after a
// run of consecutive failures and closes again once enough time has passed
// since the last recorded failure. The open state is evaluated lazily at call
// time; there is no background timer.
type Breaker struct {
	name      string
	threshold int
	reset     time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool
}

// NewBreaker creates a breaker with the given consecutive-failure threshold
// and time-based reset window. name keys the state gauge and transition logs.
func NewBreaker(name string, threshold int, reset time.Duration, logger *zap.Logger) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if reset <= 0 {
		reset = DefaultResetAfter
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		reset:     reset,
		logger:    logger,
		now:       time.Now,
	}
}

// Do runs fn if the circuit admits the call, then records the outcome.
// While open, fn is not invoked and domain.ErrBackendUnavailable is returned
// immediately.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.allow() {
		return domain.ErrBackendUnavailable
	}
	err := fn(ctx)
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// allow reports whether a call may proceed, lazily closing an open circuit
// once the reset window since the last failure has elapsed.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.lastFailure) > b.reset {
		b.open = false
		b.failures = 0
		b.logger.Info("circuit closed after reset window",
			zap.String("breaker", b.name),
			zap.Duration("reset_after", b.reset),
		)
		metrics.BreakerState.WithLabelValues(b.name).Set(stateClosed)
		return true
	}
	return false
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if !b.open && b.failures >= b.threshold {
		b.open = true
		b.logger.Warn("circuit opened",
			zap.String("breaker", b.name),
			zap.Int("consecutive_failures", b.failures),
		)
		metrics.BreakerState.WithLabelValues(b.name).Set(stateOpen)
	}
}
