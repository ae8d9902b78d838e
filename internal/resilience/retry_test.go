package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRetryer(t *testing.T, maxAttempts int, transient func(error) bool) *Retryer {
	t.Helper()
	// Millisecond backoff keeps the tests fast.
	return NewRetryer(maxAttempts, time.Millisecond, 4*time.Millisecond, transient, zap.NewNop())
}

func alwaysTransient(error) bool { return true }

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	r := newTestRetryer(t, 3, alwaysTransient)

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_TransientRetriedUntilSuccess(t *testing.T) {
	r := newTestRetryer(t, 3, alwaysTransient)

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_Exhaustion(t *testing.T) {
	r := newTestRetryer(t, 3, alwaysTransient)
	backendErr := errors.New("connection reset")

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return backendErr
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if !errors.Is(err, backendErr) {
		t.Errorf("expected original error in chain, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_NonTransientSurfacesImmediately(t *testing.T) {
	r := newTestRetryer(t, 3, func(error) bool { return false })
	backendErr := errors.New("bad request")

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return backendErr
	})
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	r := NewRetryer(3, time.Minute, time.Minute, alwaysTransient, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, "search", func(context.Context) error {
		calls++
		return errors.New("connection reset")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetry_BackoffDoublesAndCaps(t *testing.T) {
	r := NewRetryer(5, 4*time.Second, 10*time.Second, alwaysTransient, zap.NewNop())

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 10 * time.Second},
		{4, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := r.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d): expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestRetry_AppliesDefaults(t *testing.T) {
	r := NewRetryer(0, 0, 0, alwaysTransient, zap.NewNop())
	if r.maxAttempts != DefaultMaxAttempts {
		t.Errorf("expected maxAttempts %d, got %d", DefaultMaxAttempts, r.maxAttempts)
	}
	if r.base != DefaultBackoffBase {
		t.Errorf("expected base %v, got %v", DefaultBackoffBase, r.base)
	}
	if r.cap != DefaultBackoffCap {
		t.Errorf("expected cap %v, got %v", DefaultBackoffCap, r.cap)
	}
}
