package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain"
)

func newTestBreaker(t *testing.T, threshold int, reset time.Duration) *Breaker {
	t.Helper()
	return NewBreaker("test", threshold, reset, zap.NewNop())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := newTestBreaker(t, 5, time.Minute)
	ctx := context.Background()
	backendErr := errors.New("connection refused")

	calls := 0
	fail := func(context.Context) error {
		calls++
		return backendErr
	}

	for i := 0; i < 5; i++ {
		if err := b.Do(ctx, fail); !errors.Is(err, backendErr) {
			t.Fatalf("attempt %d: expected backend error, got %v", i, err)
		}
	}
	if calls != 5 {
		t.Fatalf("expected 5 backend calls, got %d", calls)
	}

	// Sixth call fails fast without reaching the backend.
	err := b.Do(ctx, fail)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable while open, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected backend untouched while open, got %d calls", calls)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := newTestBreaker(t, 5, time.Minute)
	ctx := context.Background()
	backendErr := errors.New("connection refused")

	fail := func(context.Context) error { return backendErr }
	ok := func(context.Context) error { return nil }

	for i := 0; i < 4; i++ {
		_ = b.Do(ctx, fail)
	}
	if err := b.Do(ctx, ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Four more failures stay below the threshold again.
	for i := 0; i < 4; i++ {
		if err := b.Do(ctx, fail); !errors.Is(err, backendErr) {
			t.Fatalf("expected backend error, got %v", err)
		}
	}
	if err := b.Do(ctx, ok); err != nil {
		t.Errorf("expected circuit still closed, got %v", err)
	}
}

func TestBreaker_ClosesAfterResetWindow(t *testing.T) {
	b := newTestBreaker(t, 5, 60*time.Second)
	ctx := context.Background()
	backendErr := errors.New("connection refused")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	b.now = func() time.Time { return now }

	fail := func(context.Context) error { return backendErr }
	for i := 0; i < 5; i++ {
		_ = b.Do(ctx, fail)
	}

	// Still within the window: fail fast.
	now = base.Add(60 * time.Second)
	if err := b.Do(ctx, fail); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable within reset window, got %v", err)
	}

	// Past the window: circuit closes and the call goes through.
	now = base.Add(61 * time.Second)
	calls := 0
	if err := b.Do(ctx, func(context.Context) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("expected call after reset window, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected backend reached after reset, got %d calls", calls)
	}
}

func TestBreaker_AppliesDefaults(t *testing.T) {
	b := NewBreaker("test", 0, 0, zap.NewNop())
	if b.threshold != DefaultFailureThreshold {
		t.Errorf("expected threshold %d, got %d", DefaultFailureThreshold, b.threshold)
	}
	if b.reset != DefaultResetAfter {
		t.Errorf("expected reset %v, got %v", DefaultResetAfter, b.reset)
	}
}
