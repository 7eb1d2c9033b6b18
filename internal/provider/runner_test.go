package provider

import (
	"context"
	"testing"
	"time"

	"github.com/watchwallet/gateway/internal/rpc"
)

// TestDoHonorsRetryAfter drives a RateLimited response carrying a
// Retry-After duration and checks the runner actually sleeps at least that
// long before the next attempt, rather than only the exponential backoff
// term.
func TestDoHonorsRetryAfter(t *testing.T) {
	r := NewRunner("test", RunnerConfig{MaxRetries: 2}, nil)

	var calls int
	start := time.Now()
	_, err := r.Do(context.Background(), "op", func(ctx context.Context) (rpc.Classification, []byte, time.Duration, error) {
		calls++
		if calls == 1 {
			return rpc.RateLimited, nil, 150 * time.Millisecond, nil
		}
		return rpc.Ok, []byte("ok"), 0, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if elapsed < 150*time.Millisecond {
		t.Fatalf("expected the runner to sleep at least the Retry-After duration, slept %v", elapsed)
	}
}

// TestDoFallsBackToExponentialBackoffWithoutRetryAfter confirms the
// exponential term alone still applies when the upstream supplies no
// Retry-After value.
func TestDoFallsBackToExponentialBackoffWithoutRetryAfter(t *testing.T) {
	r := NewRunner("test", RunnerConfig{MaxRetries: 2}, nil)

	var calls int
	_, err := r.Do(context.Background(), "op", func(ctx context.Context) (rpc.Classification, []byte, time.Duration, error) {
		calls++
		if calls == 1 {
			return rpc.RateLimited, nil, 0, nil
		}
		return rpc.Ok, []byte("ok"), 0, nil
	})
	if err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDoReturnsFatalWithoutRetry(t *testing.T) {
	r := NewRunner("test", RunnerConfig{MaxRetries: 3}, nil)

	var calls int
	_, err := r.Do(context.Background(), "op", func(ctx context.Context) (rpc.Classification, []byte, time.Duration, error) {
		calls++
		return rpc.Fatal, nil, 0, nil
	})
	if err == nil {
		t.Fatalf("expected an error for a fatal classification")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt for a fatal response, got %d", calls)
	}
}
