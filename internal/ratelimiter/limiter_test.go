package ratelimiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInMemoryLimiterAllowsWithinBudget(t *testing.T) {
	l := NewInMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "client-a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("attempt %d expected allowed", i)
		}
	}

	d, _ := l.Allow(ctx, "client-a")
	if d.Allowed {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestInMemoryLimiterIsolatesClients(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	d1, _ := l.Allow(ctx, "client-a")
	d2, _ := l.Allow(ctx, "client-b")
	if !d1.Allowed || !d2.Allowed {
		t.Fatalf("expected independent clients to each get their own budget")
	}
}

func TestInMemoryLimiterWindowExpires(t *testing.T) {
	l := NewInMemoryLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	l.Allow(ctx, "client-a")
	time.Sleep(20 * time.Millisecond)

	d, _ := l.Allow(ctx, "client-a")
	if !d.Allowed {
		t.Fatalf("expected budget to reset after window elapsed")
	}
}

func TestClientIDPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:9999"

	id := ClientID(req.Context(), req)
	if id != "ip:203.0.113.7" {
		t.Fatalf("expected leftmost forwarded address, got %q", id)
	}
}

func TestMiddlewareBlocksOverBudget(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Minute)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
}
