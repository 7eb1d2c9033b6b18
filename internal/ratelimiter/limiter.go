// Package ratelimiter enforces a per-client request budget ahead of the
// provider gateway. The Redis-backed Limiter is the primary implementation
// (fixed window, fail-open on Redis errors); an in-process sliding-window
// Limiter serves as the fallback when no REDIS_URL is configured.
package ratelimiter

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter checks whether clientID may make another request right now.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (Decision, error)
}

// RedisLimiter is a fixed-window counter stored in Redis: INCR the window
// key, EXPIRE it on first increment, and set a separate blocked key with
// its own TTL once the client goes over budget. Redis errors fail open —
// a degraded rate limiter must never itself take the gateway down.
type RedisLimiter struct {
	rdb           *redis.Client
	limit         int
	window        time.Duration
	blockDuration time.Duration
	keyPrefix     string
}

// NewRedisLimiter builds a RedisLimiter allowing limit requests per window,
// blocking offenders for blockDuration once they exceed it.
func NewRedisLimiter(rdb *redis.Client, limit int, window, blockDuration time.Duration, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, blockDuration: blockDuration, keyPrefix: keyPrefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	key := l.keyPrefix + ":" + clientID
	blockKey := key + ":blocked"

	blocked, err := l.rdb.Get(ctx, blockKey).Result()
	if err == nil && blocked == "1" {
		ttl, _ := l.rdb.TTL(ctx, blockKey).Result()
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetIn: ttl}, nil
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		// Redis unavailable: fail open.
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, nil
	}

	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}

	if count > int64(l.limit) {
		l.rdb.Set(ctx, blockKey, "1", l.blockDuration)
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetIn: l.blockDuration}, nil
	}

	ttl, _ := l.rdb.TTL(ctx, key).Result()
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: l.limit, Remaining: remaining, ResetIn: ttl}, nil
}

// InMemoryLimiter is a sliding-window limiter kept entirely in process
// memory, used when no external store is configured. Safe for concurrent
// use.
type InMemoryLimiter struct {
	limit    int
	window   time.Duration
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewInMemoryLimiter builds an InMemoryLimiter allowing limit requests per
// rolling window.
func NewInMemoryLimiter(limit int, window time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{limit: limit, window: window, attempts: make(map[string][]time.Time)}
}

func (l *InMemoryLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	valid := make([]time.Time, 0, len(l.attempts[clientID]))
	for _, t := range l.attempts[clientID] {
		if now.Sub(t) < l.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.limit {
		l.attempts[clientID] = valid
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetIn: l.window}, nil
	}

	valid = append(valid, now)
	l.attempts[clientID] = valid
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - len(valid), ResetIn: l.window}, nil
}

// ClientID extracts the identity a request is budgeted against: an
// authenticated caller id from context when present, else the leftmost
// address in X-Forwarded-For, else RemoteAddr.
func ClientID(ctx context.Context, r *http.Request) string {
	if v := ctx.Value(contextCallerIDKey); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return "uid:" + id
		}
	}
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + strings.Split(ip, ",")[0]
}

type contextKey int

const contextCallerIDKey contextKey = iota

// Middleware wraps an http.Handler with a rate-limit check, writing
// X-RateLimit-* headers and a 429 with Retry-After when the budget is
// exhausted.
func Middleware(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ClientID(r.Context(), r)
			decision, err := l.Allow(r.Context(), id)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(decision.ResetIn.Seconds())))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.ResetIn.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
