package provider

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/rpc"
)

// RunnerConfig tunes the admission/spacing/retry behavior for one upstream
// provider, per the per-provider table in spec.md §4.4 (e.g. Tatum 1.0s
// spacing, Ankr 0.5s, most native RPCs 0s).
type RunnerConfig struct {
	// MaxConcurrent is the admission semaphore's slot count.
	MaxConcurrent int
	// MinSpacing is the minimum interval between the start of two
	// consecutive requests dispatched by this runner.
	MinSpacing time.Duration
	// MaxRetries bounds the retry loop (default 3 per spec.md §4.4).
	MaxRetries int
}

// Runner is the per-provider admission controller: it owns an admission
// semaphore, a minimum-inter-request-spacing limiter, and a bounded retry
// loop. One Runner exists per upstream provider, constructed eagerly at
// composition-root time — never lazily.
type Runner struct {
	name   string
	cfg    RunnerConfig
	sem    chan struct{}
	pacer  *rate.Limiter
	logger *zap.Logger

	mu           sync.Mutex
	lastDispatch time.Time
}

// NewRunner builds a Runner with an eagerly-allocated semaphore and pacer.
func NewRunner(name string, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	var pacer *rate.Limiter
	if cfg.MinSpacing > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.MinSpacing), 1)
	}

	return &Runner{
		name:   name,
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		pacer:  pacer,
		logger: logger,
	}
}

// attempt is one invocation of fn, wrapped in admission control and
// spacing. Do calls it once per iteration of its bounded-retry loop.
func (r *Runner) attempt(ctx context.Context, fn func(ctx context.Context) (rpc.Classification, []byte, time.Duration, error)) (rpc.Classification, []byte, time.Duration, error) {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return rpc.Fatal, nil, 0, ctx.Err()
	}

	if r.pacer != nil {
		if err := r.pacer.Wait(ctx); err != nil {
			return rpc.Fatal, nil, 0, ctx.Err()
		}
	}

	r.mu.Lock()
	r.lastDispatch = time.Now()
	r.mu.Unlock()

	return fn(ctx)
}

// Do runs fn through admission control and spacing, retrying on
// RateLimited/TransientServer per spec.md §4.4's backoff rules, up to
// MaxRetries attempts. It returns the classified error on exhaustion. fn's
// third return value is the upstream's Retry-After duration when known
// (zero otherwise); a RateLimited retry sleeps that plus the exponential
// backoff term, per spec.md §4.3/§4.4.
func (r *Runner) Do(ctx context.Context, op string, fn func(ctx context.Context) (rpc.Classification, []byte, time.Duration, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		class, body, retryAfter, err := r.attempt(ctx, fn)

		switch class {
		case rpc.Ok:
			return body, nil
		case rpc.Fatal:
			if err == nil {
				err = fmt.Errorf("fatal upstream response")
			}
			return nil, chainerr.New(chainerr.BadRequest, r.name, op, err)
		case rpc.RateLimited:
			wait := backoffFor(attempt)
			if retryAfter > 0 {
				wait = retryAfter + backoffFor(attempt)
			}
			lastErr = chainerr.NewRateLimited(r.name, op, wait)
			if !r.sleep(ctx, wait) {
				return nil, chainerr.New(chainerr.UpstreamUnavailable, r.name, op, ctx.Err())
			}
		case rpc.TransientServer:
			lastErr = chainerr.New(chainerr.UpstreamUnavailable, r.name, op, err)
			if !r.sleep(ctx, time.Duration(1+attempt)*time.Second) {
				return nil, chainerr.New(chainerr.UpstreamUnavailable, r.name, op, ctx.Err())
			}
		default:
			lastErr = err
		}

		if r.logger != nil {
			r.logger.Warn("provider call retrying",
				zap.String("provider", r.name), zap.String("op", op), zap.Int("attempt", attempt))
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("retries exhausted")
	}
	return nil, chainerr.New(chainerr.UpstreamUnavailable, r.name, op+": retries exhausted", lastErr)
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffFor computes the exponential backoff for a RateLimited retry,
// per spec.md §4.4: Retry-After + 1.5^attempt seconds. The Retry-After
// component is applied by the caller when known; this returns just the
// exponential term.
func backoffFor(attempt int) time.Duration {
	seconds := math.Pow(1.5, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}
