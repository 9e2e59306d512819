package pubmed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// NCBI request budgets.
const (
	// AnonymousRate is the E-utilities limit without an API key.
	AnonymousRate = 3.0

	// KeyedRate is the E-utilities limit with an API key.
	KeyedRate = 10.0

	// DefaultBackoff is used when a 429 carries no Retry-After header.
	DefaultBackoff = 10 * time.Second
)

// RateLimiter throttles E-utilities requests with a token bucket and
// honours the backoff period of a 429 response.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// NCBI counts bursts against the per-second budget, so the bucket holds one token.
func NewRateLimiter(rps float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses requests for the given period.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow reports whether a request can be made immediately.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
