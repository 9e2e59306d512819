package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// maxBackoff caps a single retry delay.
const maxBackoff = 2 * time.Minute

// Retrier runs an operation with bounded attempts and exponential backoff.
// Transient failures are retried after base*2^attempt plus a jitter drawn
// uniformly from [0, base). Fatal failures end the loop after one attempt.
// The context is checked between attempts and while waiting.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	jitter      func(time.Duration) time.Duration
	sleep       func(context.Context, time.Duration) error
}

// RetrierOption customises a Retrier.
type RetrierOption func(*Retrier)

// WithSleep replaces the wait between attempts. Used by tests to avoid real delays.
func WithSleep(sleep func(context.Context, time.Duration) error) RetrierOption {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

// WithJitter replaces the jitter source.
func WithJitter(jitter func(time.Duration) time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.jitter = jitter
	}
}

// NewRetrier creates a retrier making at most maxAttempts attempts.
// Values below 1 are treated as 1.
func NewRetrier(maxAttempts int, baseDelay time.Duration, opts ...RetrierOption) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r := &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		jitter:      uniformJitter,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Backoff returns the delay before the retry that follows attempt (0-based).
func (r *Retrier) Backoff(attempt int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}
	d := r.baseDelay
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	d = min(d, maxBackoff)
	return d + r.jitter(r.baseDelay)
}

// Do runs op until it succeeds, fails fatally, or the attempt budget is spent.
// It returns the number of attempts made. Any failure is returned as a
// *domain.GenerationFailedError wrapping the last cause.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) (int, error) {
	var last error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, cancelled(attempt, err, last)
		}

		err := op(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		last = err

		if domain.IsFatalGeneration(err) {
			logger.Warn("Attempt %d failed fatally: %v", attempt+1, err)
			return attempt + 1, &domain.GenerationFailedError{Attempts: attempt + 1, Cause: err}
		}
		if attempt == r.maxAttempts-1 {
			break
		}

		delay := r.Backoff(attempt)
		logger.Warn("Attempt %d/%d failed: %v. Retrying in %s", attempt+1, r.maxAttempts, err, delay)
		if err := r.sleep(ctx, delay); err != nil {
			return attempt + 1, cancelled(attempt+1, err, last)
		}
	}
	return r.maxAttempts, &domain.GenerationFailedError{Attempts: r.maxAttempts, Cause: last}
}

func cancelled(attempts int, ctxErr, last error) error {
	cause := ctxErr
	if last != nil {
		cause = fmt.Errorf("%w (last error: %v)", ctxErr, last)
	}
	return &domain.GenerationFailedError{Attempts: attempts, Cause: cause}
}

func uniformJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return rand.N(base)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
