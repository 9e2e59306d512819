package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

func TestRetrier_AlwaysTransient_ExhaustsAttempts(t *testing.T) {
	ns := &noSleep{}
	retrier := NewRetrier(3, time.Second, WithSleep(ns.sleep), WithJitter(noJitter))

	calls := 0
	attempts, err := retrier.Do(context.Background(), func(context.Context) error {
		calls++
		return domain.NewTransientError("openai", 503, "overloaded", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrTransientGeneration)

	var failed *domain.GenerationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 3, failed.Attempts)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 503, genErr.StatusCode)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, ns.delays)
}

func TestRetrier_Fatal_SingleAttempt(t *testing.T) {
	ns := &noSleep{}
	retrier := NewRetrier(5, time.Second, WithSleep(ns.sleep))

	calls := 0
	attempts, err := retrier.Do(context.Background(), func(context.Context) error {
		calls++
		return domain.NewFatalError("anthropic", 401, "invalid x-api-key", nil)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrFatalGeneration)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Empty(t, ns.delays)
}

func TestRetrier_RecoversAfterTransient(t *testing.T) {
	ns := &noSleep{}
	retrier := NewRetrier(3, 10*time.Millisecond, WithSleep(ns.sleep), WithJitter(noJitter))

	calls := 0
	attempts, err := retrier.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return domain.NewTransientError("openai", 429, "slow down", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, ns.delays)
}

func TestRetrier_UnclassifiedErrorIsRetried(t *testing.T) {
	ns := &noSleep{}
	retrier := NewRetrier(2, 0, WithSleep(ns.sleep))

	calls := 0
	_, err := retrier.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestRetrier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	attempts, err := NewRetrier(3, time.Second).Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.Zero(t, calls)
	assert.Zero(t, attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestRetrier_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := NewRetrier(3, time.Hour, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	calls := 0
	attempts, err := retrier.Do(ctx, func(context.Context) error {
		calls++
		return domain.NewTransientError("ollama", 500, "boom", nil)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "boom")
}

func TestRetrier_Backoff(t *testing.T) {
	retrier := NewRetrier(5, time.Second, WithJitter(noJitter))

	assert.Equal(t, time.Second, retrier.Backoff(0))
	assert.Equal(t, 2*time.Second, retrier.Backoff(1))
	assert.Equal(t, 4*time.Second, retrier.Backoff(2))
	assert.Equal(t, maxBackoff, retrier.Backoff(40))
}

func TestRetrier_BackoffJitterBounds(t *testing.T) {
	retrier := NewRetrier(3, 100*time.Millisecond)

	for i := 0; i < 50; i++ {
		d := retrier.Backoff(1)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 300*time.Millisecond)
	}
}

func TestRetrier_ZeroBaseHasNoDelay(t *testing.T) {
	assert.Zero(t, NewRetrier(3, 0).Backoff(2))
}

func TestNewRetrier_MinimumOneAttempt(t *testing.T) {
	assert.Equal(t, 1, NewRetrier(0, time.Second).MaxAttempts())
	assert.Equal(t, 1, NewRetrier(-3, time.Second).MaxAttempts())
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domain.GenerationErrorKind
	}{
		{429, domain.GenerationTransient},
		{408, domain.GenerationTransient},
		{500, domain.GenerationTransient},
		{503, domain.GenerationTransient},
		{400, domain.GenerationFatal},
		{401, domain.GenerationFatal},
		{403, domain.GenerationFatal},
		{404, domain.GenerationFatal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ClassifyStatus(tt.status), "status %d", tt.status)
	}
}
