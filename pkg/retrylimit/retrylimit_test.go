package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestRetryUntilSuccess(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Classify(errors.New("bad gateway"), http.StatusBadGateway)
		}
		return nil
	}, nil, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFatalStopsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("missing access")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Classify(boom, http.StatusForbidden)
	}, nil, fastConfig())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode())
}

func TestMaxAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 2
	calls := 0
	boom := errors.New("flaky")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return boom
	}, nil, cfg)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error { return nil }, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLimiterAdapts(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)
	lim.RateLimited()
	assert.Equal(t, 5.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 5.0, lim.CurrentLimit(), "no increase inside the cooldown")

	lim.cooldown = 0
	lim.Success()
	assert.Equal(t, 6.0, lim.CurrentLimit())

	for i := 0; i < 10; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit(), "never below the minimum")
}

func TestRateLimitedLowersLimit(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 20, 1, 0.5)
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return Classify(errors.New("slow down"), http.StatusTooManyRequests)
		}
		return nil
	}, lim, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 4.0, lim.CurrentLimit())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil, 500))

	plain := errors.New("x")
	assert.Same(t, plain, Classify(plain, 0))

	var fatal *FatalError
	assert.ErrorAs(t, Classify(plain, 404), &fatal)
	assert.False(t, errors.As(Classify(plain, 503), &fatal))
}
