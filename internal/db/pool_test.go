package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdata/internal/config"
	"orgdata/internal/types"
)

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, MinWait: 100 * time.Millisecond, MaxWait: time.Second}
}

func TestPingWithRetry_FirstAttemptSucceeds(t *testing.T) {
	var pings, sleeps int
	ping := func(context.Context) error {
		pings++
		return nil
	}
	sleep := func(time.Duration) { sleeps++ }

	err := pingWithRetry(context.Background(), testRetryPolicy(), ping, sleep, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, pings)
	assert.Zero(t, sleeps)
}

func TestPingWithRetry_RecoversWithinBudget(t *testing.T) {
	var pings int
	ping := func(context.Context) error {
		pings++
		if pings < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	var waits []time.Duration
	sleep := func(d time.Duration) { waits = append(waits, d) }

	policy := testRetryPolicy()
	err := pingWithRetry(context.Background(), policy, ping, sleep, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, pings)
	require.Len(t, waits, 2)
	for _, w := range waits {
		assert.GreaterOrEqual(t, w, policy.MinWait)
		assert.LessOrEqual(t, w, policy.MaxWait)
	}
}

func TestPingWithRetry_ExhaustedIsConnectionError(t *testing.T) {
	var pings int
	cause := errors.New("connection refused")
	ping := func(context.Context) error {
		pings++
		return cause
	}

	err := pingWithRetry(context.Background(), testRetryPolicy(), ping, func(time.Duration) {}, zerolog.Nop())
	appErr := requireAppErr(t, err, types.ErrCodeConnection)
	// One initial attempt plus the configured retries, then stop: never
	// retried indefinitely.
	assert.Equal(t, 4, pings)
	assert.Equal(t, 4, appErr.Details["attempts"])
	assert.ErrorIs(t, appErr, cause)
	assert.True(t, types.CodeOf(err).Retryable())
}

func TestPingWithRetry_CallerCancellationStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var pings int
	ping := func(context.Context) error {
		pings++
		cancel()
		return context.Canceled
	}

	var sleeps int
	err := pingWithRetry(ctx, testRetryPolicy(), ping, func(time.Duration) { sleeps++ }, zerolog.Nop())
	requireAppErr(t, err, types.ErrCodeCanceled)
	assert.Equal(t, 1, pings)
	assert.Zero(t, sleeps)
}

func TestPingWithRetry_DeadlineReportsCanceled(t *testing.T) {
	ping := func(context.Context) error {
		return context.DeadlineExceeded
	}

	err := pingWithRetry(context.Background(), RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		ping, func(time.Duration) {}, zerolog.Nop())
	requireAppErr(t, err, types.ErrCodeCanceled)
}

func TestNewProvider_BoundedConnectRetries(t *testing.T) {
	// Port 1 refuses immediately, so every ping attempt fails fast and
	// the whole retry budget is consumed without real waits.
	cfg := config.DatabaseConfig{
		URL:               types.SecretString("postgres://nobody@127.0.0.1:1/orgdata?connect_timeout=1"),
		PoolMax:           1,
		MaxConnLifetime:   time.Minute,
		HealthCheckPeriod: time.Minute,
		AcquireTimeout:    time.Second,
		ConnectRetries:    2,
		BackoffBase:       100 * time.Millisecond,
		BackoffMax:        time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var waits []time.Duration
	_, err := NewProvider(ctx, cfg, zerolog.Nop(),
		WithSleepFunc(func(d time.Duration) { waits = append(waits, d) }))

	appErr := requireAppErr(t, err, types.ErrCodeConnection)
	assert.Equal(t, 3, appErr.Details["attempts"])
	require.Len(t, waits, 2)
	for _, w := range waits {
		assert.GreaterOrEqual(t, w, cfg.BackoffBase)
		assert.LessOrEqual(t, w, cfg.BackoffMax)
	}
}

func TestNewProvider_RejectsMalformedURL(t *testing.T) {
	cfg := config.DatabaseConfig{URL: types.SecretString("://not-a-dsn")}

	_, err := NewProvider(context.Background(), cfg, zerolog.Nop())
	requireAppErr(t, err, types.ErrCodeConnection)
}

func TestNewPingBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := newPingBreaker()
	fail := func() (struct{}, error) { return struct{}{}, errors.New("down") }

	for i := 0; i < 6; i++ {
		_, err := breaker.Execute(fail)
		require.Error(t, err)
	}

	// The seventh call must fail fast without invoking the probe.
	var probed bool
	_, err := breaker.Execute(func() (struct{}, error) {
		probed = true
		return struct{}{}, nil
	})
	require.Error(t, err)
	assert.False(t, probed)
}
