package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"orgdata/internal/config"
	"orgdata/internal/types"
)

// Provider owns the connection pool. It establishes connectivity at
// construction time (retrying with backoff while the store is
// unreachable), hands out scoped connections, and guards health checks
// behind a circuit breaker.
type Provider struct {
	pool           *pgxpool.Pool
	log            zerolog.Logger
	acquireTimeout time.Duration
	breaker        *gobreaker.CircuitBreaker[struct{}]
	sleepFn        func(time.Duration)
}

type providerOptions struct {
	tracer  *tracelog.TraceLog
	sleepFn func(time.Duration)
}

// ProviderOption is a functional option for configuring a Provider.
type ProviderOption func(*providerOptions)

// WithQueryTracer attaches a pgx tracer to every pooled connection.
// Used to wire statement logging into the application logger.
func WithQueryTracer(tracer *tracelog.TraceLog) ProviderOption {
	return func(o *providerOptions) {
		o.tracer = tracer
	}
}

// WithSleepFunc overrides the sleep between connection retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) ProviderOption {
	return func(o *providerOptions) {
		o.sleepFn = fn
	}
}

// NewProvider builds the pool from configuration and verifies the
// store answers before returning. Connection attempts are retried
// cfg.ConnectRetries times with exponential backoff between attempts;
// if the store never answers the returned error is a connection error
// carrying the attempt count.
func NewProvider(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger, opts ...ProviderOption) (*Provider, error) {
	options := providerOptions{sleepFn: time.Sleep}
	for _, opt := range opts {
		opt(&options)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConnection, "invalid store address", err)
	}
	poolCfg.MinConns = int32(cfg.PoolMin)
	poolCfg.MaxConns = int32(cfg.PoolMax)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	if options.tracer != nil {
		poolCfg.ConnConfig.Tracer = options.tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConnection, "failed to create connection pool", err)
	}

	p := &Provider{
		pool:           pool,
		log:            log,
		acquireTimeout: cfg.AcquireTimeout,
		breaker:        newPingBreaker(),
		sleepFn:        options.sleepFn,
	}

	policy := RetryPolicy{
		MaxRetries: cfg.ConnectRetries,
		MinWait:    cfg.BackoffBase,
		MaxWait:    cfg.BackoffMax,
	}
	if err := p.connect(ctx, policy); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Int("pool_min", cfg.PoolMin).
		Int("pool_max", cfg.PoolMax).
		Dur("acquire_timeout", cfg.AcquireTimeout).
		Msg("connected to store")

	return p, nil
}

func (p *Provider) connect(ctx context.Context, policy RetryPolicy) error {
	return pingWithRetry(ctx, policy, p.pool.Ping, p.sleepFn, p.log)
}

// pingWithRetry pings until the store answers or attempts run out. The
// first attempt is immediate; each retry waits a jittered exponential
// backoff. Caller cancellation stops the loop early.
func pingWithRetry(ctx context.Context, policy RetryPolicy, ping func(context.Context) error, sleep func(time.Duration), log zerolog.Logger) error {
	var lastErr error
	maxAttempts := 1 + policy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts-1 {
			wait := computeBackoff(attempt, policy)
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", maxAttempts).
				Dur("retry_in", wait).
				Msg("store unreachable, retrying")
			sleep(wait)
		}
	}

	if ctx.Err() != nil || errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		return types.NewAppError(types.ErrCodeCanceled, "connect canceled", lastErr)
	}
	return types.NewAppErrorWithDetails(types.ErrCodeConnection, "store unreachable", lastErr,
		map[string]any{"attempts": maxAttempts})
}

// Acquire checks a connection out of the pool. It blocks until one is
// free, failing with a pool-exhausted error once the configured
// acquire timeout elapses. Cancellation of the caller's context takes
// precedence over the timeout.
func (p *Provider) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err == nil {
		return conn, nil
	}
	switch {
	case ctx.Err() != nil:
		return nil, types.NewAppError(types.ErrCodeCanceled, "acquire canceled", err)
	case errors.Is(acquireCtx.Err(), context.DeadlineExceeded):
		return nil, types.NewAppErrorWithDetails(types.ErrCodePoolExhausted,
			"connection pool exhausted", err,
			map[string]any{"timeout": p.acquireTimeout.String()})
	}
	return nil, translateErr("acquire", err)
}

// Release returns a connection to the pool. Releasing twice or
// releasing nil is a no-op, so callers can release unconditionally in
// deferred cleanup.
func (p *Provider) Release(conn *pgxpool.Conn) {
	if conn != nil {
		conn.Release()
	}
}

// WithConn acquires a connection, runs fn with it, and releases it on
// the way out regardless of fn's outcome.
func (p *Provider) WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)
	return fn(conn)
}

// Ping verifies round-trip connectivity. Repeated failures open a
// circuit breaker so periodic health checks stop hammering a store
// that is known to be down.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.pool.Ping(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return types.NewAppError(types.ErrCodeConnection, "store health circuit open", err)
		}
		return translateErr("ping", err)
	}
	return nil
}

// Healthy reports whether the store currently answers a ping.
func (p *Provider) Healthy(ctx context.Context) bool {
	return p.Ping(ctx) == nil
}

// Pool exposes the underlying pgx pool. It satisfies DBTX for
// repositories running outside a transaction and provides Begin for
// the transaction coordinator.
func (p *Provider) Pool() *pgxpool.Pool {
	return p.pool
}

// Stat reports pool usage counters.
func (p *Provider) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

// Close shuts the pool down, waiting for checked-out connections to be
// released first.
func (p *Provider) Close() {
	p.log.Info().Msg("closing connection pool")
	p.pool.Close()
}

func newPingBreaker() *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "store-ping",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}
