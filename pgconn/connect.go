package pgconn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option configures pool creation.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	maxConns          int32
	minConns          int32
	healthCheckPeriod time.Duration
	maxConnIdleTime   time.Duration
	maxConnLifetime   time.Duration
	retryAttempts     int
	retryInterval     time.Duration
}

func defaultOptions() *options {
	return &options{
		maxConns:          10,
		minConns:          2,
		healthCheckPeriod: time.Minute,
		maxConnIdleTime:   10 * time.Minute,
		maxConnLifetime:   30 * time.Minute,
		retryAttempts:     3,
		retryInterval:     5 * time.Second,
	}
}

// WithLogger sets the logger used for connection retry events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxConns sets the maximum number of pooled connections. Default: 10.
func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

// WithMinConns sets the minimum number of idle connections kept open. Default: 2.
func WithMinConns(n int32) Option {
	return func(o *options) { o.minConns = n }
}

// WithHealthCheckPeriod sets how often pgx checks idle connections. Default: 1m.
func WithHealthCheckPeriod(d time.Duration) Option {
	return func(o *options) { o.healthCheckPeriod = d }
}

// WithMaxConnIdleTime bounds how long a connection may sit idle. Default: 10m.
func WithMaxConnIdleTime(d time.Duration) Option {
	return func(o *options) { o.maxConnIdleTime = d }
}

// WithMaxConnLifetime bounds the total lifetime of a connection. Default: 30m.
func WithMaxConnLifetime(d time.Duration) Option {
	return func(o *options) { o.maxConnLifetime = d }
}

// WithRetry configures the number of connection attempts and base interval
// between them during Open. Default: 3 attempts, 5s base interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// Open creates a Postgres connection pool with sensible defaults, retrying
// on transient failures during startup.
func Open(ctx context.Context, connString string, opts ...Option) (*pgxpool.Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	cfg.MaxConns = o.maxConns
	cfg.MinConns = o.minConns
	cfg.HealthCheckPeriod = o.healthCheckPeriod
	cfg.MaxConnIdleTime = o.maxConnIdleTime
	cfg.MaxConnLifetime = o.maxConnLifetime

	return connect(ctx, cfg, o)
}

func connect(ctx context.Context, cfg *pgxpool.Config, o *options) (*pgxpool.Pool, error) {
	attempts := max(o.retryAttempts, 1)

	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err := pool.Ping(ctx); err == nil {
				return pool, nil
			} else {
				pool.Close()
			}
		}

		o.logger.WarnContext(ctx, "pgconn: connection attempt failed",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
		)

		if i == attempts-1 {
			break
		}
		if waitErr := wait(ctx, time.Duration(i+1)*o.retryInterval); waitErr != nil {
			return nil, errors.Join(ErrFailedToOpenConnection, waitErr)
		}
	}

	return nil, ErrFailedToOpenConnection
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
