package persist

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// options holds Store configuration.
type options struct {
	logger        *slog.Logger
	defaultTTL    time.Duration
	sweepInterval time.Duration
	waitFor       func(ctx context.Context) error
}

func defaultOptions() *options {
	return &options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultTTL:    0, // never, unless overridden
		sweepInterval: 600 * time.Second,
		waitFor:       func(context.Context) error { return nil },
	}
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used to report sweeper activity.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDefaultTTL sets the TTL applied when Create or Set is called with a
// zero ttl. Defaults to never-expire.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) { o.defaultTTL = d }
}

// WithSweepInterval sets how often Sweeper deletes expired rows. Defaults
// to 600s.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweepInterval = d }
}

// WithWaitUntilCompleted registers a function Sweeper awaits before its
// first tick, typically the migrator.Migrations.WaitUntilCompleted of the
// Migrations value that holds the store's migrations. Defaults to a no-op, so callers that
// already sequence Apply before starting the sweeper need not set this.
func WithWaitUntilCompleted(fn func(ctx context.Context) error) Option {
	return func(o *options) {
		if fn != nil {
			o.waitFor = fn
		}
	}
}
