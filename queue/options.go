package queue

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Policy controls how Driver reconciles a job status bucket at startup.
type Policy string

const (
	// PolicyDoNothing leaves rows in this status bucket untouched.
	PolicyDoNothing Policy = "do_nothing"
	// PolicyRerun inserts a fresh queue entry for every row in this
	// status bucket so it becomes claimable again. For the pending bucket
	// it does nothing, since pending rows are already enqueued.
	PolicyRerun Policy = "rerun"
	// PolicyRemove deletes every row in this status bucket.
	PolicyRemove Policy = "remove"
)

type driverOptions struct {
	logger                       *slog.Logger
	pendingJobsInitialization    Policy
	failedJobsInitialization     Policy
	processingJobsInitialization Policy
	pollTime                     time.Duration
	waitFor                      func(ctx context.Context) error
}

func defaultDriverOptions() *driverOptions {
	return &driverOptions{
		logger:                       slog.New(slog.NewTextHandler(io.Discard, nil)),
		pendingJobsInitialization:    PolicyDoNothing,
		failedJobsInitialization:     PolicyRerun,
		processingJobsInitialization: PolicyRerun,
		pollTime:                     100 * time.Millisecond,
		waitFor:                      func(context.Context) error { return nil },
	}
}

// DriverOption configures a Driver.
type DriverOption func(*driverOptions)

// WithDriverLogger sets the logger used to report startup recovery and
// claim-loop activity.
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(o *driverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPendingJobsInitialization sets the startup recovery policy applied
// to jobs left in status pending. Defaults to PolicyDoNothing.
func WithPendingJobsInitialization(p Policy) DriverOption {
	return func(o *driverOptions) { o.pendingJobsInitialization = p }
}

// WithFailedJobsInitialization sets the startup recovery policy applied
// to jobs left in status failed. Defaults to PolicyRerun.
func WithFailedJobsInitialization(p Policy) DriverOption {
	return func(o *driverOptions) { o.failedJobsInitialization = p }
}

// WithProcessingJobsInitialization sets the startup recovery policy
// applied to jobs left in status processing (e.g. after a crash).
// Defaults to PolicyRerun.
func WithProcessingJobsInitialization(p Policy) DriverOption {
	return func(o *driverOptions) { o.processingJobsInitialization = p }
}

// WithPollTime sets how long the claim loop sleeps between empty polls.
// Defaults to 100ms.
func WithPollTime(d time.Duration) DriverOption {
	return func(o *driverOptions) {
		if d > 0 {
			o.pollTime = d
		}
	}
}

// WithWaitUntilCompleted registers a function OnInit awaits before
// applying startup recovery policies, typically the
// migrator.Migrations.WaitUntilCompleted of the Migrations value that
// holds the queue's migrations. Defaults to a no-op, so callers that already sequence
// Apply before calling OnInit need not set this.
func WithWaitUntilCompleted(fn func(ctx context.Context) error) DriverOption {
	return func(o *driverOptions) {
		if fn != nil {
			o.waitFor = fn
		}
	}
}
