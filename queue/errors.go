package queue

import "errors"

// Sentinel errors for queue operations.
var (
	// ErrDecodeJobFailed is returned when a job payload cannot be decoded
	// into its envelope or into a handler's payload type, and by
	// EncodePayload when the payload cannot be marshalled.
	ErrDecodeJobFailed = errors.New("queue: failed to decode job payload")

	// ErrFailedToAdd is returned when push's enqueue precondition fails.
	ErrFailedToAdd = errors.New("queue: failed to add job")

	// ErrHandlerNotFound names the case where no handler is registered for
	// a job's task name. No function in this package returns it: the worker
	// pool logs such a job and marks it failed.
	ErrHandlerNotFound = errors.New("queue: no handler registered for task")

	// ErrNoHandlers is returned by Start when a WorkerPool has no
	// registered handlers.
	ErrNoHandlers = errors.New("queue: worker pool has no registered handlers")

	// ErrAlreadyStarted is returned by Start when the pool is already running.
	ErrAlreadyStarted = errors.New("queue: worker pool already started")

	// ErrNotStarted is returned by Stop/ShutdownGracefully when the pool
	// was never started.
	ErrNotStarted = errors.New("queue: worker pool not started")

	// errNoWork is an internal sentinel signaling the claim loop found no
	// eligible queue entry; never returned to callers.
	errNoWork = errors.New("queue: no work available")
)
