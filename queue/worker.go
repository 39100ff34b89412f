package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Stats are observability counters for a WorkerPool.
type Stats struct {
	Processed int64
	Failed    int64
	Active    int32
	Running   bool
}

// WorkerPool hosts N concurrent consumers pulling from a Driver, invoking
// user-registered handlers with retry and cancellation.
type WorkerPool struct {
	driver *Driver

	mu       sync.RWMutex
	handlers map[string]Handler
	attempts sync.Map // job id -> attempt count, reset on success

	concurrency     int
	baseBackoff     time.Duration
	maxBackoff      time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	stopping atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int32
}

// WorkerPoolOption configures a WorkerPool.
type WorkerPoolOption func(*WorkerPool)

// WithConcurrency sets how many goroutines concurrently pull from the
// driver. Defaults to 1.
func WithConcurrency(n int) WorkerPoolOption {
	return func(wp *WorkerPool) {
		if n > 0 {
			wp.concurrency = n
		}
	}
}

// WithBaseBackoff sets the initial retry delay; each subsequent retry
// doubles it up to WithMaxBackoff, plus jitter. Defaults to 100ms.
func WithBaseBackoff(d time.Duration) WorkerPoolOption {
	return func(wp *WorkerPool) {
		if d > 0 {
			wp.baseBackoff = d
		}
	}
}

// WithMaxBackoff caps the retry delay computed from WithBaseBackoff.
// Defaults to 30s.
func WithMaxBackoff(d time.Duration) WorkerPoolOption {
	return func(wp *WorkerPool) {
		if d > 0 {
			wp.maxBackoff = d
		}
	}
}

// WithShutdownTimeout bounds how long ShutdownGracefully waits for
// in-flight handlers to finish. Defaults to 30s.
func WithShutdownTimeout(d time.Duration) WorkerPoolOption {
	return func(wp *WorkerPool) {
		if d > 0 {
			wp.shutdownTimeout = d
		}
	}
}

// WithPoolLogger sets the logger used to report claim and handler activity.
func WithPoolLogger(l *slog.Logger) WorkerPoolOption {
	return func(wp *WorkerPool) {
		if l != nil {
			wp.logger = l
		}
	}
}

// NewWorkerPool creates a WorkerPool that claims jobs from driver.
func NewWorkerPool(driver *Driver, opts ...WorkerPoolOption) *WorkerPool {
	wp := &WorkerPool{
		driver:          driver,
		handlers:        make(map[string]Handler),
		concurrency:     1,
		baseBackoff:     100 * time.Millisecond,
		maxBackoff:      30 * time.Second,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(wp)
	}
	return wp
}

// RegisterHandler registers a handler for its task name, replacing any
// existing handler for that name.
func (wp *WorkerPool) RegisterHandler(h Handler) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.handlers[h.Name()] = h
}

// RegisterHandlers registers multiple handlers.
func (wp *WorkerPool) RegisterHandlers(hs ...Handler) {
	for _, h := range hs {
		wp.RegisterHandler(h)
	}
}

// Start claims and processes jobs until ctx is cancelled. Blocking; use
// Run for errgroup-style coordinated lifecycle management.
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	if wp.cancel != nil {
		wp.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(wp.handlers) == 0 {
		wp.mu.Unlock()
		return ErrNoHandlers
	}
	runCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.mu.Unlock()

	wp.stopping.Store(false)
	wp.logger.InfoContext(runCtx, "worker pool started", slog.Int("concurrency", wp.concurrency))

	for i := 0; i < wp.concurrency; i++ {
		wp.wg.Add(1)
		go wp.runLoop(runCtx)
	}

	<-runCtx.Done()
	wp.wg.Wait()

	if errors.Is(runCtx.Err(), context.Canceled) && wp.stopping.Load() {
		return nil
	}
	return runCtx.Err()
}

// Stop halts the claim loop by cancelling the pool's context. It does not
// wait for running handlers; the context passed to them is cancelled too.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.cancel == nil {
		wp.mu.Unlock()
		return ErrNotStarted
	}
	wp.stopping.Store(true)
	cancel := wp.cancel
	wp.cancel = nil
	wp.mu.Unlock()

	cancel()
	return nil
}

// ShutdownGracefully halts the claim loop and waits for in-flight handlers
// to finish, up to the configured shutdown timeout.
func (wp *WorkerPool) ShutdownGracefully(ctx context.Context) error {
	if err := wp.Stop(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, wp.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
		return nil
	case <-timeoutCtx.Done():
		return fmt.Errorf("queue: shutdown timeout exceeded after %s", wp.shutdownTimeout)
	}
}

// Run provides golang.org/x/sync/errgroup compatibility: a function that
// starts the pool and performs graceful shutdown when ctx is cancelled.
func (wp *WorkerPool) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- wp.Start(ctx) }()

		select {
		case <-ctx.Done():
			_ = wp.ShutdownGracefully(context.Background())
			<-errCh
			return nil
		case err := <-errCh:
			return err
		}
	}
}

// Stats returns current observability counters.
func (wp *WorkerPool) Stats() Stats {
	wp.mu.RLock()
	running := wp.cancel != nil
	wp.mu.RUnlock()

	return Stats{
		Processed: wp.processed.Load(),
		Failed:    wp.failed.Load(),
		Active:    wp.active.Load(),
		Running:   running,
	}
}

// Healthcheck reports whether the pool is running.
func (wp *WorkerPool) Healthcheck(ctx context.Context) error {
	if !wp.Stats().Running {
		return errors.New("queue: worker pool not running")
	}
	return nil
}

func (wp *WorkerPool) runLoop(ctx context.Context) {
	defer wp.wg.Done()

	for job, err := range wp.driver.Iterate(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			wp.logger.ErrorContext(ctx, "claim failed", slog.String("error", err.Error()))
			continue
		}
		wp.processJob(ctx, job)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job Job) {
	wp.active.Add(1)
	defer wp.active.Add(-1)

	env, err := decodeEnvelope(job.Payload)
	if err != nil {
		wp.logger.ErrorContext(ctx, "failed to decode job envelope",
			slog.String("job_id", job.ID.String()), slog.String("error", err.Error()))
		_ = wp.driver.Failed(ctx, job.ID)
		wp.failed.Add(1)
		return
	}

	wp.mu.RLock()
	handler, ok := wp.handlers[env.Task]
	wp.mu.RUnlock()
	if !ok {
		wp.logger.ErrorContext(ctx, "no handler registered for task",
			slog.String("job_id", job.ID.String()), slog.String("task", env.Task))
		_ = wp.driver.Failed(ctx, job.ID)
		wp.failed.Add(1)
		return
	}

	handlerErr := wp.invoke(ctx, handler, env.Payload)
	if handlerErr == nil {
		wp.attempts.Delete(job.ID)
		if err := wp.driver.Finished(ctx, job.ID); err != nil {
			wp.logger.ErrorContext(ctx, "failed to mark job finished",
				slog.String("job_id", job.ID.String()), slog.String("error", err.Error()))
		}
		wp.processed.Add(1)
		return
	}

	wp.handleFailure(ctx, job, handler, handlerErr)
}

// invoke calls the handler with panic recovery: a single bad handler must
// not crash the worker pool.
func (wp *WorkerPool) invoke(ctx context.Context, h Handler, payload json.RawMessage) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("queue: panic in handler %s: %v", h.Name(), r)
		}
	}()
	return h.Handle(ctx, payload)
}

func (wp *WorkerPool) handleFailure(ctx context.Context, job Job, h Handler, handlerErr error) {
	n, _ := wp.attempts.LoadOrStore(job.ID, 1)
	attempt := n.(int)

	if attempt <= h.MaxRetryCount() {
		wp.attempts.Store(job.ID, attempt+1)
		delay := backoff(wp.baseBackoff, wp.maxBackoff, attempt)

		wp.logger.WarnContext(ctx, "job failed, retrying",
			slog.String("job_id", job.ID.String()),
			slog.String("task", h.Name()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", handlerErr.Error()))

		if err := wp.driver.Requeue(ctx, job.ID, delay); err != nil {
			wp.logger.ErrorContext(ctx, "failed to requeue job",
				slog.String("job_id", job.ID.String()), slog.String("error", err.Error()))
		}
		return
	}

	wp.attempts.Delete(job.ID)
	wp.logger.ErrorContext(ctx, "job failed, retries exhausted",
		slog.String("job_id", job.ID.String()),
		slog.String("task", h.Name()),
		slog.String("error", handlerErr.Error()))

	if err := wp.driver.Failed(ctx, job.ID); err != nil {
		wp.logger.ErrorContext(ctx, "failed to mark job failed",
			slog.String("job_id", job.ID.String()), slog.String("error", err.Error()))
	}
	wp.failed.Add(1)
}

// backoff computes an exponential delay bounded by max, with up to 20%
// jitter to avoid thundering-herd retries across workers.
func backoff(base, maxDelay time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(d) / 5 + 1))
	return d + jitter
}
