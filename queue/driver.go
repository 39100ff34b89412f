package queue

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

// claimSQL deletes and returns the oldest eligible queue entry. Row-level
// locking with SKIP LOCKED guarantees concurrent workers executing this
// statement return disjoint rows or none; this exact shape must be
// preserved for the claim protocol's atomicity guarantee to hold.
const claimSQL = `
	DELETE FROM ` + queueTable + ` pse
	WHERE pse.job_id = (
		SELECT pse_inner.job_id FROM ` + queueTable + ` pse_inner
		WHERE (pse_inner.delayed_until IS NULL OR pse_inner.delayed_until <= now())
		ORDER BY pse_inner."createdAt" ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1)
	RETURNING pse.job_id
`

// Driver implements the job queue's storage protocol: push, the atomic
// claim-next, completion, failure, metadata, and startup recovery.
type Driver struct {
	pool    *pgxpool.Pool
	opts    *driverOptions
	stopped atomic.Bool
}

// NewDriver creates a Driver bound to pool. Call Migrations and Apply them,
// then OnInit, before serving traffic.
func NewDriver(pool *pgxpool.Pool, opts ...DriverOption) *Driver {
	o := defaultDriverOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Driver{pool: pool, opts: o}
}

// OnInit awaits the configured WithWaitUntilCompleted function (the
// Migration Engine reaching completed or failed, by convention), then
// applies the configured startup recovery policy to jobs left in each
// status bucket from a previous run. Call this before serving traffic.
func (d *Driver) OnInit(ctx context.Context) error {
	if err := d.opts.waitFor(ctx); err != nil {
		return err
	}
	return pgconn.WithConnection(ctx, d.pool, func(q pgconn.Queryer) error {
		buckets := []struct {
			status Status
			policy Policy
		}{
			{StatusPending, d.opts.pendingJobsInitialization},
			{StatusFailed, d.opts.failedJobsInitialization},
			{StatusProcessing, d.opts.processingJobsInitialization},
		}
		for _, b := range buckets {
			if err := d.applyInitPolicy(ctx, q, b.status, b.policy); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Driver) applyInitPolicy(ctx context.Context, q pgconn.Queryer, status Status, policy Policy) error {
	switch policy {
	case PolicyDoNothing, "":
		return nil
	case PolicyRemove:
		_, err := q.Exec(ctx, `DELETE FROM `+jobsTable+` WHERE status = $1`, status)
		return err
	case PolicyRerun:
		if status == StatusPending {
			return nil // already enqueued
		}
		rows, err := q.Query(ctx, `SELECT id FROM `+jobsTable+` WHERE status = $1`, status)
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := q.Exec(ctx, `
				INSERT INTO `+queueTable+` (job_id, "createdAt") VALUES ($1, now())
				ON CONFLICT (job_id) DO NOTHING
			`, id); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// Push durably enqueues payload, returning the new job's id. Both rows are
// absent if the transaction fails.
func (d *Driver) Push(ctx context.Context, payload []byte, opts ...PushOption) (uuid.UUID, error) {
	cfg := &pushConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	id := uuid.New()
	err := pgconn.WithTx(ctx, d.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO `+jobsTable+` (id, job, status) VALUES ($1, $2, $3)
		`, id, payload, StatusPending); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO `+queueTable+` (job_id, "createdAt", delayed_until) VALUES ($1, now(), $2)
		`, id, cfg.delayedUntil)
		return err
	})
	if err != nil {
		return uuid.Nil, errors.Join(ErrFailedToAdd, err)
	}
	return id, nil
}

// claimOnce runs the claim protocol once, returning errNoWork if no
// eligible queue entry exists.
func (d *Driver) claimOnce(ctx context.Context) (*Job, error) {
	var job *Job
	err := pgconn.WithTx(ctx, d.pool, func(tx pgx.Tx) error {
		for {
			var jobID uuid.UUID
			if err := tx.QueryRow(ctx, claimSQL).Scan(&jobID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return errNoWork
				}
				return err
			}

			var payload []byte
			err := tx.QueryRow(ctx, `
				SELECT job FROM `+jobsTable+` WHERE id = $1 FOR UPDATE SKIP LOCKED
			`, jobID).Scan(&payload)
			if errors.Is(err, pgx.ErrNoRows) {
				continue // orphan queue entry, loop back to step 1
			}
			if err != nil {
				return err
			}

			if _, err := tx.Exec(ctx, `
				UPDATE `+jobsTable+` SET status = $1, "lastModified" = now() WHERE id = $2
			`, StatusProcessing, jobID); err != nil {
				return err
			}

			job = &Job{ID: jobID, Payload: payload, Status: StatusProcessing}
			return nil
		}
	})
	if err != nil {
		if errors.Is(err, errNoWork) {
			return nil, errNoWork
		}
		return nil, err
	}
	return job, nil
}

// Finished deletes a completed job.
func (d *Driver) Finished(ctx context.Context, id uuid.UUID) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM `+jobsTable+` WHERE id = $1`, id)
	return err
}

// Failed marks a job as failed after its retries are exhausted.
func (d *Driver) Failed(ctx context.Context, id uuid.UUID) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE `+jobsTable+` SET status = $1, "lastModified" = now() WHERE id = $2
	`, StatusFailed, id)
	return err
}

// Requeue returns a job to pending and inserts a fresh queue entry after
// delay (immediately if delay <= 0), making it claimable again. Used by
// the worker pool's retry path to implement backoff without blocking a
// worker goroutine on a sleep.
func (d *Driver) Requeue(ctx context.Context, id uuid.UUID, delay time.Duration) error {
	var delayedUntil *time.Time
	if delay > 0 {
		t := time.Now().Add(delay)
		delayedUntil = &t
	}

	return pgconn.WithTx(ctx, d.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE `+jobsTable+` SET status = $1, "lastModified" = now() WHERE id = $2
		`, StatusPending, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO `+queueTable+` (job_id, "createdAt", delayed_until) VALUES ($1, now(), $2)
		`, id, delayedUntil)
		return err
	})
}

// GetMetadata retrieves a driver-maintained bookkeeping value. The second
// return reports whether key was found.
func (d *Driver) GetMetadata(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := d.pool.QueryRow(ctx, `SELECT value FROM `+queueMetaTable+` WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// SetMetadata upserts a driver-maintained bookkeeping value.
func (d *Driver) SetMetadata(ctx context.Context, key string, value []byte) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO `+queueMetaTable+` (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetJobs is a diagnostic listing every job id currently in status.
func (d *Driver) GetJobs(ctx context.Context, status Status) ([]uuid.UUID, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id FROM `+jobsTable+` WHERE status = $1 FOR UPDATE SKIP LOCKED
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stop is a one-way flag that halts Iterate's claim loop. It does not
// interrupt in-flight handlers.
func (d *Driver) Stop() {
	d.stopped.Store(true)
}

// Iterate returns a lazy, cancellable sequence of claimed jobs. Each step
// claims the next eligible job or sleeps PollTime before retrying. The
// sequence ends when Stop is called or ctx is cancelled.
func (d *Driver) Iterate(ctx context.Context) iter.Seq2[Job, error] {
	return func(yield func(Job, error) bool) {
		for {
			if d.stopped.Load() {
				return
			}

			select {
			case <-ctx.Done():
				return
			default:
			}

			job, err := d.claimOnce(ctx)
			if err != nil {
				if errors.Is(err, errNoWork) {
					select {
					case <-ctx.Done():
						return
					case <-time.After(d.opts.pollTime):
					}
					continue
				}
				if !yield(Job{}, err) {
					return
				}
				continue
			}

			if !yield(*job, nil) {
				return
			}
		}
	}
}
