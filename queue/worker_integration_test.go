//go:build integration

package queue_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hummingbird-project/hummingbird-postgres/queue"
)

func TestWorkerPool_RetryThenSucceed(t *testing.T) {
	t.Parallel()

	driver, _ := newTestDriver(t)
	ctx := context.Background()

	var executions atomic.Int32
	pool := queue.NewWorkerPool(driver, queue.WithConcurrency(1), queue.WithBaseBackoff(10*time.Millisecond))
	pool.RegisterHandler(queue.NewTaskHandler("flaky", 3, func(ctx context.Context, p struct{}) error {
		n := executions.Add(1)
		if n == 1 {
			return assertableErr{}
		}
		return nil
	}))

	payload, err := queue.EncodePayload("flaky", struct{}{})
	require.NoError(t, err)
	_, err = driver.Push(ctx, payload)
	require.NoError(t, err)

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	go pool.Run(runCtx)()

	require.Eventually(t, func() bool {
		return executions.Load() == 2
	}, time.Second, 10*time.Millisecond)

	ids, err := driver.GetJobs(ctx, queue.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

type assertableErr struct{}

func (assertableErr) Error() string { return "simulated failure" }

func TestWorkerPool_ShutdownGracefullyWaitsForInFlight(t *testing.T) {
	t.Parallel()

	driver, _ := newTestDriver(t)
	ctx := context.Background()

	started := make(chan struct{})
	finished := make(chan struct{})

	pool := queue.NewWorkerPool(driver, queue.WithConcurrency(1), queue.WithShutdownTimeout(2*time.Second))
	pool.RegisterHandler(queue.NewTaskHandler("slow", 0, func(ctx context.Context, p struct{}) error {
		close(started)
		time.Sleep(200 * time.Millisecond)
		close(finished)
		return nil
	}))

	payload, err := queue.EncodePayload("slow", struct{}{})
	require.NoError(t, err)
	_, err = driver.Push(ctx, payload)
	require.NoError(t, err)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go pool.Run(runCtx)()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}

	require.NoError(t, pool.ShutdownGracefully(context.Background()))

	select {
	case <-finished:
	default:
		t.Fatal("ShutdownGracefully returned before the in-flight handler finished")
	}
}

func TestWorkerPool_WorkerParallelismBounds(t *testing.T) {
	t.Parallel()

	driver, _ := newTestDriver(t)
	ctx := context.Background()

	var active, maxActive atomic.Int32
	pool := queue.NewWorkerPool(driver, queue.WithConcurrency(4))
	pool.RegisterHandler(queue.NewTaskHandler("work", 0, func(ctx context.Context, p struct{}) error {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			cur := maxActive.Load()
			if n <= cur || maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil
	}))

	payload, err := queue.EncodePayload("work", struct{}{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := driver.Push(ctx, payload)
		require.NoError(t, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- pool.Run(runCtx)() }()
	<-done

	assert.GreaterOrEqual(t, maxActive.Load(), int32(1))
	assert.LessOrEqual(t, maxActive.Load(), int32(4))
}
