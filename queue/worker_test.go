package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_GrowsExponentiallyAndCaps(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	maxDelay := time.Second

	d1 := backoff(base, maxDelay, 1)
	d2 := backoff(base, maxDelay, 2)
	d3 := backoff(base, maxDelay, 10) // would overflow without capping

	assert.GreaterOrEqual(t, d1, base)
	assert.Less(t, d1, base*2)

	assert.GreaterOrEqual(t, d2, base*2)
	assert.Less(t, d2, base*3)

	assert.LessOrEqual(t, d3, maxDelay+maxDelay/5)
}

func TestWorkerPool_StartRequiresHandlers(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(nil)
	err := wp.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoHandlers)
}

func TestWorkerPool_RegisterHandler(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(nil)
	wp.RegisterHandler(NewTaskHandler("noop", 0, func(ctx context.Context, p emailPayload) error { return nil }))

	wp.mu.RLock()
	_, ok := wp.handlers["noop"]
	wp.mu.RUnlock()
	require.True(t, ok)
}

func TestWorkerPool_StopWithoutStart(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(nil)
	assert.ErrorIs(t, wp.Stop(), ErrNotStarted)
}
