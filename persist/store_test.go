package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveExpiry(t *testing.T) {
	t.Parallel()

	t.Run("positive ttl expires after duration", func(t *testing.T) {
		t.Parallel()
		before := time.Now()
		got := resolveExpiry(time.Minute, 0)
		assert.WithinDuration(t, before.Add(time.Minute), got, time.Second)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, farFuture, resolveExpiry(-1, time.Hour))
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		t.Parallel()
		before := time.Now()
		got := resolveExpiry(0, time.Minute)
		assert.WithinDuration(t, before.Add(time.Minute), got, time.Second)
	})

	t.Run("zero ttl with zero default never expires", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, farFuture, resolveExpiry(0, 0))
	})

	t.Run("zero ttl with negative default never expires", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, farFuture, resolveExpiry(0, -1))
	})
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := marshal(map[string]int{"a": 1})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	_, err = marshal(make(chan int))
	assert.ErrorIs(t, err, ErrMarshal)
}

func TestStore_Sweeper_AwaitsWaitUntilCompleted(t *testing.T) {
	t.Parallel()

	errNotReady := errors.New("migrations not yet completed")
	s := New(nil, WithWaitUntilCompleted(func(context.Context) error {
		return errNotReady
	}))

	err := s.Sweeper(context.Background())()
	assert.ErrorIs(t, err, errNotReady)
}

func TestStore_Sweeper_DefaultWaitIsNoop(t *testing.T) {
	t.Parallel()

	s := New(nil)
	assert.NoError(t, s.opts.waitFor(context.Background()))
}
