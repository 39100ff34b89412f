package migrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineState_WaitBeforeFinish(t *testing.T) {
	t.Parallel()

	s := newEngineState()
	s.begin()

	done := make(chan error, 1)
	go func() {
		done <- s.wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("wait returned before finish was called")
	case <-time.After(20 * time.Millisecond):
	}

	s.finish(nil)
	require.NoError(t, <-done)
}

func TestEngineState_FinishWithError(t *testing.T) {
	t.Parallel()

	s := newEngineState()
	s.begin()

	wantErr := errors.New("boom")
	s.finish(wantErr)

	assert.ErrorIs(t, s.wait(context.Background()), wantErr)
}

func TestEngineState_BeginResetsAfterFinish(t *testing.T) {
	t.Parallel()

	s := newEngineState()
	s.begin()
	s.finish(errors.New("first run failed"))
	require.Error(t, s.wait(context.Background()))

	s.begin()

	done := make(chan error, 1)
	go func() { done <- s.wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("wait returned for the new run before it finished")
	case <-time.After(20 * time.Millisecond):
	}

	s.finish(nil)
	require.NoError(t, <-done)
}

func TestEngineState_WaitRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	s := newEngineState()
	s.begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.wait(ctx), context.Canceled)
}

func TestEngineState_FinishIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newEngineState()
	s.begin()
	s.finish(errors.New("first"))
	s.finish(errors.New("second"))

	assert.EqualError(t, s.wait(context.Background()), "first")
}
