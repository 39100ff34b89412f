package migrator

import (
	"context"
	"sync"
)

// engineState tracks the Migration Engine's completion state so that
// WaitUntilCompleted can be called safely from any number of goroutines
// while exactly one Apply/Revert runs at a time.
//
// Transition out of "waiting" closes ready, waking every current waiter;
// the next call into waiting (the start of a new Apply) replaces ready
// with a fresh channel.
type engineState struct {
	mu    sync.Mutex
	ready chan struct{}
	err   error
	done  bool
}

func newEngineState() *engineState {
	return &engineState{ready: make(chan struct{})}
}

// begin transitions the state back to waiting, ahead of a new Apply.
func (s *engineState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		s.ready = make(chan struct{})
		s.done = false
		s.err = nil
	}
}

// finish transitions out of waiting, recording err (nil on success) and
// waking every current and future waiter until the next begin().
func (s *engineState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.err = err
	s.done = true
	close(s.ready)
}

// wait blocks until the current reconciliation reaches completed or
// failed, then returns the terminal error (nil on success). Returns the
// context's error if ctx is cancelled first.
func (s *engineState) wait(ctx context.Context) error {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
