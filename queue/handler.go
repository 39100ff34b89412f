package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// envelope wraps a handler-addressed payload with the task name prefix the
// worker pool decodes to route it. The driver never inspects this shape —
// it stores and returns the bytes unchanged.
type envelope struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload"`
}

// EncodePayload wraps payload with the task name a worker pool uses to
// route it to a registered handler. Pass the result to Driver.Push.
func EncodePayload(task string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Join(ErrDecodeJobFailed, err)
	}
	return json.Marshal(envelope{Task: task, Payload: data})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return envelope{}, errors.Join(ErrDecodeJobFailed, err)
	}
	return e, nil
}

// Handler processes jobs for one task name.
type Handler interface {
	// Name returns the task name this handler is registered under.
	Name() string
	// Handle processes a job's decoded payload.
	Handle(ctx context.Context, payload json.RawMessage) error
	// MaxRetryCount is how many times a failed job is retried before
	// being marked failed permanently.
	MaxRetryCount() int
}

// TaskHandlerFunc is a type-safe handler function for one task's payload.
type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// NewTaskHandler creates a type-safe Handler for name. maxRetryCount bounds
// how many times the worker pool retries a failing job before calling
// Failed; pass 0 to never retry.
func NewTaskHandler[T any](name string, maxRetryCount int, handler TaskHandlerFunc[T]) Handler {
	return &taskHandler[T]{name: name, maxRetryCount: maxRetryCount, handler: handler}
}

type taskHandler[T any] struct {
	name          string
	maxRetryCount int
	handler       TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Name() string { return h.name }

func (h *taskHandler[T]) MaxRetryCount() int { return h.maxRetryCount }

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return errors.Join(ErrDecodeJobFailed, err)
	}
	return h.handler(ctx, v)
}
