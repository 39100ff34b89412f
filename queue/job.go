package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a Job's position in its lifecycle.
type Status int16

const (
	StatusPending    Status = 0
	StatusProcessing Status = 1
	StatusFailed     Status = 2
)

// Job is a durable unit of work. Payload is opaque to the driver: workers
// are responsible for encoding and decoding it.
type Job struct {
	ID           uuid.UUID
	Payload      []byte
	Status       Status
	LastModified time.Time
}

// PushOption configures Push.
type PushOption func(*pushConfig)

type pushConfig struct {
	delayedUntil *time.Time
}

// DelayedUntil defers a pushed job's eligibility for claim-next until t.
func DelayedUntil(t time.Time) PushOption {
	return func(c *pushConfig) { c.delayedUntil = &t }
}
