package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayedUntil(t *testing.T) {
	t.Parallel()

	cfg := &pushConfig{}
	when := time.Now().Add(time.Hour)
	DelayedUntil(when)(cfg)

	got := cfg.delayedUntil
	assert.NotNil(t, got)
	assert.WithinDuration(t, when, *got, time.Millisecond)
}
