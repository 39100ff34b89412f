package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriver_OnInit_AwaitsWaitUntilCompleted(t *testing.T) {
	t.Parallel()

	errNotReady := errors.New("migrations not yet completed")
	d := NewDriver(nil, WithWaitUntilCompleted(func(context.Context) error {
		return errNotReady
	}))

	err := d.OnInit(context.Background())
	assert.ErrorIs(t, err, errNotReady)
}

func TestDriver_OnInit_DefaultWaitIsNoop(t *testing.T) {
	t.Parallel()

	d := NewDriver(nil)
	assert.NoError(t, d.opts.waitFor(context.Background()))
}

func TestDefaultDriverOptions(t *testing.T) {
	t.Parallel()

	o := defaultDriverOptions()
	assert.Equal(t, PolicyDoNothing, o.pendingJobsInitialization)
	assert.Equal(t, PolicyRerun, o.failedJobsInitialization)
	assert.Equal(t, PolicyRerun, o.processingJobsInitialization)
}
