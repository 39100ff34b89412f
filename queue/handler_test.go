package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emailPayload struct {
	To string `json:"to"`
}

func TestEncodeDecodeEnvelope(t *testing.T) {
	t.Parallel()

	raw, err := EncodePayload("send_email", emailPayload{To: "a@example.com"})
	require.NoError(t, err)

	env, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "send_email", env.Task)
	assert.JSONEq(t, `{"to":"a@example.com"}`, string(env.Payload))
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	t.Parallel()

	_, err := decodeEnvelope([]byte("not json"))
	assert.ErrorIs(t, err, ErrDecodeJobFailed)
}

func TestTaskHandler_Dispatch(t *testing.T) {
	t.Parallel()

	var got emailPayload
	h := NewTaskHandler("send_email", 3, func(ctx context.Context, p emailPayload) error {
		got = p
		return nil
	})

	assert.Equal(t, "send_email", h.Name())
	assert.Equal(t, 3, h.MaxRetryCount())

	err := h.Handle(context.Background(), []byte(`{"to":"b@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.To)
}

func TestTaskHandler_MalformedPayload(t *testing.T) {
	t.Parallel()

	h := NewTaskHandler("send_email", 0, func(ctx context.Context, p emailPayload) error {
		return nil
	})

	err := h.Handle(context.Background(), []byte("not json"))
	assert.ErrorIs(t, err, ErrDecodeJobFailed)
}
