package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler counts the events it sees.
type recordingHandler struct {
	last  *TaskRequestEvent
	count int
	err   error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.last = event
	h.count++
	return h.err
}

func TestNewTaskRequestEvent(t *testing.T) {
	t.Parallel()

	type estimatePayload struct {
		RegimenID  uuid.UUID `json:"regimen_id"`
		Generation uint64    `json:"generation"`
	}
	payload := estimatePayload{RegimenID: uuid.New(), Generation: 3}

	event, err := NewTaskRequestEvent(TypeEstimateRequested, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeEstimateRequested, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded estimatePayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewTaskRequestEventErrors(t *testing.T) {
	t.Parallel()

	_, err := NewTaskRequestEvent("", map[string]string{})
	assert.Error(t, err)

	_, err = NewTaskRequestEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	var seen *TaskRequestEvent
	h := HandlerFunc(func(_ context.Context, e *TaskRequestEvent) error {
		seen = e
		return wantErr
	})

	event, err := NewTaskRequestEvent("x", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, h.HandleEvent(context.Background(), event), wantErr)
	assert.Same(t, event, seen)
}
