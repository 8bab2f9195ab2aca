package task

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewTaskQueue(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(10, testLogger())
	assert.Equal(t, 10, q.Cap())
	assert.Zero(t, q.Len())

	assert.Equal(t, 1, NewTaskQueue(0, nil).Cap())
}

func TestEnqueue(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, testLogger())
	require.NoError(t, q.Enqueue(NewMockTask("mock")))
	require.NoError(t, q.Enqueue(NewMockTask("mock")))

	third := NewMockTask("mock")
	err := q.Enqueue(third)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Contains(t, err.Error(), "queue capacity 2 reached")

	<-q.GetChannel()
	assert.NoError(t, q.Enqueue(third))
	assert.Equal(t, 2, q.Len())
}

func TestClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(10, testLogger())
	task := NewMockTask("mock")
	require.NoError(t, q.Enqueue(task))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(NewMockTask("mock")), ErrQueueClosed)

	received := <-q.GetChannel()
	assert.Equal(t, task.ID(), received.ID())

	select {
	case _, ok := <-q.GetChannel():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for closed channel read")
	}
}

func TestConcurrentEnqueueAndClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1000, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := q.Enqueue(NewMockTask("mock"))
				if err != nil {
					assert.ErrorIs(t, err, ErrQueueClosed)
				}
			}
		}()
	}
	q.Close()
	wg.Wait()

	count := 0
	for range q.GetChannel() {
		count++
	}
	assert.LessOrEqual(t, count, 400)
}
