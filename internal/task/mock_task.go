package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockTask is a Task whose behavior is supplied by ExecuteFn. It records its
// status so tests can observe the lifecycle.
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	ExecuteFn   func(ctx context.Context) error

	mu     sync.Mutex
	status TaskStatus
}

// NewMockTask creates a pending MockTask that succeeds immediately.
func NewMockTask(taskType string) *MockTask {
	return &MockTask{
		TaskID:      uuid.New(),
		TaskType:    taskType,
		TaskPayload: []byte("{}"),
		ExecuteFn:   func(context.Context) error { return nil },
		status:      TaskStatusPending,
	}
}

func (t *MockTask) ID() uuid.UUID   { return t.TaskID }
func (t *MockTask) Type() string    { return t.TaskType }
func (t *MockTask) Payload() []byte { return t.TaskPayload }

func (t *MockTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Execute runs ExecuteFn and records the outcome.
func (t *MockTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	err := t.ExecuteFn(ctx)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return err
	}
	t.setStatus(TaskStatusCompleted)
	return nil
}

func (t *MockTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}
