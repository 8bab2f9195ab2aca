package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeEstimate fits a personalized decay constant for one regimen.
const TaskTypeEstimate = "personalization_estimate"

// Task is a unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string

	// Payload returns the task input as JSON.
	Payload() []byte

	Status() TaskStatus

	// Execute runs the task. ctx is cancelled when the runner stops.
	Execute(ctx context.Context) error
}

// TaskQueueReader gives workers read-only access to queued tasks.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter accepts tasks for processing.
type TaskQueueWriter interface {
	// Enqueue returns ErrQueueFull or ErrQueueClosed instead of blocking.
	Enqueue(task Task) error
	Close()
}
