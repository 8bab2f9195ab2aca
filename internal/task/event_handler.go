package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pksim-api/internal/events"
)

// TaskFactory builds a task from an event payload.
type TaskFactory interface {
	CreateTask(event *events.TaskRequestEvent) (Task, error)
}

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns events into tasks and submits them to a
// runner.
type TaskFactoryEventHandler struct {
	factory TaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates a handler that feeds runner with tasks
// built by factory.
func NewTaskFactoryEventHandler(factory TaskFactory, runner Submitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent creates a task for event and submits it.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	task, err := h.factory.CreateTask(event)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Warn("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Debug("task submitted",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
