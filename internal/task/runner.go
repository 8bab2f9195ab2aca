package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrRunnerStarted is returned by Start on a runner that already started.
var ErrRunnerStarted = errors.New("task runner already started")

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount is the number of concurrent workers.
	WorkerCount int

	// QueueSize bounds the in-memory queue. Submit fails once it is full.
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner executes submitted tasks on a fixed worker pool.
type TaskRunner struct {
	queue      *TaskQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger

	mu         sync.Mutex
	started    bool
	errHandler func(task Task, err error)
	doneHook   func(task Task, err error)
}

// NewTaskRunner creates a runner. Non-positive sizes fall back to the defaults.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	defaults := DefaultTaskRunnerConfig()
	if config.WorkerCount < 1 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.QueueSize < 1 {
		config.QueueSize = defaults.QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler replaces the handler called when a task fails.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errHandler = handler
}

// OnTaskDone registers a hook called after every task, with the task's error
// or nil.
func (r *TaskRunner) OnTaskDone(hook func(task Task, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doneHook = hook
}

// Submit queues task for execution without blocking. It returns ErrQueueFull
// when the queue is at capacity and ErrQueueClosed after Stop.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to submit task %s: %w", task.ID(), err)
	}
	return nil
}

// QueueLen returns the number of tasks waiting for a worker.
func (r *TaskRunner) QueueLen() int {
	return r.queue.Len()
}

// Start launches the workers.
func (r *TaskRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRunnerStarted
	}
	r.started = true

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
	return nil
}

// Stop closes the queue, cancels running tasks and waits for the workers to
// exit. Tasks still queued are dropped without running. Safe to call more
// than once.
func (r *TaskRunner) Stop() {
	r.queue.Close()
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for task := range r.queue.GetChannel() {
		if r.ctx.Err() != nil {
			r.logger.Debug("dropping task after shutdown",
				"worker_id", id,
				"task_id", task.ID(),
				"task_type", task.Type())
			continue
		}
		r.processTask(task, id)
	}

	r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}

func (r *TaskRunner) processTask(task Task, workerID int) {
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)
	log.Debug("processing task")

	err := r.execute(task)

	r.mu.Lock()
	errHandler, doneHook := r.errHandler, r.doneHook
	r.mu.Unlock()

	if err != nil {
		if errHandler != nil {
			errHandler(task, err)
		}
	} else {
		log.Debug("task completed")
	}
	if doneHook != nil {
		doneHook(task, err)
	}
}

// execute runs task, converting a panic into an error so one bad task cannot
// take down a worker.
func (r *TaskRunner) execute(task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return task.Execute(r.ctx)
}
