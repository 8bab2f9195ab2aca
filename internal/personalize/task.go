package personalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/events"
	"github.com/phrazzld/pksim-api/internal/metrics"
	"github.com/phrazzld/pksim-api/internal/task"
)

// ErrInvalidRequest is returned for a malformed estimate request payload.
var ErrInvalidRequest = errors.New("invalid estimate request")

// EstimateRequest is the payload of an events.TypeEstimateRequested event.
type EstimateRequest struct {
	UserID       uuid.UUID `json:"user_id"`
	RegimenID    uuid.UUID `json:"regimen_id"`
	Generation   uint64    `json:"generation"`
	CompoundName string    `json:"compound_name"`
}

// Validate checks the identifiers are present.
func (r EstimateRequest) Validate() error {
	switch {
	case r.UserID == uuid.Nil:
		return fmt.Errorf("%w: missing user_id", ErrInvalidRequest)
	case r.RegimenID == uuid.Nil:
		return fmt.Errorf("%w: missing regimen_id", ErrInvalidRequest)
	case r.CompoundName == "":
		return fmt.Errorf("%w: missing compound_name", ErrInvalidRequest)
	}
	return nil
}

// ResultSink receives finished estimates. ApplyEstimate reports whether the
// result was still wanted.
type ResultSink interface {
	ApplyEstimate(userID, regimenID uuid.UUID, generation uint64, est pk.Estimate) bool
}

// EstimateTask runs one fetch-and-fit cycle in the background.
type EstimateTask struct {
	id      uuid.UUID
	req     EstimateRequest
	payload []byte
	service *Service
	sink    ResultSink
	logger  *slog.Logger

	mu     sync.Mutex
	status task.TaskStatus
}

// NewEstimateTask creates a pending task for req.
func NewEstimateTask(req EstimateRequest, service *Service, sink ResultSink, logger *slog.Logger) (*EstimateTask, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal estimate request: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimateTask{
		id:      uuid.New(),
		req:     req,
		payload: payload,
		service: service,
		sink:    sink,
		logger:  logger,
		status:  task.TaskStatusPending,
	}, nil
}

func (t *EstimateTask) ID() uuid.UUID   { return t.id }
func (t *EstimateTask) Type() string    { return task.TaskTypeEstimate }
func (t *EstimateTask) Payload() []byte { return t.payload }

func (t *EstimateTask) Status() task.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *EstimateTask) setStatus(s task.TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}

// Execute fetches, fits and hands the result to the sink. An unknown compound
// still completes the cycle, with no decay constant, so the regimen does not
// stay in Fetching.
func (t *EstimateTask) Execute(ctx context.Context) error {
	t.setStatus(task.TaskStatusProcessing)
	log := t.logger.With(
		"task_id", t.id,
		"regimen_id", t.req.RegimenID,
		"generation", t.req.Generation,
	)

	var est pk.Estimate
	compound, err := catalog.Lookup(t.req.CompoundName)
	if err != nil {
		log.Warn("estimate requested for unknown compound", "error", err)
	} else {
		est = t.service.Estimate(ctx, t.req.UserID, compound)
	}

	if !t.sink.ApplyEstimate(t.req.UserID, t.req.RegimenID, t.req.Generation, est) {
		metrics.StaleEstimatesDiscarded.Inc()
		log.Debug("discarded stale estimate")
	}

	if err != nil {
		t.setStatus(task.TaskStatusFailed)
		return err
	}
	t.setStatus(task.TaskStatusCompleted)
	return nil
}

// TaskFactory builds EstimateTasks from estimate request events.
type TaskFactory struct {
	service *Service
	sink    ResultSink
	logger  *slog.Logger
}

// NewTaskFactory creates a TaskFactory.
func NewTaskFactory(service *Service, sink ResultSink, logger *slog.Logger) *TaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactory{
		service: service,
		sink:    sink,
		logger:  logger.With("component", "estimate_task"),
	}
}

// CreateTask decodes the event payload into an EstimateTask.
func (f *TaskFactory) CreateTask(event *events.TaskRequestEvent) (task.Task, error) {
	if event.Type != events.TypeEstimateRequested {
		return nil, fmt.Errorf("%w: unexpected event type %q", ErrInvalidRequest, event.Type)
	}
	var req EstimateRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return NewEstimateTask(req, f.service, f.sink, f.logger)
}

var (
	_ task.Task        = (*EstimateTask)(nil)
	_ task.TaskFactory = (*TaskFactory)(nil)
)
