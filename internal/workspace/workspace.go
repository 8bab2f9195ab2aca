// Package workspace keeps each signed-in user's active regimens in memory,
// drives their personalization state machines and builds their charts.
//
// A workspace is the server-side counterpart of an interactive session: it
// lives until it has been idle for longer than the configured limit.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/chart"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/events"
	"github.com/phrazzld/pksim-api/internal/metrics"
	"github.com/phrazzld/pksim-api/internal/personalize"
	"github.com/phrazzld/pksim-api/internal/platform/logger"
)

// Workspace errors.
var (
	ErrRegimenNotFound = errors.New("regimen not found")
	ErrTooManyRegimens = errors.New("too many regimens")
)

// RegimenInput describes a new regimen. Zero values take the defaults.
type RegimenInput struct {
	CompoundName        string
	DoseMg              *float64
	SimulationDays      *int
	RepeatIntervalDays  *int
	UsePersonalizedRate bool
}

// RegimenPatch is a partial edit. Nil fields are left unchanged.
type RegimenPatch struct {
	CompoundName        *string
	DoseMg              *float64
	SimulationDays      *int
	RepeatIntervalDays  *int
	ClearRepeatInterval bool
	UsePersonalizedRate *bool
}

// RegimenView is one regimen as shown to clients.
type RegimenView struct {
	Regimen         *domain.Regimen  `json:"regimen"`
	Color           string           `json:"color"`
	Personalization personalize.View `json:"personalization"`
}

// View is a full workspace snapshot.
type View struct {
	Regimens []RegimenView `json:"regimens"`
	Chart    *chart.Chart  `json:"chart"`
}

type entry struct {
	regimen *domain.Regimen
	state   personalize.State
}

type userWorkspace struct {
	mu       sync.Mutex
	entries  []*entry
	lastUsed time.Time
}

func (w *userWorkspace) find(id uuid.UUID) (int, *entry) {
	for i, e := range w.entries {
		if e.regimen.ID == id {
			return i, e
		}
	}
	return -1, nil
}

// Options configures a Registry.
type Options struct {
	Limits      domain.RegimenLimits
	MaxRegimens int
	Aggregator  *chart.Aggregator
	Emitter     events.EventEmitter
	Logger      *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Registry owns every user's workspace.
type Registry struct {
	mu         sync.Mutex
	workspaces map[uuid.UUID]*userWorkspace

	limits      domain.RegimenLimits
	maxRegimens int
	aggregator  *chart.Aggregator
	emitter     events.EventEmitter
	logger      *slog.Logger
	now         func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts Options) *Registry {
	if opts.Limits == (domain.RegimenLimits{}) {
		opts.Limits = domain.DefaultRegimenLimits()
	}
	if opts.MaxRegimens <= 0 {
		opts.MaxRegimens = 16
	}
	if opts.Aggregator == nil {
		opts.Aggregator = &chart.Aggregator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		workspaces:  make(map[uuid.UUID]*userWorkspace),
		limits:      opts.Limits,
		maxRegimens: opts.MaxRegimens,
		aggregator:  opts.Aggregator,
		emitter:     opts.Emitter,
		logger:      opts.Logger.With("component", "workspace_registry"),
		now:         opts.Now,
	}
}

// Limits returns the regimen bounds the registry enforces.
func (r *Registry) Limits() domain.RegimenLimits {
	return r.limits
}

func (r *Registry) workspace(userID uuid.UUID) *userWorkspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workspaces[userID]
	if !ok {
		w = &userWorkspace{lastUsed: r.now()}
		r.workspaces[userID] = w
		metrics.ActiveWorkspaces.Set(float64(len(r.workspaces)))
	}
	return w
}

// lookup returns an existing workspace without creating one.
func (r *Registry) lookup(userID uuid.UUID) (*userWorkspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[userID]
	return w, ok
}

// Add creates a regimen in userID's workspace.
func (r *Registry) Add(ctx context.Context, userID uuid.UUID, in RegimenInput) (RegimenView, error) {
	name := in.CompoundName
	if name == "" {
		name = domain.DefaultCompoundName
	}
	compound, err := catalog.Lookup(name)
	if err != nil {
		return RegimenView{}, err
	}

	dose := domain.DefaultDoseMg
	if in.DoseMg != nil {
		dose = *in.DoseMg
	}
	days := domain.DefaultSimulationDays
	if in.SimulationDays != nil {
		days = *in.SimulationDays
	}

	regimen, err := domain.NewRegimen(compound, dose, days, in.RepeatIntervalDays, in.UsePersonalizedRate, r.limits)
	if err != nil {
		return RegimenView{}, err
	}

	w := r.workspace(userID)
	w.mu.Lock()
	if len(w.entries) >= r.maxRegimens {
		w.mu.Unlock()
		return RegimenView{}, fmt.Errorf("%w: limit is %d", ErrTooManyRegimens, r.maxRegimens)
	}
	e := &entry{regimen: regimen}
	w.entries = append(w.entries, e)
	w.lastUsed = r.now()
	req, start := r.beginPersonalization(userID, e)
	view := viewOf(len(w.entries)-1, e)
	w.mu.Unlock()

	logger.FromContextOrDefault(ctx, r.logger).Debug("regimen added",
		"user_id", userID,
		"regimen_id", regimen.ID,
		"compound", compound.Name)

	if start {
		view = r.requestEstimate(ctx, req, view)
	}
	return view, nil
}

// Update applies patch to a regimen. Changing the compound or the
// personalization toggle resets the regimen's personalization.
func (r *Registry) Update(ctx context.Context, userID, regimenID uuid.UUID, patch RegimenPatch) (RegimenView, error) {
	var compound *domain.Compound
	if patch.CompoundName != nil {
		c, err := catalog.Lookup(*patch.CompoundName)
		if err != nil {
			return RegimenView{}, err
		}
		compound = &c
	}

	w, ok := r.lookup(userID)
	if !ok {
		return RegimenView{}, ErrRegimenNotFound
	}

	w.mu.Lock()
	idx, e := w.find(regimenID)
	if e == nil {
		w.mu.Unlock()
		return RegimenView{}, ErrRegimenNotFound
	}

	next := e.regimen.Clone()
	reset := false
	if compound != nil && compound.Name != next.Compound.Name {
		next.Compound = *compound
		reset = true
	}
	if patch.DoseMg != nil {
		next.DoseMg = *patch.DoseMg
	}
	if patch.SimulationDays != nil {
		next.SimulationDays = *patch.SimulationDays
	}
	if patch.ClearRepeatInterval {
		next.RepeatIntervalDays = nil
	} else if patch.RepeatIntervalDays != nil {
		iv := *patch.RepeatIntervalDays
		next.RepeatIntervalDays = &iv
	}
	if patch.UsePersonalizedRate != nil && *patch.UsePersonalizedRate != next.UsePersonalizedRate {
		next.UsePersonalizedRate = *patch.UsePersonalizedRate
		reset = true
	}

	if err := next.Validate(r.limits); err != nil {
		w.mu.Unlock()
		return RegimenView{}, err
	}

	if reset {
		next.PersonalizedDecayConstant = nil
		e.state.Reset()
	}
	e.regimen = next
	w.lastUsed = r.now()
	req, start := r.beginPersonalization(userID, e)
	view := viewOf(idx, e)
	w.mu.Unlock()

	if start {
		view = r.requestEstimate(ctx, req, view)
	}
	return view, nil
}

// Remove deletes a regimen. A fetch still in flight for it is discarded when
// it completes.
func (r *Registry) Remove(ctx context.Context, userID, regimenID uuid.UUID) error {
	w, ok := r.lookup(userID)
	if !ok {
		return ErrRegimenNotFound
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx, e := w.find(regimenID)
	if e == nil {
		return ErrRegimenNotFound
	}
	w.entries = append(w.entries[:idx], w.entries[idx+1:]...)
	w.lastUsed = r.now()

	logger.FromContextOrDefault(ctx, r.logger).Debug("regimen removed",
		"user_id", userID,
		"regimen_id", regimenID)
	return nil
}

// Drop discards userID's whole workspace.
func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, userID)
	metrics.ActiveWorkspaces.Set(float64(len(r.workspaces)))
}

// List returns the regimens in insertion order.
func (r *Registry) List(userID uuid.UUID) []RegimenView {
	w, ok := r.lookup(userID)
	if !ok {
		return []RegimenView{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = r.now()

	views := make([]RegimenView, len(w.entries))
	for i, e := range w.entries {
		views[i] = viewOf(i, e)
	}
	return views
}

// Snapshot returns the regimens and their combined chart.
func (r *Registry) Snapshot(ctx context.Context, userID uuid.UUID) (View, error) {
	views := r.List(userID)
	c, err := r.buildChart(ctx, views)
	if err != nil {
		return View{}, err
	}
	return View{Regimens: views, Chart: c}, nil
}

// Levels returns every regimen's display value on day.
func (r *Registry) Levels(ctx context.Context, userID uuid.UUID, day int) ([]chart.LevelAt, error) {
	c, err := r.buildChart(ctx, r.List(userID))
	if err != nil {
		return nil, err
	}
	return c.Lookup(day), nil
}

func (r *Registry) buildChart(ctx context.Context, views []RegimenView) (*chart.Chart, error) {
	inputs := make([]chart.Input, len(views))
	for i, v := range views {
		inputs[i] = chart.Input{Regimen: v.Regimen}
	}
	c, err := r.aggregator.Build(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart: %w", err)
	}
	metrics.SimulatedRegimens.Add(float64(len(inputs)))
	return c, nil
}

// ApplyEstimate stores a finished estimate if the regimen still exists, still
// wants personalization and is still waiting on this generation. It reports
// whether the estimate was applied.
func (r *Registry) ApplyEstimate(userID, regimenID uuid.UUID, generation uint64, est pk.Estimate) bool {
	w, ok := r.lookup(userID)
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	_, e := w.find(regimenID)
	if e == nil || !e.regimen.UsePersonalizedRate {
		return false
	}
	if !e.state.Complete(generation, est) {
		return false
	}

	next := e.regimen.Clone()
	next.PersonalizedDecayConstant = e.state.DecayConstant()
	e.regimen = next
	return true
}

// EvictIdle drops workspaces unused for longer than maxIdle and returns how
// many were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, w := range r.workspaces {
		w.mu.Lock()
		idle := w.lastUsed.Before(cutoff)
		w.mu.Unlock()
		if idle {
			delete(r.workspaces, id)
			evicted++
		}
	}
	metrics.ActiveWorkspaces.Set(float64(len(r.workspaces)))

	if evicted > 0 {
		r.logger.Info("evicted idle workspaces", "count", evicted, "remaining", len(r.workspaces))
	}
	return evicted
}

// Len returns the number of workspaces held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// beginPersonalization starts a cycle for e when it wants one and none is
// running. Callers hold the workspace lock.
func (r *Registry) beginPersonalization(userID uuid.UUID, e *entry) (personalize.EstimateRequest, bool) {
	if !e.regimen.UsePersonalizedRate || r.emitter == nil {
		return personalize.EstimateRequest{}, false
	}
	gen, ok := e.state.Begin()
	if !ok {
		return personalize.EstimateRequest{}, false
	}
	return personalize.EstimateRequest{
		UserID:       userID,
		RegimenID:    e.regimen.ID,
		Generation:   gen,
		CompoundName: e.regimen.Compound.Name,
	}, true
}

// requestEstimate emits the estimate request. It runs without the workspace
// lock. When the request cannot be queued the cycle ends as Unavailable so the
// regimen is not left fetching forever.
func (r *Registry) requestEstimate(ctx context.Context, req personalize.EstimateRequest, view RegimenView) RegimenView {
	log := logger.FromContextOrDefault(ctx, r.logger)

	event, err := events.NewTaskRequestEvent(events.TypeEstimateRequested, req)
	if err == nil {
		err = r.emitter.EmitEvent(ctx, event)
	}
	if err == nil {
		return view
	}

	log.Warn("failed to request estimate, using population model",
		"error", err,
		"regimen_id", req.RegimenID)
	r.ApplyEstimate(req.UserID, req.RegimenID, req.Generation, pk.Estimate{})

	if w, ok := r.lookup(req.UserID); ok {
		w.mu.Lock()
		defer w.mu.Unlock()
		if idx, e := w.find(req.RegimenID); e != nil {
			return viewOf(idx, e)
		}
	}
	return view
}

func viewOf(idx int, e *entry) RegimenView {
	return RegimenView{
		Regimen:         e.regimen.Clone(),
		Color:           chart.ColorFor(idx),
		Personalization: e.state.View(),
	}
}
