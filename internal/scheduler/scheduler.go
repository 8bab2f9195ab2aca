// Package scheduler runs the periodic housekeeping jobs: evicting idle
// regimen workspaces and pruning rate limit buckets.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Evictor drops workspaces untouched for longer than maxIdle.
type Evictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// Pruner forgets clients whose rate limit buckets have refilled.
type Pruner interface {
	Prune() int
}

// Config sets the job intervals.
type Config struct {
	WorkspaceIdle time.Duration
	EvictEvery    time.Duration
	PruneEvery    time.Duration
}

// DefaultConfig evicts every minute and prunes every ten.
func DefaultConfig(workspaceIdle time.Duration) Config {
	return Config{
		WorkspaceIdle: workspaceIdle,
		EvictEvery:    time.Minute,
		PruneEvery:    10 * time.Minute,
	}
}

// Scheduler owns the gocron scheduler and its jobs.
type Scheduler struct {
	cfg     Config
	evictor Evictor
	pruner  Pruner
	cron    *gocron.Scheduler
	logger  *slog.Logger
}

// New creates a Scheduler. A nil pruner skips the prune job.
func New(cfg Config, evictor Evictor, pruner Pruner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cfg:     cfg,
		evictor: evictor,
		pruner:  pruner,
		cron:    cron,
		logger:  logger.With("component", "scheduler"),
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.evictor != nil {
		if _, err := s.cron.Every(s.cfg.EvictEvery).Tag("evict_workspaces").Do(s.evictWorkspaces); err != nil {
			return fmt.Errorf("failed to schedule workspace eviction: %w", err)
		}
	}
	if s.pruner != nil {
		if _, err := s.cron.Every(s.cfg.PruneEvery).Tag("prune_rate_limits").Do(s.pruneBuckets); err != nil {
			return fmt.Errorf("failed to schedule bucket pruning: %w", err)
		}
	}

	s.cron.StartAsync()
	s.logger.Info("scheduler started",
		"jobs", len(s.cron.Jobs()),
		"workspace_idle", s.cfg.WorkspaceIdle.String())
	return nil
}

// Stop halts the scheduler. Running jobs finish first.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs every job synchronously.
func (s *Scheduler) RunOnce() {
	if s.evictor != nil {
		s.evictWorkspaces()
	}
	if s.pruner != nil {
		s.pruneBuckets()
	}
}

func (s *Scheduler) evictWorkspaces() {
	if n := s.evictor.EvictIdle(s.cfg.WorkspaceIdle); n > 0 {
		s.logger.Info("idle workspace sweep", "count", n)
	}
}

func (s *Scheduler) pruneBuckets() {
	if n := s.pruner.Prune(); n > 0 {
		s.logger.Debug("pruned rate limit buckets", "count", n)
	}
}
