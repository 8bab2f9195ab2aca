package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/platform/logger"
	"github.com/phrazzld/pksim-api/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) Prune() int {
	p.calls.Add(1)
	return 3
}

type fakeClock struct{ now atomic.Int64 }

func (c *fakeClock) Now() time.Time { return time.Unix(0, c.now.Load()) }
func (c *fakeClock) Advance(d time.Duration) { c.now.Add(int64(d)) }

func TestRunOnceEvictsIdleWorkspaces(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	clock.now.Store(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	registry := workspace.NewRegistry(workspace.Options{Now: clock.Now})

	stale, fresh := uuid.New(), uuid.New()
	_, err := registry.Add(context.Background(), stale, workspace.RegimenInput{})
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	_, err = registry.Add(context.Background(), fresh, workspace.RegimenInput{})
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	log, buf := logger.NewTestLogger(t)
	pruner := &countingPruner{}
	s := New(DefaultConfig(time.Hour), registry, pruner, log)
	s.RunOnce()

	assert.Equal(t, 1, registry.Len())
	assert.Empty(t, registry.List(stale))
	assert.Len(t, registry.List(fresh), 1)
	assert.Equal(t, int32(1), pruner.calls.Load())
	assert.Contains(t, buf.String(), "idle workspace sweep")
}

func TestStartSchedulesJobs(t *testing.T) {
	t.Parallel()

	pruner := &countingPruner{}
	registry := workspace.NewRegistry(workspace.Options{})
	s := New(Config{WorkspaceIdle: time.Hour, EvictEvery: time.Hour, PruneEvery: time.Hour}, registry, pruner, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Jobs(), 2)
	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutPruner(t *testing.T) {
	t.Parallel()

	s := New(DefaultConfig(time.Hour), workspace.NewRegistry(workspace.Options{}), nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Jobs(), 1)
}
