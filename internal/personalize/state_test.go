package personalize

import (
	"testing"

	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(ke float64) pk.Estimate {
	return pk.Estimate{DecayConstant: &ke, RecordsConsidered: 2, RecordsUsed: 2}
}

func TestStateLifecycle(t *testing.T) {
	t.Parallel()

	var s State
	assert.Equal(t, StatusIdle, s.View().Status)

	gen, ok := s.Begin()
	require.True(t, ok)
	assert.Equal(t, StatusFetching, s.Status)

	_, again := s.Begin()
	assert.False(t, again, "only one cycle may be in flight")

	require.True(t, s.Complete(gen, resolved(0.1)))
	assert.Equal(t, StatusResolved, s.Status)
	require.NotNil(t, s.DecayConstant())
	assert.Equal(t, 0.1, *s.DecayConstant())

	_, ok = s.Begin()
	assert.False(t, ok, "a finished cycle is not restarted without a reset")
}

func TestStateUnavailable(t *testing.T) {
	t.Parallel()

	var s State
	gen, _ := s.Begin()
	require.True(t, s.Complete(gen, pk.Estimate{}))

	assert.Equal(t, StatusUnavailable, s.Status)
	assert.Nil(t, s.DecayConstant())

	v := s.View()
	assert.Equal(t, MessageNoData, v.Message)
	assert.Nil(t, v.DecayConstant)
	assert.Empty(t, v.HalfLifeDisplay)
}

func TestStateDiscardsStaleResults(t *testing.T) {
	t.Parallel()

	t.Run("reset during fetch", func(t *testing.T) {
		t.Parallel()
		var s State
		stale, _ := s.Begin()
		s.Reset()

		assert.False(t, s.Complete(stale, resolved(0.2)))
		assert.Equal(t, StatusIdle, s.Status)
		assert.Nil(t, s.Estimate)
	})

	t.Run("old generation after restart", func(t *testing.T) {
		t.Parallel()
		var s State
		stale, _ := s.Begin()
		s.Reset()
		current, ok := s.Begin()
		require.True(t, ok)
		assert.NotEqual(t, stale, current)

		assert.False(t, s.Complete(stale, resolved(0.2)))
		assert.True(t, s.Complete(current, resolved(0.3)))
		assert.Equal(t, 0.3, *s.DecayConstant())
	})

	t.Run("complete without begin", func(t *testing.T) {
		t.Parallel()
		var s State
		assert.False(t, s.Complete(0, resolved(0.2)))
	})
}

func TestViewFormatsHalfLife(t *testing.T) {
	t.Parallel()

	var s State
	gen, _ := s.Begin()
	s.Complete(gen, resolved(0.0866434))

	v := s.View()
	assert.Equal(t, StatusResolved, v.Status)
	assert.Equal(t, "8.00", v.HalfLifeDisplay)
	assert.Equal(t, 2, v.RecordsUsed)
	assert.Empty(t, v.Message)
}

func TestEstimateView(t *testing.T) {
	t.Parallel()

	empty := EstimateView(pk.Estimate{})
	assert.Equal(t, StatusUnavailable, empty.Status)
	assert.Equal(t, MessageNoData, empty.Message)

	ke := 0.2
	ok := EstimateView(pk.Estimate{DecayConstant: &ke, RecordsUsed: 1, FallbackToClass: true})
	assert.Equal(t, StatusResolved, ok.Status)
	assert.Equal(t, "3.47", ok.HalfLifeDisplay)
	assert.True(t, ok.FallbackToClass)
}
