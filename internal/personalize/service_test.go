package personalize

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceFunc adapts a function to ObservationSource.
type sourceFunc func(ctx context.Context, userID uuid.UUID, class domain.CompoundClass) ([]pk.Observation, error)

func (f sourceFunc) Observations(ctx context.Context, userID uuid.UUID, class domain.CompoundClass) ([]pk.Observation, error) {
	return f(ctx, userID, class)
}

func staticSource(obs []pk.Observation, err error) ObservationSource {
	return sourceFunc(func(context.Context, uuid.UUID, domain.CompoundClass) ([]pk.Observation, error) {
		return obs, err
	})
}

func cypionate(t *testing.T) domain.Compound {
	t.Helper()
	c, err := catalog.Lookup("Testosterone Cypionate")
	require.NoError(t, err)
	return c
}

func exactObservation(c domain.Compound, ke float64) pk.Observation {
	raw := pk.CompoundConcentration(c, 50, ke, 8)
	return pk.Observation{
		Class:              c.Class,
		Variant:            "cypionate",
		DoseMg:             50,
		DaysSinceInjection: 8,
		Value:              raw * 100,
		Units:              domain.UnitNanogramsPerDL,
	}
}

func TestServiceEstimate(t *testing.T) {
	t.Parallel()

	c := cypionate(t)
	truth := math.Ln2 / 8

	svc := NewService(staticSource([]pk.Observation{exactObservation(c, truth)}, nil), nil, time.Second, nil)
	est := svc.Estimate(context.Background(), uuid.New(), c)

	require.NotNil(t, est.DecayConstant)
	assert.InDelta(t, truth, *est.DecayConstant, 0.001)
}

func TestServiceFetchErrorDegrades(t *testing.T) {
	t.Parallel()

	svc := NewService(staticSource(nil, errors.New("connection refused")), nil, 0, nil)
	est := svc.Estimate(context.Background(), uuid.New(), cypionate(t))

	assert.Nil(t, est.DecayConstant)
	assert.Zero(t, est.RecordsUsed)
}

func TestServiceNoData(t *testing.T) {
	t.Parallel()

	svc := NewService(staticSource(nil, nil), pk.NewDefaultEstimator(), 0, nil)
	assert.Nil(t, svc.Estimate(context.Background(), uuid.New(), cypionate(t)).DecayConstant)
}

func TestServiceAppliesFetchTimeout(t *testing.T) {
	t.Parallel()

	src := sourceFunc(func(ctx context.Context, _ uuid.UUID, _ domain.CompoundClass) ([]pk.Observation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := NewService(src, nil, 20*time.Millisecond, nil)

	done := make(chan pk.Estimate, 1)
	go func() { done <- svc.Estimate(context.Background(), uuid.New(), cypionate(t)) }()

	select {
	case est := <-done:
		assert.Nil(t, est.DecayConstant)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch timeout not applied")
	}
}

func TestServicePassesUserAndClass(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotUser uuid.UUID
	var gotClass domain.CompoundClass
	src := sourceFunc(func(_ context.Context, u uuid.UUID, c domain.CompoundClass) ([]pk.Observation, error) {
		gotUser, gotClass = u, c
		return nil, nil
	})

	c, err := catalog.Lookup("Estradiol Valerate")
	require.NoError(t, err)
	NewService(src, nil, 0, nil).Estimate(context.Background(), userID, c)

	assert.Equal(t, userID, gotUser)
	assert.Equal(t, domain.ClassEstradiol, gotClass)
}
