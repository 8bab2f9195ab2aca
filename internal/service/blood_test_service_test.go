package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/mocks"
	"github.com/phrazzld/pksim-api/internal/service"
	"github.com/phrazzld/pksim-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKnownEther(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ether string
		want  bool
	}{
		{"enanthate", true},
		{"Cypionate", true},
		{" other ", true},
		{"Hexahydrobenzoate", true},
		{"benzoate", true},
		{"nandrolone", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.ether, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, service.IsKnownEther(tc.ether))
		})
	}
}

func validInput(at time.Time) service.BloodTestInput {
	return service.BloodTestInput{
		Hormone:            domain.ClassTestosterone,
		TestTime:           at,
		Ether:              "Cypionate",
		DoseMg:             100,
		DaysSinceInjection: 7,
		Value:              600,
		Units:              domain.UnitNanogramsPerDL,
	}
}

func TestBloodTestServiceRecordAndList(t *testing.T) {
	t.Parallel()

	st := mocks.NewMockBloodTestStore()
	svc := service.NewBloodTestService(st, nil)
	userID := uuid.New()

	older := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(72 * time.Hour)

	first, err := svc.Record(context.Background(), userID, validInput(older))
	require.NoError(t, err)
	assert.Equal(t, "cypionate", first.Ether)

	e2 := validInput(newer)
	e2.Hormone = domain.ClassEstradiol
	e2.Ether = "valerate"
	e2.Units = domain.UnitPicogramsPerML
	second, err := svc.Record(context.Background(), userID, e2)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), userID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	testosterone, err := svc.List(context.Background(), userID, domain.ClassTestosterone)
	require.NoError(t, err)
	require.Len(t, testosterone, 1)
	assert.Equal(t, first.ID, testosterone[0].ID)

	_, err = svc.List(context.Background(), userID, "cortisol")
	assert.ErrorIs(t, err, domain.ErrUnknownCompoundClass)

	assert.Empty(t, mustList(t, svc, uuid.New()))
}

func mustList(t *testing.T, svc service.BloodTestService, userID uuid.UUID) []*domain.BloodTest {
	t.Helper()
	out, err := svc.List(context.Background(), userID, "")
	require.NoError(t, err)
	return out
}

func TestBloodTestServiceRecordValidation(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*service.BloodTestInput)
	}{
		{"unknown ester", func(in *service.BloodTestInput) { in.Ether = "nandrolone" }},
		{"zero value", func(in *service.BloodTestInput) { in.Value = 0 }},
		{"zero days", func(in *service.BloodTestInput) { in.DaysSinceInjection = 0 }},
		{"negative dose", func(in *service.BloodTestInput) { in.DoseMg = -1 }},
		{"bad unit", func(in *service.BloodTestInput) { in.Units = "nmol/L" }},
		{"bad hormone", func(in *service.BloodTestInput) { in.Hormone = "cortisol" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := validInput(at)
			tc.mutate(&in)
			_, err := service.NewBloodTestService(mocks.NewMockBloodTestStore(), nil).Record(context.Background(), uuid.New(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidBloodTest)
		})
	}
}

func TestBloodTestServiceDeleteScopedToOwner(t *testing.T) {
	t.Parallel()

	st := mocks.NewMockBloodTestStore()
	svc := service.NewBloodTestService(st, nil)
	owner := uuid.New()

	bt, err := svc.Record(context.Background(), owner, validInput(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New(), bt.ID), store.ErrBloodTestNotFound)
	require.NoError(t, svc.Delete(context.Background(), owner, bt.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, bt.ID), store.ErrNotFound)
}
