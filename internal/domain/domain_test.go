package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompound() Compound {
	return Compound{
		Class:                ClassTestosterone,
		Name:                 "Testosterone Cypionate",
		Variant:              "Cypionate",
		HalfLifeDays:         8,
		AbsorptionRate:       1.0,
		VolumeOfDistribution: 70,
		Bioavailability:      1,
	}
}

func TestCompoundValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Compound)
		field  string
	}{
		{"valid", func(c *Compound) {}, ""},
		{"empty name", func(c *Compound) { c.Name = "" }, "name"},
		{"unknown class", func(c *Compound) { c.Class = "progesterone" }, "class"},
		{"zero half-life", func(c *Compound) { c.HalfLifeDays = 0 }, "half_life_days"},
		{"NaN ka", func(c *Compound) { c.AbsorptionRate = math.NaN() }, "absorption_rate"},
		{"negative vd", func(c *Compound) { c.VolumeOfDistribution = -1 }, "volume_of_distribution"},
		{"bioavailability above one", func(c *Compound) { c.Bioavailability = 1.5 }, "bioavailability"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := testCompound()
			tc.mutate(&c)
			err := c.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
			assert.ErrorIs(t, err, ErrInvalidCompound)
		})
	}
}

func TestPopulationDecayConstant(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, math.Ln2/8, testCompound().PopulationDecayConstant(), 1e-12)
}

func TestParseCompoundClass(t *testing.T) {
	t.Parallel()

	c, err := ParseCompoundClass("estradiol")
	require.NoError(t, err)
	assert.Equal(t, ClassEstradiol, c)

	_, err = ParseCompoundClass("Estradiol")
	assert.ErrorIs(t, err, ErrUnknownCompoundClass)
}

func TestNewRegimen(t *testing.T) {
	t.Parallel()

	limits := DefaultRegimenLimits()
	interval := func(v int) *int { return &v }

	r, err := NewRegimen(testCompound(), 50, 21, nil, false, limits)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, r.ID)

	tests := []struct {
		name     string
		dose     float64
		days     int
		interval *int
		field    string
	}{
		{"negative dose", -1, 21, nil, "dose_mg"},
		{"dose above limit", limits.MaxDoseMg + 1, 21, nil, "dose_mg"},
		{"zero days", 50, 0, nil, "simulation_days"},
		{"days above limit", 50, limits.MaxSimulationDays + 1, nil, "simulation_days"},
		{"zero interval", 50, 21, interval(0), "repeat_interval_days"},
		{"interval above limit", 50, 21, interval(limits.MaxRepeatIntervalDays + 1), "repeat_interval_days"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRegimen(testCompound(), tc.dose, tc.days, tc.interval, false, limits)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestRegimenCloneIsDeep(t *testing.T) {
	t.Parallel()

	iv, ke := 7, 0.1
	r := &Regimen{ID: uuid.New(), Compound: testCompound(), RepeatIntervalDays: &iv, PersonalizedDecayConstant: &ke}
	c := r.Clone()
	*c.RepeatIntervalDays = 14
	*c.PersonalizedDecayConstant = 0.5

	assert.Equal(t, 7, *r.RepeatIntervalDays)
	assert.Equal(t, 0.1, *r.PersonalizedDecayConstant)
}

func TestNewBloodTest(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now()

	bt, err := NewBloodTest(userID, ClassEstradiol, now, "  valerate ", 5, 3, 150, UnitPicogramsPerML, "")
	require.NoError(t, err)
	assert.Equal(t, "valerate", bt.Ether)
	assert.Equal(t, time.UTC, bt.TestTime.Location())

	tests := []struct {
		name  string
		build func() (*BloodTest, error)
		field string
	}{
		{"no user", func() (*BloodTest, error) {
			return NewBloodTest(uuid.Nil, ClassEstradiol, now, "valerate", 5, 3, 150, UnitPicogramsPerML, "")
		}, "user_id"},
		{"bad hormone", func() (*BloodTest, error) {
			return NewBloodTest(userID, "cortisol", now, "valerate", 5, 3, 150, UnitPicogramsPerML, "")
		}, "hormone"},
		{"zero value", func() (*BloodTest, error) {
			return NewBloodTest(userID, ClassEstradiol, now, "valerate", 5, 3, 0, UnitPicogramsPerML, "")
		}, "value"},
		{"bad unit", func() (*BloodTest, error) {
			return NewBloodTest(userID, ClassEstradiol, now, "valerate", 5, 3, 150, "nmol/L", "")
		}, "units"},
		{"notes too long", func() (*BloodTest, error) {
			return NewBloodTest(userID, ClassEstradiol, now, "valerate", 5, 3, 150, UnitPicogramsPerML, strings.Repeat("n", 1001))
		}, "notes"},
		{"empty ether", func() (*BloodTest, error) {
			return NewBloodTest(userID, ClassEstradiol, now, " ", 5, 3, 150, UnitPicogramsPerML, "")
		}, "ether"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.build()
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
			assert.ErrorIs(t, err, ErrInvalidBloodTest)
		})
	}
}

func TestValidationErrorWrapsGenericSentinel(t *testing.T) {
	t.Parallel()

	err := NewValidationError("email", "must be valid", nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid email: must be valid", err.Error())
}
