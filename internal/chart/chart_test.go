package chart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regimen(t *testing.T, name string, dose float64, days int) *domain.Regimen {
	t.Helper()
	c, err := catalog.Lookup(name)
	require.NoError(t, err)
	return &domain.Regimen{ID: uuid.New(), Compound: c, DoseMg: dose, SimulationDays: days}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	c, err := NewAggregator(0).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.NotNil(t, c.Lines)
	assert.Zero(t, c.MaxDay)
	assert.Zero(t, c.MaxY)
	assert.Empty(t, c.Lookup(3))
}

func TestBuildSharedScales(t *testing.T) {
	t.Parallel()

	short := regimen(t, "Testosterone Propionate", 100, 10)
	long := regimen(t, "Estradiol Valerate", 5, 30)

	c, err := NewAggregator(2).Build(context.Background(), []Input{{Regimen: short}, {Regimen: long}})
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)

	assert.Equal(t, short.ID.String(), c.Lines[0].RegimenID)
	assert.Equal(t, long.ID.String(), c.Lines[1].RegimenID)
	assert.Equal(t, 30, c.MaxDay)

	var want float64
	for _, l := range c.Lines {
		for _, v := range l.Display.Values {
			want = max(want, v)
		}
	}
	assert.Equal(t, want, c.MaxY)

	assert.Equal(t, "ng/dL", c.Lines[0].Display.Unit)
	assert.Equal(t, "pg/mL", c.Lines[1].Display.Unit)
	assert.Equal(t, "pmol/L", c.Lines[1].Display.SecondaryUnit)
	assert.Len(t, c.Lines[0].Raw, 11)
	assert.Len(t, c.Lines[1].Raw, 31)
}

func TestBuildPersonalizedLine(t *testing.T) {
	t.Parallel()

	r := regimen(t, "Testosterone Cypionate", 50, 14)
	ke := 0.2
	r.UsePersonalizedRate = true
	r.PersonalizedDecayConstant = &ke

	c, err := (&Aggregator{}).Build(context.Background(), []Input{{Regimen: r}})
	require.NoError(t, err)
	assert.True(t, c.Lines[0].Personalized)
	assert.Equal(t, ke, c.Lines[0].DecayConstant)
}

func TestLookupOmitsFinishedRegimens(t *testing.T) {
	t.Parallel()

	short := regimen(t, "Testosterone Enanthate", 50, 5)
	long := regimen(t, "Estradiol Valerate", 5, 20)

	c, err := NewAggregator(0).Build(context.Background(), []Input{{Regimen: short}, {Regimen: long}})
	require.NoError(t, err)

	at3 := c.Lookup(3)
	require.Len(t, at3, 2)
	assert.Equal(t, c.Lines[0].Display.Values[3], at3[0].Value)
	assert.Nil(t, at3[0].SecondaryValue)
	require.NotNil(t, at3[1].SecondaryValue)
	assert.InDelta(t, at3[1].Value*3.67, *at3[1].SecondaryValue, 1e-9)

	at10 := c.Lookup(10)
	require.Len(t, at10, 1)
	assert.Equal(t, long.ID.String(), at10[0].RegimenID)

	assert.Empty(t, c.Lookup(21))
	assert.Empty(t, c.Lookup(-1))
}

func TestColorsCycle(t *testing.T) {
	t.Parallel()

	inputs := make([]Input, 10)
	for i := range inputs {
		inputs[i] = Input{Regimen: regimen(t, "Testosterone Enanthate", 50, 3)}
	}

	c, err := NewAggregator(3).Build(context.Background(), inputs)
	require.NoError(t, err)

	for i, l := range c.Lines {
		assert.Equal(t, Palette[i%8], l.Color)
	}
	assert.Equal(t, "#60a5fa", c.Lines[8].Color)
	assert.Equal(t, "#f472b6", c.Lines[9].Color)
}

func TestBuildCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(1).Build(ctx, []Input{{Regimen: regimen(t, "Testosterone Enanthate", 50, 3)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTicks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 2, 4, 6, 8, 11, 13, 15, 17, 19, 21}, XTicks(21))
	assert.Equal(t, []int{0, 18, 36, 54, 72, 90, 108, 126, 144, 162, 180}, XTicks(180))
	assert.Equal(t, make([]int, 11), XTicks(0))

	y := YTicks(500)
	require.Len(t, y, 6)
	assert.InDeltaSlice(t, []float64{500, 400, 300, 200, 100, 0}, y, 1e-9)
}
