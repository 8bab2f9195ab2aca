package units

import (
	"testing"

	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertTestosterone(t *testing.T) {
	t.Parallel()

	d := Convert(domain.ClassTestosterone, []float64{0, 0.5, 1.25})

	assert.Equal(t, "ng/dL", d.Unit)
	assert.Equal(t, "testosterone (ng/dL)", d.Label)
	assert.InDeltaSlice(t, []float64{0, 50, 125}, d.Values, 1e-9)
	assert.Empty(t, d.SecondaryUnit)
	assert.Nil(t, d.Secondary)
}

func TestConvertEstradiol(t *testing.T) {
	t.Parallel()

	d := Convert(domain.ClassEstradiol, []float64{0.1, 0.2})

	assert.Equal(t, "pg/mL", d.Unit)
	assert.Equal(t, "estradiol (pg/mL)", d.Label)
	assert.InDeltaSlice(t, []float64{100, 200}, d.Values, 1e-9)
	assert.Equal(t, "pmol/L", d.SecondaryUnit)
	assert.InDeltaSlice(t, []float64{367, 734}, d.Secondary, 1e-9)
}

func TestConvertUnknownClassLeavesValuesUnscaled(t *testing.T) {
	t.Parallel()

	raw := []float64{1, 2}
	d := Convert("progesterone", raw)
	assert.Equal(t, raw, d.Values)
	assert.Empty(t, d.Unit)

	d.Values[0] = 99
	assert.Equal(t, 1.0, raw[0], "converted series must not alias the input")
}

func TestToRawRoundTrip(t *testing.T) {
	t.Parallel()

	for _, class := range domain.CompoundClasses {
		rule, ok := For(class)
		require.True(t, ok)

		for _, raw := range []float64{0, 1e-6, 0.0734, 1, 42.5} {
			display := rule.ToDisplay(raw)
			assert.InDelta(t, raw, ToRaw(class, display, rule.Unit), 1e-12, "class %s raw %v", class, raw)

			if secondary, ok := rule.ToSecondary(raw); ok {
				assert.InDelta(t, raw, ToRaw(class, secondary, rule.Secondary.Unit), 1e-12)
			}
		}
	}
}

func TestToRawTreatsUnknownUnitAsPrimary(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.15, ToRaw(domain.ClassEstradiol, 150, ""), 1e-12)
	assert.InDelta(t, 0.15, ToRaw(domain.ClassEstradiol, 150, "ng/dL"), 1e-12)
	assert.InDelta(t, 5.0, ToRaw(domain.ClassTestosterone, 500, "pmol/L"), 1e-12)
}

func TestToRawMatchesSecondaryUnitLoosely(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		unit string
	}{
		{name: "canonical", unit: "pmol/L"},
		{name: "lower case", unit: "pmol/l"},
		{name: "upper case", unit: "PMOL/L"},
		{name: "padded", unit: " pmol/L "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// 367 pmol/L is 100 pg/mL, which is 0.1 raw.
			assert.InDelta(t, 0.1, ToRaw(domain.ClassEstradiol, 367, tc.unit), 1e-12)
		})
	}
}
