package catalog

import (
	"testing"

	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCompoundsValid(t *testing.T) {
	t.Parallel()

	all := All()
	require.Len(t, all, 15)

	seen := map[string]bool{}
	for _, c := range all {
		assert.NoError(t, c.Validate(), c.Name)
		assert.False(t, seen[c.Name], "duplicate %s", c.Name)
		seen[c.Name] = true
		assert.Equal(t, 70.0, c.VolumeOfDistribution)
		assert.Equal(t, 1.0, c.Bioavailability)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	all := All()
	all[0].HalfLifeDays = 999

	again := All()
	assert.NotEqual(t, 999.0, again[0].HalfLifeDays)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantName string
		wantHL   float64
		wantErr  bool
	}{
		{"exact", "Testosterone Cypionate", "Testosterone Cypionate", 8, false},
		{"case insensitive", "estradiol VALERATE", "Estradiol Valerate", 3.5, false},
		{"extra whitespace", "  Testosterone   Undecanoate ", "Testosterone Undecanoate", 20.9, false},
		{"unknown", "Nandrolone Decanoate", "", 0, true},
		{"empty", "", "", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := Lookup(tc.query)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCompound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, c.Name)
			assert.Equal(t, tc.wantHL, c.HalfLifeDays)
		})
	}
}

func TestByClass(t *testing.T) {
	t.Parallel()

	testosterone := ByClass(domain.ClassTestosterone)
	estradiol := ByClass(domain.ClassEstradiol)

	assert.Len(t, testosterone, 8)
	assert.Len(t, estradiol, 7)
	for _, c := range estradiol {
		assert.Equal(t, domain.ClassEstradiol, c.Class)
	}
	assert.Empty(t, ByClass("progesterone"))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.Equal(t, domain.DefaultCompoundName, c.Name)
	assert.Equal(t, "Enanthate", c.Variant)
	assert.Equal(t, 4.5, c.HalfLifeDays)
	assert.Len(t, Names(), 15)
}
