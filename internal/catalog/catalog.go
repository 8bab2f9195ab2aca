// Package catalog holds the fixed table of modeled compounds.
//
// The table is built once at package initialization and never mutated.
// Callers receive copies, so nothing outside this package can alter it.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/pksim-api/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownCompound is returned when a compound name is not in the catalog.
var ErrUnknownCompound = errors.New("unknown compound")

// Shared one-compartment constants for every catalog entry.
const (
	defaultVolumeOfDistribution = 70
	defaultBioavailability      = 1
)

type entry struct {
	class    domain.CompoundClass
	variant  string
	halfLife float64
	ka       float64
}

var entries = []entry{
	{domain.ClassTestosterone, "Enanthate", 4.5, 1.2},
	{domain.ClassTestosterone, "Cypionate", 8, 1.0},
	{domain.ClassTestosterone, "Propionate", 0.8, 1.5},
	{domain.ClassTestosterone, "Undecanoate", 20.9, 0.7},
	{domain.ClassTestosterone, "Isocaproate", 4, 1.2},
	{domain.ClassTestosterone, "Phenylpropionate", 1.5, 1.3},
	{domain.ClassTestosterone, "Decanoate", 15, 0.8},
	{domain.ClassTestosterone, "Acetate", 0.7, 1.7},

	{domain.ClassEstradiol, "Valerate", 3.5, 1.2},
	{domain.ClassEstradiol, "Cypionate", 8, 1.0},
	{domain.ClassEstradiol, "Benzoate", 0.5, 1.7},
	{domain.ClassEstradiol, "Enanthate", 4.5, 1.2},
	{domain.ClassEstradiol, "Acetate", 0.7, 1.7},
	{domain.ClassEstradiol, "Undecylate", 14, 0.8},
	{domain.ClassEstradiol, "Hexahydrobenzoate", 11, 0.9},
}

var (
	compounds []domain.Compound
	byKey     map[string]int
)

func init() {
	compounds = make([]domain.Compound, 0, len(entries))
	byKey = make(map[string]int, len(entries))

	title := cases.Title(language.English)
	for _, e := range entries {
		c := domain.Compound{
			Class:                e.class,
			Name:                 title.String(string(e.class)) + " " + e.variant,
			Variant:              e.variant,
			HalfLifeDays:         e.halfLife,
			AbsorptionRate:       e.ka,
			VolumeOfDistribution: defaultVolumeOfDistribution,
			Bioavailability:      defaultBioavailability,
		}
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("catalog: %s: %v", c.Name, err))
		}
		key := foldKey(c.Name)
		if _, dup := byKey[key]; dup {
			panic(fmt.Sprintf("catalog: duplicate compound %q", c.Name))
		}
		byKey[key] = len(compounds)
		compounds = append(compounds, c)
	}
}

func foldKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// All returns every compound in catalog order.
func All() []domain.Compound {
	out := make([]domain.Compound, len(compounds))
	copy(out, compounds)
	return out
}

// ByClass returns the compounds of one hormone family in catalog order.
func ByClass(class domain.CompoundClass) []domain.Compound {
	var out []domain.Compound
	for _, c := range compounds {
		if c.Class == class {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a compound by display name. Matching ignores case and
// collapses repeated whitespace.
func Lookup(name string) (domain.Compound, error) {
	i, ok := byKey[foldKey(name)]
	if !ok {
		return domain.Compound{}, fmt.Errorf("%w: %q", ErrUnknownCompound, name)
	}
	return compounds[i], nil
}

// Default returns the compound preselected for new regimens.
func Default() domain.Compound {
	c, err := Lookup(domain.DefaultCompoundName)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns every compound name in catalog order.
func Names() []string {
	out := make([]string, len(compounds))
	for i, c := range compounds {
		out[i] = c.Name
	}
	return out
}
