// Package units maps raw model concentrations onto clinical lab units.
//
// The mapping is a static table keyed by compound class. Supporting another
// hormone family means adding a row to the table, not writing new logic.
package units

import (
	"strings"

	"github.com/phrazzld/pksim-api/internal/domain"
)

// PicogramsToPicomolesEstradiol is the molar conversion from pg/mL to pmol/L
// for estradiol.
const PicogramsToPicomolesEstradiol = 3.67

// Secondary describes an optional second display unit derived from the
// primary display value.
type Secondary struct {
	Factor float64 `json:"factor"`
	Unit   string  `json:"unit"`
}

// Rule is one row of the conversion table.
type Rule struct {
	Class     domain.CompoundClass `json:"class"`
	Factor    float64              `json:"factor"`
	Unit      string               `json:"unit"`
	Label     string               `json:"label"`
	Secondary *Secondary           `json:"secondary,omitempty"`
}

var table = map[domain.CompoundClass]Rule{
	domain.ClassTestosterone: {
		Class:  domain.ClassTestosterone,
		Factor: 100,
		Unit:   domain.UnitNanogramsPerDL,
		Label:  "testosterone (ng/dL)",
	},
	domain.ClassEstradiol: {
		Class:  domain.ClassEstradiol,
		Factor: 1000,
		Unit:   domain.UnitPicogramsPerML,
		Label:  "estradiol (pg/mL)",
		Secondary: &Secondary{
			Factor: PicogramsToPicomolesEstradiol,
			Unit:   domain.UnitPicomolesPerLiter,
		},
	},
}

// For returns the conversion rule for class.
func For(class domain.CompoundClass) (Rule, bool) {
	r, ok := table[class]
	return r, ok
}

// ToDisplay converts a raw model concentration into the primary clinical unit.
func (r Rule) ToDisplay(raw float64) float64 {
	return raw * r.Factor
}

// ToSecondary converts a raw model concentration into the secondary unit.
// The boolean is false when the class has no secondary unit.
func (r Rule) ToSecondary(raw float64) (float64, bool) {
	if r.Secondary == nil {
		return 0, false
	}
	return r.ToDisplay(raw) * r.Secondary.Factor, true
}

// Display is a display-ready series derived from a raw series.
type Display struct {
	Unit          string    `json:"unit"`
	Label         string    `json:"label"`
	Values        []float64 `json:"values"`
	SecondaryUnit string    `json:"secondary_unit,omitempty"`
	Secondary     []float64 `json:"secondary_values,omitempty"`
}

// Convert maps raw concentrations into display units for class. An unknown
// class yields the raw values unscaled with no unit label.
func Convert(class domain.CompoundClass, raw []float64) Display {
	rule, ok := For(class)
	if !ok {
		values := make([]float64, len(raw))
		copy(values, raw)
		return Display{Values: values}
	}

	d := Display{
		Unit:   rule.Unit,
		Label:  rule.Label,
		Values: make([]float64, len(raw)),
	}
	for i, v := range raw {
		d.Values[i] = rule.ToDisplay(v)
	}

	if rule.Secondary != nil {
		d.SecondaryUnit = rule.Secondary.Unit
		d.Secondary = make([]float64, len(raw))
		for i, v := range raw {
			d.Secondary[i], _ = rule.ToSecondary(v)
		}
	}
	return d
}

// ToRaw converts a lab value back into raw model units. Values recorded in the
// class's secondary unit are first brought back to the primary unit. Any other
// unit, including an empty one, is read as the primary unit.
func ToRaw(class domain.CompoundClass, value float64, unit string) float64 {
	rule, ok := For(class)
	if !ok {
		return value
	}
	if rule.Secondary != nil && strings.EqualFold(strings.TrimSpace(unit), rule.Secondary.Unit) {
		value /= rule.Secondary.Factor
	}
	return value / rule.Factor
}
