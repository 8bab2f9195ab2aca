package pk

import (
	"math"

	"github.com/phrazzld/pksim-api/internal/domain"
)

// Point is one day of a simulated series.
type Point struct {
	Day           int     `json:"day"`
	Concentration float64 `json:"concentration"`
}

// Series is a concentration-vs-day curve in raw model units, one point per
// integer day starting at day 0.
type Series struct {
	Points []Point `json:"points"`
}

// Values returns the concentrations in day order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Concentration
	}
	return out
}

// At returns the concentration on day. The boolean is false outside the
// simulated range.
func (s Series) At(day int) (float64, bool) {
	if day < 0 || day >= len(s.Points) {
		return 0, false
	}
	return s.Points[day].Concentration, true
}

// Peak returns the first point holding the maximum concentration. An empty
// series yields the zero Point.
func (s Series) Peak() Point {
	var peak Point
	for i, p := range s.Points {
		if i == 0 || p.Concentration > peak.Concentration {
			peak = p
		}
	}
	return peak
}

// Dosing holds the schedule inputs of a simulation.
type Dosing struct {
	DoseMg         float64
	SimulationDays int

	// RepeatIntervalDays is nil or non-positive for a single dose.
	RepeatIntervalDays *int
}

// DosingFor extracts the schedule from a regimen.
func DosingFor(r *domain.Regimen) Dosing {
	return Dosing{
		DoseMg:             r.DoseMg,
		SimulationDays:     r.SimulationDays,
		RepeatIntervalDays: r.RepeatIntervalDays,
	}
}

// EffectiveDecayConstant selects the decay constant a regimen simulates with:
// the personalized value when requested and usable, otherwise the population
// value ln(2)/half-life.
func EffectiveDecayConstant(c domain.Compound, usePersonalized bool, personalized *float64) float64 {
	if usePersonalized && personalized != nil && *personalized > 0 && !math.IsInf(*personalized, 0) {
		return *personalized
	}
	return c.PopulationDecayConstant()
}

// Simulate builds the series for days 0..SimulationDays inclusive.
//
// Single dose: each day is C(d). With a repeat interval R, doses are given at
// τ = 0, R, 2R, ... and each day sums C(d − τ) over every dose given on or
// before d. The model is linear so the contributions add.
//
// Out-of-range inputs are clamped rather than rejected: a negative or NaN
// dose simulates as 0 and negative days produce the single day-0 point.
func Simulate(c domain.Compound, dosing Dosing, ke float64) Series {
	days := dosing.SimulationDays
	if days < 0 {
		days = 0
	}
	dose := dosing.DoseMg
	if !(dose > 0) {
		dose = 0
	}
	interval := 0
	if dosing.RepeatIntervalDays != nil && *dosing.RepeatIntervalDays > 0 {
		interval = *dosing.RepeatIntervalDays
	}

	points := make([]Point, days+1)
	for d := 0; d <= days; d++ {
		var conc float64
		if interval > 0 {
			for tau := 0; tau <= d; tau += interval {
				conc += CompoundConcentration(c, dose, ke, float64(d-tau))
			}
		} else {
			conc = CompoundConcentration(c, dose, ke, float64(d))
		}
		points[d] = Point{Day: d, Concentration: conc}
	}

	return Series{Points: points}
}

// SimulateRegimen simulates r with its effective decay constant.
func SimulateRegimen(r *domain.Regimen) (Series, float64) {
	ke := EffectiveDecayConstant(r.Compound, r.UsePersonalizedRate, r.PersonalizedDecayConstant)
	return Simulate(r.Compound, DosingFor(r), ke), ke
}
