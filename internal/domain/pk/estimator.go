package pk

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/units"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidEstimatorParams is returned when the decay-constant search grid is malformed.
var ErrInvalidEstimatorParams = errors.New("invalid estimator parameters")

// EstimatorParams defines the decay-constant search grid.
type EstimatorParams struct {
	// MinDecay is the first grid value (inclusive).
	MinDecay float64

	// MaxDecay bounds the grid (exclusive).
	MaxDecay float64

	// Step is the spacing between grid values.
	Step float64
}

// DefaultEstimatorParams returns the standard grid: 0.01 ≤ ke < 2.0 in
// steps of 0.001 per day.
func DefaultEstimatorParams() EstimatorParams {
	return EstimatorParams{MinDecay: 0.01, MaxDecay: 2.0, Step: 0.001}
}

// Validate checks the grid is non-empty and finite.
func (p EstimatorParams) Validate() error {
	switch {
	case !(p.MinDecay > 0) || math.IsInf(p.MinDecay, 0):
		return fmt.Errorf("%w: min decay must be positive", ErrInvalidEstimatorParams)
	case !(p.MaxDecay > p.MinDecay) || math.IsInf(p.MaxDecay, 0):
		return fmt.Errorf("%w: max decay must exceed min decay", ErrInvalidEstimatorParams)
	case !(p.Step > 0):
		return fmt.Errorf("%w: step must be positive", ErrInvalidEstimatorParams)
	}
	return nil
}

// gridSize is the number of grid points. Values are generated as
// MinDecay + i·Step so rounding never adds or drops the last point.
func (p EstimatorParams) gridSize() int {
	return int(math.Ceil((p.MaxDecay-p.MinDecay)/p.Step - 1e-9))
}

// Observation is one measured level used to fit a decay constant.
type Observation struct {
	// Class may be left empty, in which case the observation is assumed to
	// belong to the compound being fitted.
	Class domain.CompoundClass

	// Variant is the free-text ester label as the user entered it.
	Variant string

	DoseMg             float64
	DaysSinceInjection float64

	// Value is in clinical units described by Units.
	Value float64
	Units string
}

// ObservationFromBloodTest adapts a stored blood test.
func ObservationFromBloodTest(b *domain.BloodTest) Observation {
	return Observation{
		Class:              b.Hormone,
		Variant:            b.Ether,
		DoseMg:             b.DoseMg,
		DaysSinceInjection: b.DaysSinceInjection,
		Value:              b.Value,
		Units:              b.Units,
	}
}

// Estimate is the outcome of fitting observations to a compound.
type Estimate struct {
	// DecayConstant is nil when no observation was usable.
	DecayConstant *float64 `json:"decay_constant"`

	// RecordsConsidered counts observations left after variant filtering.
	RecordsConsidered int `json:"records_considered"`

	// RecordsUsed counts observations that produced a per-record fit.
	RecordsUsed int `json:"records_used"`

	// FallbackToClass is true when no observation matched the variant and
	// every observation of the class was used instead.
	FallbackToClass bool `json:"fallback_to_class"`
}

// HalfLifeDays returns ln(2)/ke for a resolved estimate.
func (e Estimate) HalfLifeDays() *float64 {
	if e.DecayConstant == nil || !(*e.DecayConstant > 0) {
		return nil
	}
	hl := math.Ln2 / *e.DecayConstant
	return &hl
}

// Estimator fits a personalized elimination constant to measured levels by
// exhaustive grid search.
type Estimator struct {
	params EstimatorParams
}

// NewEstimator validates params and returns an Estimator.
func NewEstimator(params EstimatorParams) (*Estimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{params: params}, nil
}

// NewDefaultEstimator returns an Estimator over DefaultEstimatorParams.
func NewDefaultEstimator() *Estimator {
	return &Estimator{params: DefaultEstimatorParams()}
}

// Params returns the grid the estimator searches.
func (e *Estimator) Params() EstimatorParams {
	return e.params
}

// Estimate fits a decay constant for compound from obs.
//
// Observations are first narrowed to those whose normalized variant equals
// the compound's. When none match, every observation of the compound's class
// is used. Records with a non-positive dose, non-positive elapsed days or a
// missing value are skipped. Each remaining record is fitted independently
// and the final constant is the mean of the per-record fits.
func (e *Estimator) Estimate(compound domain.Compound, obs []Observation) Estimate {
	var classObs []Observation
	for _, o := range obs {
		if o.Class == "" || o.Class == compound.Class {
			classObs = append(classObs, o)
		}
	}

	target := NormalizeVariant(compound.Variant)
	var selected []Observation
	for _, o := range classObs {
		if NormalizeVariant(o.Variant) == target {
			selected = append(selected, o)
		}
	}

	result := Estimate{}
	if len(selected) == 0 && len(classObs) > 0 {
		selected = classObs
		result.FallbackToClass = true
	}
	result.RecordsConsidered = len(selected)

	var sum float64
	for _, o := range selected {
		ke, ok := e.fitOne(compound, o)
		if !ok {
			continue
		}
		sum += ke
		result.RecordsUsed++
	}

	if result.RecordsUsed > 0 {
		mean := sum / float64(result.RecordsUsed)
		result.DecayConstant = &mean
	}
	return result
}

// fitOne returns the grid value whose predicted concentration is closest to
// the observed one. Ties keep the earliest grid value.
func (e *Estimator) fitOne(c domain.Compound, o Observation) (float64, bool) {
	if !(o.DoseMg > 0) || !(o.DaysSinceInjection > 0) || !isUsableValue(o.Value) {
		return 0, false
	}
	observed := units.ToRaw(c.Class, o.Value, o.Units)

	best := math.NaN()
	bestErr := math.Inf(1)
	n := e.params.gridSize()
	for i := 0; i < n; i++ {
		ke := e.params.MinDecay + float64(i)*e.params.Step
		predicted := CompoundConcentration(c, o.DoseMg, ke, o.DaysSinceInjection)
		if diff := math.Abs(predicted - observed); diff < bestErr {
			bestErr = diff
			best = ke
		}
	}

	if math.IsNaN(best) || math.IsInf(best, 0) {
		return 0, false
	}
	return best, true
}

func isUsableValue(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

var variantPrefix = regexp.MustCompile(`^(` + classAlternation() + `)\s+`)

func classAlternation() string {
	names := make([]string, len(domain.CompoundClasses))
	for i, c := range domain.CompoundClasses {
		names[i] = regexp.QuoteMeta(string(c))
	}
	return strings.Join(names, "|")
}

// NormalizeVariant canonicalizes a free-text ester label for comparison:
// lowercase, any leading hormone family name removed and all whitespace
// stripped. "Testosterone Enanthate" and " enan thate" both normalize to
// "enanthate".
func NormalizeVariant(s string) string {
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	s = variantPrefix.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), "")
}
