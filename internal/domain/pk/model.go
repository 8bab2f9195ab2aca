// Package pk implements the one-compartment pharmacokinetic model used to
// simulate plasma hormone levels: the single-dose concentration curve,
// repeated-dose superposition and the grid-search elimination-rate estimator.
//
// Everything here is pure and safe for concurrent use.
package pk

import (
	"math"

	"github.com/phrazzld/pksim-api/internal/domain"
)

// DegenerateRateFactor scales the decay constant when it equals the
// absorption rate, where the closed form divides by zero.
const DegenerateRateFactor = 0.999

// Concentration returns the modeled concentration t days after a single
// instantaneous dose of a one-compartment, first-order absorption model:
//
//	C(t) = F·Dose·ka / (Vd·(ka−ke)) · (e^(−ke·t) − e^(−ka·t))
//
// Parameters:
//   - doseMg: administered dose in mg
//   - ka: first-order absorption rate per day
//   - ke: first-order elimination (decay) constant per day
//   - vd: volume of distribution
//   - f: bioavailable fraction of the dose
//   - t: days since the dose
//
// Returns:
//   - 0 when t < 0 (the dose has not been given yet) or vd is not positive
//   - the concentration in raw model units otherwise
//
// When ka == ke the formula is undefined. ke is then multiplied by
// DegenerateRateFactor before evaluating. This is a numerical approximation
// of the limit F·Dose·ka·t·e^(−ka·t)/Vd, not the exact limit.
func Concentration(doseMg, ka, ke, vd, f, t float64) float64 {
	if t < 0 || !(vd > 0) {
		return 0
	}
	if ratesCoincide(ka, ke) {
		ke *= DegenerateRateFactor
	}
	return (f * doseMg * ka) / (vd * (ka - ke)) * (math.Exp(-ke*t) - math.Exp(-ka*t))
}

// CompoundConcentration evaluates Concentration with the compound's fixed
// absorption rate, volume and bioavailability.
func CompoundConcentration(c domain.Compound, doseMg, ke, t float64) float64 {
	return Concentration(doseMg, c.AbsorptionRate, ke, c.VolumeOfDistribution, c.Bioavailability, t)
}

func ratesCoincide(ka, ke float64) bool {
	return math.Abs(ka-ke) <= 1e-12*math.Max(1, math.Abs(ka))
}
