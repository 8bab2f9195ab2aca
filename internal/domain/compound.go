package domain

import (
	"fmt"
	"math"
)

// CompoundClass identifies the hormone family a compound belongs to. The
// string value matches the hormone column of stored blood tests.
type CompoundClass string

const (
	// ClassTestosterone is the testosterone family (class A).
	ClassTestosterone CompoundClass = "testosterone"

	// ClassEstradiol is the estradiol family (class B).
	ClassEstradiol CompoundClass = "estradiol"
)

// CompoundClasses lists every modeled class in a stable order.
var CompoundClasses = []CompoundClass{ClassTestosterone, ClassEstradiol}

// ParseCompoundClass maps a stored hormone name onto a CompoundClass.
func ParseCompoundClass(s string) (CompoundClass, error) {
	for _, c := range CompoundClasses {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompoundClass, s)
}

// Compound is an immutable catalog entry holding one-compartment PK constants.
type Compound struct {
	Class CompoundClass `json:"class"`
	Name  string        `json:"name"`

	// Variant is the ester name without the hormone family prefix.
	Variant string `json:"variant"`

	HalfLifeDays         float64 `json:"half_life_days"`
	AbsorptionRate       float64 `json:"absorption_rate"`
	VolumeOfDistribution float64 `json:"volume_of_distribution"`
	Bioavailability      float64 `json:"bioavailability"`
}

// PopulationDecayConstant returns ln(2) / half-life.
func (c Compound) PopulationDecayConstant() float64 {
	return math.Ln2 / c.HalfLifeDays
}

// Validate checks the PK constants are inside the model's domain.
func (c Compound) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "cannot be empty", ErrInvalidCompound)
	}
	if _, err := ParseCompoundClass(string(c.Class)); err != nil {
		return NewValidationError("class", err.Error(), ErrInvalidCompound)
	}
	if !(c.HalfLifeDays > 0) {
		return NewValidationError("half_life_days", "must be positive", ErrInvalidCompound)
	}
	if !(c.AbsorptionRate > 0) {
		return NewValidationError("absorption_rate", "must be positive", ErrInvalidCompound)
	}
	if !(c.VolumeOfDistribution > 0) {
		return NewValidationError("volume_of_distribution", "must be positive", ErrInvalidCompound)
	}
	if !(c.Bioavailability > 0 && c.Bioavailability <= 1) {
		return NewValidationError("bioavailability", "must be in (0, 1]", ErrInvalidCompound)
	}
	return nil
}
