package domain

import (
	"math"

	"github.com/google/uuid"
)

// Default values for a freshly added regimen.
const (
	DefaultCompoundName   = "Testosterone Enanthate"
	DefaultDoseMg         = 50.0
	DefaultSimulationDays = 21
)

// RegimenLimits bounds user-editable regimen fields.
type RegimenLimits struct {
	MaxSimulationDays     int
	MaxRepeatIntervalDays int
	MaxDoseMg             float64
}

// DefaultRegimenLimits returns the limits used by the input forms.
func DefaultRegimenLimits() RegimenLimits {
	return RegimenLimits{
		MaxSimulationDays:     180,
		MaxRepeatIntervalDays: 60,
		MaxDoseMg:             10000,
	}
}

// Regimen is one simulation request: a compound, a dose and a schedule.
type Regimen struct {
	ID             uuid.UUID `json:"id"`
	Compound       Compound  `json:"compound"`
	DoseMg         float64   `json:"dose_mg"`
	SimulationDays int       `json:"simulation_days"`

	// RepeatIntervalDays is nil for a single dose.
	RepeatIntervalDays *int `json:"repeat_interval_days,omitempty"`

	UsePersonalizedRate       bool     `json:"use_personalized_rate"`
	PersonalizedDecayConstant *float64 `json:"personalized_decay_constant,omitempty"`
}

// NewRegimen creates a regimen with a fresh ID and validates it against limits.
func NewRegimen(
	compound Compound,
	doseMg float64,
	simulationDays int,
	repeatIntervalDays *int,
	usePersonalizedRate bool,
	limits RegimenLimits,
) (*Regimen, error) {
	r := &Regimen{
		ID:                  uuid.New(),
		Compound:            compound,
		DoseMg:              doseMg,
		SimulationDays:      simulationDays,
		RepeatIntervalDays:  repeatIntervalDays,
		UsePersonalizedRate: usePersonalizedRate,
	}
	if err := r.Validate(limits); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks user-editable fields against limits.
func (r *Regimen) Validate(limits RegimenLimits) error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidRegimen)
	}
	if err := r.Compound.Validate(); err != nil {
		return err
	}
	if math.IsNaN(r.DoseMg) || r.DoseMg < 0 || r.DoseMg > limits.MaxDoseMg {
		return NewValidationError("dose_mg", "out of range", ErrInvalidRegimen)
	}
	if r.SimulationDays < 1 || r.SimulationDays > limits.MaxSimulationDays {
		return NewValidationError("simulation_days", "out of range", ErrInvalidRegimen)
	}
	if r.RepeatIntervalDays != nil {
		if iv := *r.RepeatIntervalDays; iv < 1 || iv > limits.MaxRepeatIntervalDays {
			return NewValidationError("repeat_interval_days", "out of range", ErrInvalidRegimen)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hand regimens across goroutines.
func (r *Regimen) Clone() *Regimen {
	c := *r
	if r.RepeatIntervalDays != nil {
		iv := *r.RepeatIntervalDays
		c.RepeatIntervalDays = &iv
	}
	if r.PersonalizedDecayConstant != nil {
		ke := *r.PersonalizedDecayConstant
		c.PersonalizedDecayConstant = &ke
	}
	return &c
}
