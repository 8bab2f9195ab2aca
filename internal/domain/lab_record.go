package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lab units accepted on blood test records.
const (
	UnitPicogramsPerML     = "pg/mL"
	UnitNanogramsPerDL     = "ng/dL"
	UnitPicomolesPerLiter  = "pmol/L"
	maxBloodTestNotesRunes = 1000
	maxBloodTestEtherRunes = 64
)

// BloodTestUnits lists the accepted lab units.
var BloodTestUnits = []string{UnitPicogramsPerML, UnitNanogramsPerDL, UnitPicomolesPerLiter}

// BloodTest is a lab measurement recorded by a user. It is the persisted
// source of the observations the elimination-rate estimator fits against.
type BloodTest struct {
	ID      uuid.UUID     `json:"id"`
	UserID  uuid.UUID     `json:"user_id"`
	Hormone CompoundClass `json:"hormone"`

	TestTime time.Time `json:"test_time"`

	// Ether is the free-text ester name the user was injecting.
	Ether string `json:"ether"`

	DoseMg             float64 `json:"dose"`
	DaysSinceInjection float64 `json:"time_since_injection"`
	Value              float64 `json:"value"`
	Units              string  `json:"units"`
	Notes              string  `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewBloodTest creates a validated BloodTest with a fresh ID.
func NewBloodTest(
	userID uuid.UUID,
	hormone CompoundClass,
	testTime time.Time,
	ether string,
	doseMg, daysSinceInjection, value float64,
	units, notes string,
) (*BloodTest, error) {
	bt := &BloodTest{
		ID:                 uuid.New(),
		UserID:             userID,
		Hormone:            hormone,
		TestTime:           testTime.UTC(),
		Ether:              strings.TrimSpace(ether),
		DoseMg:             doseMg,
		DaysSinceInjection: daysSinceInjection,
		Value:              value,
		Units:              units,
		Notes:              notes,
		CreatedAt:          time.Now().UTC(),
	}

	if err := bt.Validate(); err != nil {
		return nil, err
	}
	return bt, nil
}

// Validate checks that the record is complete enough to store.
func (b *BloodTest) Validate() error {
	if b.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidBloodTest)
	}
	if b.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidBloodTest)
	}
	if _, err := ParseCompoundClass(string(b.Hormone)); err != nil {
		return NewValidationError("hormone", "must be estradiol or testosterone", ErrInvalidBloodTest)
	}
	if b.TestTime.IsZero() {
		return NewValidationError("test_time", "cannot be empty", ErrInvalidBloodTest)
	}
	if b.Ether == "" || len([]rune(b.Ether)) > maxBloodTestEtherRunes {
		return NewValidationError("ether", "must be 1-64 characters", ErrInvalidBloodTest)
	}
	if !isFiniteNonNegative(b.DoseMg) {
		return NewValidationError("dose", "must be zero or positive", ErrInvalidBloodTest)
	}
	if !(b.DaysSinceInjection > 0) || math.IsInf(b.DaysSinceInjection, 0) {
		return NewValidationError("time_since_injection", "must be positive", ErrInvalidBloodTest)
	}
	if !(b.Value > 0) || math.IsInf(b.Value, 0) {
		return NewValidationError("value", "must be positive", ErrInvalidBloodTest)
	}
	if !isBloodTestUnit(b.Units) {
		return NewValidationError("units", "must be one of pg/mL, ng/dL, pmol/L", ErrInvalidBloodTest)
	}
	if len([]rune(b.Notes)) > maxBloodTestNotesRunes {
		return NewValidationError("notes", "too long", ErrInvalidBloodTest)
	}
	return nil
}

func isFiniteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func isBloodTestUnit(u string) bool {
	for _, known := range BloodTestUnits {
		if u == known {
			return true
		}
	}
	return false
}
