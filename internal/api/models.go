package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/chart"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/units"
	"github.com/phrazzld/pksim-api/internal/personalize"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the body of POST /api/auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse carries a fresh token pair.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`

	// ExpiresAt is the access token expiry in RFC 3339.
	ExpiresAt string `json:"expires_at"`
}

// CompoundResponse is one catalog entry with its display units.
type CompoundResponse struct {
	domain.Compound
	PopulationDecayConstant float64    `json:"population_decay_constant"`
	Units                   units.Rule `json:"units"`
}

// RegimenRequest is one regimen in a stateless simulation.
type RegimenRequest struct {
	CompoundName              string   `json:"compound_name"                         validate:"required"`
	DoseMg                    float64  `json:"dose_mg"                               validate:"gte=0"`
	SimulationDays            int      `json:"simulation_days"                       validate:"min=1"`
	RepeatIntervalDays        *int     `json:"repeat_interval_days,omitempty"        validate:"omitempty,min=1"`
	UsePersonalizedRate       bool     `json:"use_personalized_rate"`
	PersonalizedDecayConstant *float64 `json:"personalized_decay_constant,omitempty" validate:"omitempty,gt=0"`
}

// SimulationRequest is the body of POST /api/simulations.
type SimulationRequest struct {
	Regimens []RegimenRequest `json:"regimens" validate:"required,min=1,dive"`
}

// EstimateRequest is the body of POST /api/estimates.
type EstimateRequest struct {
	CompoundName string `json:"compound" validate:"required"`
}

// EstimateResponse is the result of a direct estimate. DecayConstant is
// null when no usable blood test data exists.
type EstimateResponse struct {
	Compound                 string   `json:"compound"`
	DecayConstant            *float64 `json:"decay_constant"`
	PersonalizedHalfLifeDays *float64 `json:"personalized_half_life_days"`
	HalfLifeDisplay          string   `json:"half_life_display,omitempty"`
	RecordsUsed              int      `json:"records_used"`
	FallbackToClass          bool     `json:"fallback_to_class"`
	Message                  string   `json:"message,omitempty"`
}

func newEstimateResponse(compound string, v personalize.View) EstimateResponse {
	return EstimateResponse{
		Compound:                 compound,
		DecayConstant:            v.DecayConstant,
		PersonalizedHalfLifeDays: v.HalfLifeDays,
		HalfLifeDisplay:          v.HalfLifeDisplay,
		RecordsUsed:              v.RecordsUsed,
		FallbackToClass:          v.FallbackToClass,
		Message:                  v.Message,
	}
}

// BloodTestRequest is the body of POST /api/blood-tests.
type BloodTestRequest struct {
	Hormone            string    `json:"hormone"              validate:"required,oneof=testosterone estradiol"`
	TestTime           time.Time `json:"test_time"            validate:"required"`
	Ether              string    `json:"ether"                validate:"required,max=64"`
	DoseMg             float64   `json:"dose"                 validate:"gte=0"`
	DaysSinceInjection float64   `json:"time_since_injection" validate:"gt=0"`
	Value              float64   `json:"value"                validate:"gt=0"`
	Units              string    `json:"units"                validate:"required,oneof=pg/mL ng/dL pmol/L"`
	Notes              string    `json:"notes,omitempty"      validate:"max=1000"`
}

// BloodTestListResponse wraps a user's blood tests, newest first.
type BloodTestListResponse struct {
	BloodTests []*domain.BloodTest `json:"blood_tests"`
}

// AddRegimenRequest is the body of POST /api/workspace/regimens. Omitted
// fields take the defaults for a new regimen.
type AddRegimenRequest struct {
	CompoundName        string   `json:"compound_name,omitempty"`
	DoseMg              *float64 `json:"dose_mg,omitempty"              validate:"omitempty,gte=0"`
	SimulationDays      *int     `json:"simulation_days,omitempty"      validate:"omitempty,min=1"`
	RepeatIntervalDays  *int     `json:"repeat_interval_days,omitempty" validate:"omitempty,min=1"`
	UsePersonalizedRate bool     `json:"use_personalized_rate"`
}

// UpdateRegimenRequest is the body of PATCH /api/workspace/regimens/{id}.
// Setting clear_repeat_interval switches the regimen to a single dose.
type UpdateRegimenRequest struct {
	CompoundName        *string  `json:"compound_name,omitempty"`
	DoseMg              *float64 `json:"dose_mg,omitempty"              validate:"omitempty,gte=0"`
	SimulationDays      *int     `json:"simulation_days,omitempty"      validate:"omitempty,min=1"`
	RepeatIntervalDays  *int     `json:"repeat_interval_days,omitempty" validate:"omitempty,min=1"`
	ClearRepeatInterval bool     `json:"clear_repeat_interval,omitempty"`
	UsePersonalizedRate *bool    `json:"use_personalized_rate,omitempty"`
}

// LevelsResponse is the cross-regimen lookup for one day.
type LevelsResponse struct {
	Day    int             `json:"day"`
	Levels []chart.LevelAt `json:"levels"`
}
