// Package personalize fits per-user decay constants from blood tests and
// tracks, per regimen, where that fit is in its lifecycle.
package personalize

import (
	"fmt"

	"github.com/phrazzld/pksim-api/internal/domain/pk"
)

// MessageNoData is shown when no usable observation exists.
const MessageNoData = "no usable blood test data"

// Status is a regimen's personalization phase.
type Status string

// Personalization phases. Idle moves to Fetching when a cycle starts;
// Fetching ends in Resolved or Unavailable.
const (
	StatusIdle        Status = "idle"
	StatusFetching    Status = "fetching"
	StatusResolved    Status = "resolved"
	StatusUnavailable Status = "unavailable"
)

// State is the personalization state machine for one regimen. It is not safe
// for concurrent use; the owner serializes access.
//
// Every Reset bumps Generation, so a result computed for an earlier
// generation can be recognized and dropped.
type State struct {
	Status     Status
	Generation uint64
	Estimate   *pk.Estimate
}

// Reset returns to Idle and invalidates any in-flight cycle.
func (s *State) Reset() {
	s.Status = StatusIdle
	s.Generation++
	s.Estimate = nil
}

// Begin starts a cycle. It returns the cycle's generation, or false when a
// cycle is already in flight or finished for this generation.
func (s *State) Begin() (uint64, bool) {
	if s.Status != StatusIdle && s.Status != "" {
		return 0, false
	}
	s.Status = StatusFetching
	return s.Generation, true
}

// Complete records the result of the cycle started at generation. It reports
// false and changes nothing if that cycle is no longer current.
func (s *State) Complete(generation uint64, est pk.Estimate) bool {
	if s.Status != StatusFetching || s.Generation != generation {
		return false
	}
	s.Estimate = &est
	if est.DecayConstant != nil {
		s.Status = StatusResolved
	} else {
		s.Status = StatusUnavailable
	}
	return true
}

// DecayConstant returns the fitted constant once Resolved.
func (s *State) DecayConstant() *float64 {
	if s.Status != StatusResolved || s.Estimate == nil {
		return nil
	}
	return s.Estimate.DecayConstant
}

// View is the serializable form of State.
type View struct {
	Status          Status   `json:"status"`
	Generation      uint64   `json:"generation"`
	DecayConstant   *float64 `json:"decay_constant"`
	HalfLifeDays    *float64 `json:"half_life_days"`
	HalfLifeDisplay string   `json:"half_life_display,omitempty"`
	RecordsUsed     int      `json:"records_used"`
	FallbackToClass bool     `json:"fallback_to_class"`
	Message         string   `json:"message,omitempty"`
}

// View summarizes the state for clients.
func (s *State) View() View {
	v := View{Status: s.Status, Generation: s.Generation}
	if v.Status == "" {
		v.Status = StatusIdle
	}
	if s.Estimate != nil {
		v = mergeEstimate(v, *s.Estimate)
	}
	if v.Status == StatusUnavailable {
		v.Message = MessageNoData
	}
	return v
}

// EstimateView summarizes a one-off estimate with no lifecycle.
func EstimateView(est pk.Estimate) View {
	v := View{Status: StatusResolved}
	if est.DecayConstant == nil {
		v.Status = StatusUnavailable
		v.Message = MessageNoData
	}
	return mergeEstimate(v, est)
}

func mergeEstimate(v View, est pk.Estimate) View {
	v.DecayConstant = est.DecayConstant
	v.HalfLifeDays = est.HalfLifeDays()
	v.HalfLifeDisplay = FormatHalfLife(v.HalfLifeDays)
	v.RecordsUsed = est.RecordsUsed
	v.FallbackToClass = est.FallbackToClass
	return v
}

// FormatHalfLife renders a half-life with two decimals, or "" when absent.
func FormatHalfLife(days *float64) string {
	if days == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *days)
}
