package api

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/chart"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/metrics"
)

// SimulationHandler serves stateless chart builds.
type SimulationHandler struct {
	aggregator  *chart.Aggregator
	limits      domain.RegimenLimits
	maxRegimens int
}

// NewSimulationHandler creates a SimulationHandler.
func NewSimulationHandler(aggregator *chart.Aggregator, limits domain.RegimenLimits, maxRegimens int) *SimulationHandler {
	if aggregator == nil {
		aggregator = &chart.Aggregator{}
	}
	return &SimulationHandler{aggregator: aggregator, limits: limits, maxRegimens: maxRegimens}
}

// Simulate handles POST /api/simulations.
func (h *SimulationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if h.maxRegimens > 0 && len(req.Regimens) > h.maxRegimens {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("At most %d regimens can be simulated together", h.maxRegimens))
		return
	}

	inputs := make([]chart.Input, len(req.Regimens))
	for i, rr := range req.Regimens {
		compound, err := catalog.Lookup(rr.CompoundName)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		regimen, err := domain.NewRegimen(compound, rr.DoseMg, rr.SimulationDays,
			rr.RepeatIntervalDays, rr.UsePersonalizedRate, h.limits)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		regimen.PersonalizedDecayConstant = rr.PersonalizedDecayConstant
		inputs[i] = chart.Input{Regimen: regimen}
	}

	c, err := h.aggregator.Build(r.Context(), inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to simulate regimens")
		return
	}
	metrics.SimulatedRegimens.Add(float64(len(inputs)))

	shared.RespondWithJSON(w, r, http.StatusOK, c)
}
