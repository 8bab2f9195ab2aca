package api

import (
	"net/http"

	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/personalize"
)

// EstimateHandler runs the estimator synchronously for the signed-in user.
type EstimateHandler struct {
	service *personalize.Service
}

// NewEstimateHandler creates an EstimateHandler.
func NewEstimateHandler(service *personalize.Service) *EstimateHandler {
	return &EstimateHandler{service: service}
}

// Estimate handles POST /api/estimates. Missing data is a 200 with a null
// decay constant, not an error.
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req EstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	compound, err := catalog.Lookup(req.CompoundName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	est := h.service.Estimate(r.Context(), userID, compound)
	shared.RespondWithJSON(w, r, http.StatusOK, newEstimateResponse(compound.Name, personalize.EstimateView(est)))
}
