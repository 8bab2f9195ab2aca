package api

import (
	"net/http"

	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/service"
)

// BloodTestHandler serves a user's lab records.
type BloodTestHandler struct {
	service service.BloodTestService
}

// NewBloodTestHandler creates a BloodTestHandler.
func NewBloodTestHandler(svc service.BloodTestService) *BloodTestHandler {
	return &BloodTestHandler{service: svc}
}

// Create handles POST /api/blood-tests.
func (h *BloodTestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req BloodTestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bt, err := h.service.Record(r.Context(), userID, service.BloodTestInput{
		Hormone:            domain.CompoundClass(req.Hormone),
		TestTime:           req.TestTime,
		Ether:              req.Ether,
		DoseMg:             req.DoseMg,
		DaysSinceInjection: req.DaysSinceInjection,
		Value:              req.Value,
		Units:              req.Units,
		Notes:              req.Notes,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record blood test")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, bt)
}

// List handles GET /api/blood-tests with an optional ?hormone= filter.
func (h *BloodTestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	hormone := domain.CompoundClass(r.URL.Query().Get("hormone"))
	tests, err := h.service.List(r.Context(), userID, hormone)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list blood tests")
		return
	}
	if tests == nil {
		tests = []*domain.BloodTest{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BloodTestListResponse{BloodTests: tests})
}

// Delete handles DELETE /api/blood-tests/{id}.
func (h *BloodTestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete blood test")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
