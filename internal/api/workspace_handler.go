package api

import (
	"net/http"

	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/workspace"
)

// WorkspaceHandler serves the signed-in user's regimen workspace.
type WorkspaceHandler struct {
	registry *workspace.Registry
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(registry *workspace.Registry) *WorkspaceHandler {
	return &WorkspaceHandler{registry: registry}
}

// Get handles GET /api/workspace.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.registry.Snapshot(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build chart")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// AddRegimen handles POST /api/workspace/regimens.
func (h *WorkspaceHandler) AddRegimen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddRegimenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.registry.Add(r.Context(), userID, workspace.RegimenInput{
		CompoundName:        req.CompoundName,
		DoseMg:              req.DoseMg,
		SimulationDays:      req.SimulationDays,
		RepeatIntervalDays:  req.RepeatIntervalDays,
		UsePersonalizedRate: req.UsePersonalizedRate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add regimen")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, view)
}

// UpdateRegimen handles PATCH /api/workspace/regimens/{id}.
func (h *WorkspaceHandler) UpdateRegimen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateRegimenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.registry.Update(r.Context(), userID, id, workspace.RegimenPatch{
		CompoundName:        req.CompoundName,
		DoseMg:              req.DoseMg,
		SimulationDays:      req.SimulationDays,
		RepeatIntervalDays:  req.RepeatIntervalDays,
		ClearRepeatInterval: req.ClearRepeatInterval,
		UsePersonalizedRate: req.UsePersonalizedRate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update regimen")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// RemoveRegimen handles DELETE /api/workspace/regimens/{id}.
func (h *WorkspaceHandler) RemoveRegimen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.registry.Remove(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to remove regimen")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Levels handles GET /api/workspace/levels/{day}.
func (h *WorkspaceHandler) Levels(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	day, err := pathInt(r, "day")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	levels, err := h.registry.Levels(r.Context(), userID, day)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build chart")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LevelsResponse{Day: day, Levels: levels})
}
