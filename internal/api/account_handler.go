package api

import (
	"net/http"

	"github.com/phrazzld/pksim-api/internal/platform/logger"
	"github.com/phrazzld/pksim-api/internal/service"
	"github.com/phrazzld/pksim-api/internal/workspace"
)

// AccountHandler serves account deletion.
type AccountHandler struct {
	accounts service.AccountService
	registry *workspace.Registry
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts service.AccountService, registry *workspace.Registry) *AccountHandler {
	return &AccountHandler{accounts: accounts, registry: registry}
}

// Delete handles DELETE /api/account. It removes the user, their blood tests
// and their in-memory workspace.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete account")
		return
	}
	if h.registry != nil {
		h.registry.Drop(userID)
	}

	logger.FromContext(r.Context()).Info("account deleted")
	w.WriteHeader(http.StatusNoContent)
}
