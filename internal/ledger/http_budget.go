package ledger

import (
	"net/http"

	"project-ledger/internal/httputil"
)

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching project budget snapshots")

	budgets, err := h.service.ListBudgets(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, budgets)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "project")
	if !ok {
		return
	}

	budget, err := h.service.GetBudget(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, budget)
}
