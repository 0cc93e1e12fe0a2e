package ledger

import (
	"net/http"

	"project-ledger/internal/httputil"
)

type createClientRequest struct {
	ClientName string `json:"client_name" validate:"required"`
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all clients")

	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, clients)
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "client")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching client by ID", "client_id", id)
	client, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, client)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "creating client", "name", req.ClientName)
	id, err := h.service.CreateClient(r.Context(), ClientInput{Name: req.ClientName})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, messageResponse{Message: "Client added successfully", ID: id})
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "client")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting client", "client_id", id)
	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Client and their projects deleted successfully"})
}
