package ledger

import (
	"net/http"

	"project-ledger/internal/httputil"

	"github.com/shopspring/decimal"
)

type createProjectRequest struct {
	ClientID    *int64           `json:"client_id" validate:"required"`
	ProjectName string           `json:"project_name" validate:"required"`
	Budget      *decimal.Decimal `json:"budget" validate:"required"`
}

type updateProjectRequest struct {
	ProjectName string           `json:"project_name" validate:"required"`
	Budget      *decimal.Decimal `json:"budget" validate:"required"`
	ClientName  string           `json:"client_name" validate:"required"`
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all projects")

	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "project")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching project by ID", "project_id", id)
	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, project)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "creating project", "name", req.ProjectName, "client_id", *req.ClientID)
	id, err := h.service.CreateProject(r.Context(), NewProjectInput{
		ClientID: *req.ClientID,
		Name:     req.ProjectName,
		Budget:   *req.Budget,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, messageResponse{Message: "Project added successfully!", ID: id})
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "project")
	if !ok {
		return
	}

	var req updateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "updating project", "project_id", id, "name", req.ProjectName)
	err := h.service.UpdateProject(r.Context(), id, ProjectUpdateInput{
		Name:       req.ProjectName,
		Budget:     *req.Budget,
		ClientName: req.ClientName,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Project updated successfully"})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "project")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting project", "project_id", id)
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}
