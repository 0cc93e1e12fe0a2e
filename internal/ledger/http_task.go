package ledger

import (
	"net/http"

	"project-ledger/internal/httputil"

	"github.com/shopspring/decimal"
)

type createTaskRequest struct {
	ProjectID       *int64           `json:"project_id" validate:"required"`
	TaskName        string           `json:"task_name" validate:"required"`
	DifficultyLevel string           `json:"difficulty_level" validate:"required"`
	EmployeeID      *int64           `json:"employee_id" validate:"required"`
	TimeSpent       *decimal.Decimal `json:"time_spent" validate:"required"`
	Status          string           `json:"status" validate:"required"`
}

type updateTaskRequest struct {
	TaskName  string           `json:"task_name" validate:"required"`
	TimeSpent *decimal.Decimal `json:"time_spent" validate:"required"`
	Status    string           `json:"status" validate:"required"`
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "creating task",
		"name", req.TaskName,
		"project_id", *req.ProjectID,
		"employee_id", *req.EmployeeID,
	)
	id, err := h.service.CreateTask(r.Context(), NewTaskInput{
		ProjectID:       *req.ProjectID,
		Name:            req.TaskName,
		DifficultyLevel: req.DifficultyLevel,
		EmployeeID:      *req.EmployeeID,
		TimeSpent:       *req.TimeSpent,
		Status:          req.Status,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, messageResponse{Message: "Task added successfully!", ID: id})
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "task")
	if !ok {
		return
	}

	var req updateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "updating task", "task_id", id)
	err := h.service.UpdateTask(r.Context(), id, TaskUpdateInput{
		Name:      req.TaskName,
		TimeSpent: *req.TimeSpent,
		Status:    req.Status,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Task updated successfully"})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "task")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting task", "task_id", id)
	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}
