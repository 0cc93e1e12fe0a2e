package ledger

import (
	"errors"
	"log/slog"
	"net/http"

	"project-ledger/internal/httputil"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: httputil.NewValidator(),
		logger:   logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/projects", h.ListProjects).Methods(http.MethodGet)
	router.HandleFunc("/projects/{id}", h.GetProject).Methods(http.MethodGet)
	router.HandleFunc("/projects/{id}", h.UpdateProject).Methods(http.MethodPut)
	router.HandleFunc("/projects/{id}", h.DeleteProject).Methods(http.MethodDelete)
	router.HandleFunc("/add_project", h.CreateProject).Methods(http.MethodPost)

	router.HandleFunc("/employees", h.ListEmployees).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id}", h.GetEmployee).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id}", h.UpdateEmployee).Methods(http.MethodPut)
	router.HandleFunc("/add_employee", h.CreateEmployee).Methods(http.MethodPost)

	router.HandleFunc("/clients", h.ListClients).Methods(http.MethodGet)
	router.HandleFunc("/clients", h.CreateClient).Methods(http.MethodPost)
	router.HandleFunc("/clients/{id}", h.GetClient).Methods(http.MethodGet)
	router.HandleFunc("/clients/{id}", h.DeleteClient).Methods(http.MethodDelete)

	router.HandleFunc("/add_task", h.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id}", h.UpdateTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{id}", h.DeleteTask).Methods(http.MethodDelete)

	router.HandleFunc("/project_budgets", h.ListBudgets).Methods(http.MethodGet)
	router.HandleFunc("/project_budgets/{id}", h.GetBudget).Methods(http.MethodGet)
}

// decode reads and validates a request body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(w, r, dst); err != nil {
		h.logger.InfoContext(r.Context(), "invalid request body", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.logger.InfoContext(r.Context(), "request validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, httputil.ValidationMessage(err))
		return false
	}
	return true
}

// pathID writes a 400 naming the entity when the id is not a positive integer.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, ErrNotFound):
		h.logger.InfoContext(ctx, "resource not found", "error", err)
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		h.logger.InfoContext(ctx, "invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConstraintViolation):
		h.logger.InfoContext(ctx, "constraint violation", "error", err)
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrIntegrity):
		h.logger.ErrorContext(ctx, "ledger integrity failure", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.ErrorContext(ctx, "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
