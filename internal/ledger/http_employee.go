package ledger

import (
	"net/http"

	"project-ledger/internal/httputil"

	"github.com/shopspring/decimal"
)

type employeeRequest struct {
	EmployeeName string           `json:"employee_name" validate:"required"`
	HourlyWage   *decimal.Decimal `json:"hourly_wage" validate:"required"`
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all employees")

	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "employee")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching employee by ID", "employee_id", id)
	employee, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, employee)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "creating employee", "name", req.EmployeeName)
	id, err := h.service.CreateEmployee(r.Context(), EmployeeInput{
		Name:       req.EmployeeName,
		HourlyWage: *req.HourlyWage,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, messageResponse{Message: "Employee added successfully!", ID: id})
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "employee")
	if !ok {
		return
	}

	var req employeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.InfoContext(r.Context(), "updating employee", "employee_id", id)
	err := h.service.UpdateEmployee(r.Context(), id, EmployeeInput{
		Name:       req.EmployeeName,
		HourlyWage: *req.HourlyWage,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Employee updated successfully"})
}
