package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/salon-scheduler/internal/application"
)

type employeeService interface {
	ListEmployees(ctx context.Context, principal application.Principal) ([]application.Employee, error)
	CreateEmployee(ctx context.Context, principal application.Principal, input application.EmployeeInput) (application.Employee, error)
	UpdateEmployee(ctx context.Context, principal application.Principal, id string, patch application.EmployeePatch) (application.Employee, error)
	DeleteEmployee(ctx context.Context, principal application.Principal, id string) error
}

type EmployeeHandler struct {
	service   employeeService
	responder responder
	logger    *slog.Logger
}

func NewEmployeeHandler(service employeeService, logger *slog.Logger) *EmployeeHandler {
	base := orDefault(logger)
	return &EmployeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmployeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return scopedLogger(ctx, h.logger, "EmployeeHandler", operation, attrs...)
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	employees, err := h.service.ListEmployees(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]employeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeDTO(e))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode employee request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := application.EmployeeInput{DisplayOrder: req.DisplayOrder}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Color != nil {
		input.Color = *req.Color
	}
	employee, err := h.service.CreateEmployee(r.Context(), principal, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEmployeeDTO(employee))
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := mux.Vars(r)["id"]
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "employee_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode employee update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	employee, err := h.service.UpdateEmployee(r.Context(), principal, id, application.EmployeePatch{
		Name:         req.Name,
		Color:        req.Color,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmployeeDTO(employee))
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEmployee(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

type employeeRequest struct {
	Name         *string `json:"name"`
	Color        *string `json:"color"`
	DisplayOrder *int    `json:"displayOrder"`
}

type successResponse struct {
	Success bool `json:"success"`
}
