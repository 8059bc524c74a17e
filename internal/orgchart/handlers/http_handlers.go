package handlers

import (
	"context"
	"net/http"

	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// DepartmentController is the department and org chart logic the HTTP routes
// invoke.
type DepartmentController interface {
	List(ctx context.Context) ([]models.Department, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	Create(ctx context.Context, input *models.DepartmentInput) (*models.Department, error)
	Update(ctx context.Context, id uuid.UUID, patch *models.DepartmentPatch) (*models.Department, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BuildTree(ctx context.Context) ([]*models.DepartmentNode, error)
}

// AssignmentController moves employees between departments.
type AssignmentController interface {
	AssignEmployees(ctx context.Context, departmentID uuid.UUID, employeeIDs []string) (*models.AssignmentResult, error)
	UnassignEmployee(ctx context.Context, departmentID, employeeID uuid.UUID) (*models.Employee, error)
}

// EmployeeController writes employee rows.
type EmployeeController interface {
	Create(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error)
	Update(ctx context.Context, id uuid.UUID, in *models.EmployeeInput) (*models.Employee, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

type assignRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
}

// HTTPHandler serves the JSON API on a grpc-gateway ServeMux.
type HTTPHandler struct {
	departments DepartmentController
	assignments AssignmentController
	employees   EmployeeController
	pinger      Pinger
	metrics     *Metrics
	logger      *zap.Logger
	mux         *runtime.ServeMux
}

func NewHTTPHandler(
	departments DepartmentController,
	assignments AssignmentController,
	employees EmployeeController,
	pinger Pinger,
	metrics *Metrics,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		departments: departments,
		assignments: assignments,
		employees:   employees,
		pinger:      pinger,
		metrics:     metrics,
		logger:      logger.Named("http_handlers"),
	}
}

// Register binds every route to mux.
func (h *HTTPHandler) Register(mux *runtime.ServeMux) error {
	h.mux = mux
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/health", h.healthCheck},
		{http.MethodGet, "/v1/org-chart", h.orgChart},
		{http.MethodGet, "/v1/departments", h.listDepartments},
		{http.MethodPost, "/v1/departments", h.createDepartment},
		{http.MethodGet, "/v1/departments/{id}", h.getDepartment},
		{http.MethodPatch, "/v1/departments/{id}", h.updateDepartment},
		{http.MethodDelete, "/v1/departments/{id}", h.deleteDepartment},
		{http.MethodPost, "/v1/departments/{id}/employees", h.assignEmployees},
		{http.MethodDelete, "/v1/departments/{id}/employees/{employee_id}", h.unassignEmployee},
		{http.MethodPost, "/v1/employees", h.createEmployee},
		{http.MethodGet, "/v1/employees/{id}", h.getEmployee},
		{http.MethodPatch, "/v1/employees/{id}", h.updateEmployee},
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, h.metrics.Instrument(route.method, route.pattern, route.handler)); err != nil {
			return err
		}
	}

	metricsHandler := h.metrics.Handler()
	return mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		metricsHandler.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) orgChart(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	forest, err := h.departments.BuildTree(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, forest)
}

func (h *HTTPHandler) listDepartments(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	departments, err := h.departments.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, departments)
}

func (h *HTTPHandler) createDepartment(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var input models.DepartmentInput
	if err := decodeBody(w, r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	department, err := h.departments.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, department)
}

func (h *HTTPHandler) getDepartment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	department, err := h.departments.FetchByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, department)
}

func (h *HTTPHandler) updateDepartment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch models.DepartmentPatch
	if err := decodeBody(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	department, err := h.departments.Update(r.Context(), id, &patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, department)
}

func (h *HTTPHandler) deleteDepartment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.departments.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) assignEmployees(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req assignRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.assignments.AssignEmployees(r.Context(), id, req.EmployeeIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) unassignEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	departmentID, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employeeID, err := parseID(params, "employee_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.assignments.UnassignEmployee(r.Context(), departmentID, employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, employee)
}

func (h *HTTPHandler) createEmployee(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in models.EmployeeInput
	if err := decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.employees.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, employee)
}

func (h *HTTPHandler) getEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.employees.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, employee)
}

func (h *HTTPHandler) updateEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := parseID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in models.EmployeeInput
	if err := decodeBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.employees.Update(r.Context(), id, &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, employee)
}
