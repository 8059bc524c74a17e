package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

// stubDepartments returns canned results and records the last input.
type stubDepartments struct {
	err       error
	lastInput *models.DepartmentInput
	lastPatch *models.DepartmentPatch
	deleted   uuid.UUID
	forest    []*models.DepartmentNode
}

func (s *stubDepartments) List(_ context.Context) ([]models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	count := int64(2)
	return []models.Department{{ID: uuid.New(), Name: "Engineering", MemberCount: &count}}, nil
}

func (s *stubDepartments) FetchByID(_ context.Context, id uuid.UUID) (*models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Department{ID: id, Name: "Engineering"}, nil
}

func (s *stubDepartments) Create(_ context.Context, input *models.DepartmentInput) (*models.Department, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Department{ID: uuid.New(), Name: input.Name, ParentID: input.ParentID}, nil
}

func (s *stubDepartments) Update(_ context.Context, id uuid.UUID, patch *models.DepartmentPatch) (*models.Department, error) {
	s.lastPatch = patch
	if s.err != nil {
		return nil, s.err
	}
	return &models.Department{ID: id, Name: "Renamed"}, nil
}

func (s *stubDepartments) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func (s *stubDepartments) BuildTree(_ context.Context) ([]*models.DepartmentNode, error) {
	return s.forest, s.err
}

type stubAssignments struct {
	err           error
	lastDept      uuid.UUID
	lastEmployees []string
}

func (s *stubAssignments) AssignEmployees(_ context.Context, departmentID uuid.UUID, employeeIDs []string) (*models.AssignmentResult, error) {
	s.lastDept = departmentID
	s.lastEmployees = employeeIDs
	if s.err != nil {
		return nil, s.err
	}
	return &models.AssignmentResult{Department: &models.Department{ID: departmentID, Name: "Engineering"}}, nil
}

func (s *stubAssignments) UnassignEmployee(_ context.Context, departmentID, employeeID uuid.UUID) (*models.Employee, error) {
	s.lastDept = departmentID
	if s.err != nil {
		return nil, s.err
	}
	name := models.UnassignedDepartmentName
	return &models.Employee{ID: employeeID, Department: &name}, nil
}

type stubEmployees struct {
	err  error
	last *models.EmployeeInput
}

func (s *stubEmployees) Create(_ context.Context, in *models.EmployeeInput) (*models.Employee, error) {
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Employee{ID: uuid.New(), EmployeeID: *in.EmployeeID}, nil
}

func (s *stubEmployees) Update(_ context.Context, id uuid.UUID, in *models.EmployeeInput) (*models.Employee, error) {
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Employee{ID: id}, nil
}

func (s *stubEmployees) Get(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Employee{ID: id, EmployeeID: "E-1"}, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error {
	return s.err
}

type testHandler struct {
	departments *stubDepartments
	assignments *stubAssignments
	employees   *stubEmployees
	pinger      *stubPinger
	mux         *runtime.ServeMux
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()
	th := &testHandler{
		departments: &stubDepartments{},
		assignments: &stubAssignments{},
		employees:   &stubEmployees{},
		pinger:      &stubPinger{},
		mux:         runtime.NewServeMux(),
	}
	h := NewHTTPHandler(th.departments, th.assignments, th.employees, th.pinger,
		NewMetrics(prometheus.NewRegistry()), zaptest.NewLogger(t))
	if err := h.Register(th.mux); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return th
}

func (th *testHandler) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	th.mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTPHandler_CreateDepartment(t *testing.T) {
	th := newTestHandler(t)
	parent := uuid.New()

	rec := th.do(http.MethodPost, "/v1/departments", fmt.Sprintf(`{"name":"Platform","parent_id":%q}`, parent))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if th.departments.lastInput.Name != "Platform" {
		t.Errorf("expected name Platform, got %q", th.departments.lastInput.Name)
	}
	if th.departments.lastInput.ParentID == nil || *th.departments.lastInput.ParentID != parent {
		t.Errorf("expected parent %s, got %v", parent, th.departments.lastInput.ParentID)
	}

	var got models.Department
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Name != "Platform" {
		t.Errorf("expected Platform in response, got %q", got.Name)
	}
}

func TestHTTPHandler_CreateDepartmentRejectsUnknownField(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodPost, "/v1/departments", `{"name":"Platform","budget":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if th.departments.lastInput != nil {
		t.Error("controller must not be called for a malformed body")
	}
}

func TestHTTPHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: name is required", e.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: department", e.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: has children", e.ErrConflict), http.StatusConflict},
		{"duplicate", fmt.Errorf("%w: Engineering", e.ErrDuplicateName), http.StatusConflict},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler(t)
			th.departments.err = tt.err

			rec := th.do(http.MethodGet, "/v1/departments/"+uuid.NewString(), "")
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection reset") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestHTTPHandler_InvalidID(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodGet, "/v1/departments/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHTTPHandler_UpdateDepartmentClearsParent(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodPatch, "/v1/departments/"+uuid.NewString(), `{"parent_id":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	patch := th.departments.lastPatch
	if !patch.ParentID.Set || patch.ParentID.Value != nil {
		t.Errorf("expected parent_id set to null, got %+v", patch.ParentID)
	}
	if patch.Description.Set || patch.HeadID.Set || patch.Name != nil {
		t.Error("absent keys must stay unset")
	}
}

func TestHTTPHandler_DeleteDepartment(t *testing.T) {
	th := newTestHandler(t)
	id := uuid.New()

	rec := th.do(http.MethodDelete, "/v1/departments/"+id.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if th.departments.deleted != id {
		t.Errorf("expected delete of %s, got %s", id, th.departments.deleted)
	}
}

func TestHTTPHandler_ListDepartments(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodGet, "/v1/departments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []models.Department
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(got) != 1 || got[0].MemberCount == nil || *got[0].MemberCount != 2 {
		t.Errorf("unexpected listing: %+v", got)
	}
}

func TestHTTPHandler_OrgChart(t *testing.T) {
	th := newTestHandler(t)
	root := &models.DepartmentNode{Department: models.Department{ID: uuid.New(), Name: "Company"}}
	root.Children = []*models.DepartmentNode{{Department: models.Department{ID: uuid.New(), Name: "Engineering"}, Depth: 1}}
	th.departments.forest = []*models.DepartmentNode{root}

	rec := th.do(http.MethodGet, "/v1/org-chart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []models.DepartmentNode
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(got) != 1 || len(got[0].Children) != 1 || got[0].Children[0].Name != "Engineering" {
		t.Errorf("unexpected tree: %s", rec.Body.String())
	}
}

func TestHTTPHandler_AssignEmployees(t *testing.T) {
	th := newTestHandler(t)
	dept := uuid.New()
	emp := uuid.NewString()

	rec := th.do(http.MethodPost, "/v1/departments/"+dept.String()+"/employees", fmt.Sprintf(`{"employee_ids":[%q]}`, emp))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if th.assignments.lastDept != dept {
		t.Errorf("expected department %s, got %s", dept, th.assignments.lastDept)
	}
	if len(th.assignments.lastEmployees) != 1 || th.assignments.lastEmployees[0] != emp {
		t.Errorf("unexpected employee ids %v", th.assignments.lastEmployees)
	}
}

func TestHTTPHandler_UnassignEmployee(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodDelete, "/v1/departments/"+uuid.NewString()+"/employees/"+uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Employee
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Department == nil || *got.Department != models.UnassignedDepartmentName {
		t.Errorf("expected employee in %q, got %v", models.UnassignedDepartmentName, got.Department)
	}

	rec = th.do(http.MethodDelete, "/v1/departments/"+uuid.NewString()+"/employees/bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad employee id, got %d", rec.Code)
	}
}

func TestHTTPHandler_Employees(t *testing.T) {
	th := newTestHandler(t)

	rec := th.do(http.MethodPost, "/v1/employees", `{"employee_id":"E-7","first_name":"Ada","last_name":"Lovelace","department":"Research"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !th.employees.last.Department.Set || th.employees.last.DepartmentID.Set {
		t.Errorf("expected only department key to be set, got %+v", th.employees.last)
	}

	rec = th.do(http.MethodPatch, "/v1/employees/"+uuid.NewString(), `{"position":"Lead"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if th.employees.last.TouchesDepartment() {
		t.Error("patch without department keys must not touch the department")
	}

	th.employees.err = fmt.Errorf("%w: employee", e.ErrNotFound)
	rec = th.do(http.MethodGet, "/v1/employees/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHTTPHandler_Health(t *testing.T) {
	th := newTestHandler(t)

	if rec := th.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	th.pinger.err = fmt.Errorf("database down")
	if rec := th.do(http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHTTPHandler_Metrics(t *testing.T) {
	th := newTestHandler(t)
	th.do(http.MethodGet, "/v1/departments", "")
	th.departments.err = fmt.Errorf("%w: missing", e.ErrNotFound)
	th.do(http.MethodGet, "/v1/departments/"+uuid.NewString(), "")

	rec := th.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`http_requests_total{method="GET",route="/v1/departments",status="200"} 1`,
		`http_requests_total{method="GET",route="/v1/departments/{id}",status="404"} 1`,
		"http_request_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
