package controller

import (
	"context"
	"sync"
	"testing"

	"github.com/gartstein/orgchart/internal/orgchart/db"
	"github.com/gartstein/orgchart/internal/orgchart/events"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/gartstein/orgchart/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	createDepartment     func(context.Context, *models.Department) error
	getDepartment        func(context.Context, uuid.UUID) (*models.Department, error)
	findDepartmentByName func(context.Context, string) (*models.Department, error)
	listDepartments      func(context.Context) ([]models.Department, error)
	createEmployee       func(context.Context, *models.Employee) error
	getEmployee          func(context.Context, uuid.UUID) (*models.Employee, error)
	updateEmployee       func(context.Context, uuid.UUID, map[string]interface{}) error
	withTransaction      func(context.Context, func(*db.Repository) error) error
}

func (m *MockRepository) CreateDepartment(ctx context.Context, d *models.Department) error {
	return m.createDepartment(ctx, d)
}

func (m *MockRepository) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	return m.getDepartment(ctx, id)
}

func (m *MockRepository) FindDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	return m.findDepartmentByName(ctx, name)
}

func (m *MockRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return m.listDepartments(ctx)
}

func (m *MockRepository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	return m.createEmployee(ctx, emp)
}

func (m *MockRepository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return m.getEmployee(ctx, id)
}

func (m *MockRepository) UpdateEmployee(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return m.updateEmployee(ctx, id, fields)
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(*db.Repository) error) error {
	return m.withTransaction(ctx, fn)
}

type producedEvent struct {
	Type        events.EventType
	Department  *models.Department
	EmployeeIDs []uuid.UUID
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu     sync.Mutex
	events []producedEvent
}

// Produce records the event.
func (m *MockProducer) Produce(eventType events.EventType, department *models.Department, employeeIDs ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, producedEvent{eventType, department, employeeIDs})
}

func (m *MockProducer) count(eventType events.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, event := range m.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func (m *MockProducer) last() producedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

type fixture struct {
	repo        *db.Repository
	producer    *MockProducer
	departments *DepartmentService
	coordinator *AssignmentCoordinator
	employees   *EmployeeService
}

// newFixture wires the services against an in-memory SQLite database.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := db.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	logger := zaptest.NewLogger(t)
	producer := &MockProducer{}
	departments := NewDepartmentService(repo, producer, logger)
	coordinator := NewAssignmentCoordinator(repo, departments, producer, logger)
	return &fixture{
		repo:        repo,
		producer:    producer,
		departments: departments,
		coordinator: coordinator,
		employees:   NewEmployeeService(repo, coordinator, logger),
	}
}

func (f *fixture) department(t *testing.T, name string, parent *models.Department) *models.Department {
	t.Helper()
	input := &models.DepartmentInput{Name: name}
	if parent != nil {
		input.ParentID = &parent.ID
	}
	department, err := f.departments.Create(context.Background(), input)
	require.NoError(t, err)
	return department
}

func (f *fixture) employee(t *testing.T, first, last string, department *models.Department) *models.Employee {
	t.Helper()
	in := &models.EmployeeInput{
		EmployeeID: utils.Ptr(uuid.NewString()[:8]),
		FirstName:  &first,
		LastName:   &last,
	}
	if department != nil {
		in.DepartmentID = models.Some(department.ID.String())
	}
	employee, err := f.employees.Create(context.Background(), in)
	require.NoError(t, err)
	return employee
}
