package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmployeeService writes employee rows, running every write that touches the
// department keys through the AssignmentCoordinator first.
type EmployeeService struct {
	repo        Repository
	coordinator *AssignmentCoordinator
	logger      *zap.Logger
}

func NewEmployeeService(repo Repository, coordinator *AssignmentCoordinator, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:        repo,
		coordinator: coordinator,
		logger:      logger.Named("employee_service"),
	}
}

// Create inserts an employee. The department association is always resolved,
// so the stored row references a department even when none was supplied.
func (s *EmployeeService) Create(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error) {
	employeeID, err := requiredField(in.EmployeeID, "employee_id")
	if err != nil {
		return nil, err
	}
	firstName, err := requiredField(in.FirstName, "first_name")
	if err != nil {
		return nil, err
	}
	lastName, err := requiredField(in.LastName, "last_name")
	if err != nil {
		return nil, err
	}

	if err := s.coordinator.SyncDepartmentAssociation(ctx, in); err != nil {
		return nil, err
	}
	if err := s.coordinator.EnsureDepartmentAssignment(ctx, in); err != nil {
		return nil, err
	}
	departmentID, err := uuid.Parse(*in.DepartmentID.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: selected department not found", e.ErrValidation)
	}

	status := models.DefaultEmploymentStatus
	if v := normalizeOptional(in.EmploymentStatus); v != nil {
		status = *v
	}
	employee := &models.Employee{
		EmployeeID:       employeeID,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            normalizeOptional(in.Email),
		Position:         normalizeOptional(in.Position),
		EmploymentStatus: status,
		DepartmentID:     &departmentID,
		Department:       in.Department.Value,
	}
	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, e.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: employee_id %q already exists", e.ErrDuplicateName, employeeID)
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	s.logger.Info("Employee created",
		zap.String("id", employee.ID.String()),
		zap.String("department_id", departmentID.String()),
	)
	return employee, nil
}

// Update modifies the supplied fields of an employee. The department
// association is only re-resolved when the payload carries a department key.
func (s *EmployeeService) Update(ctx context.Context, id uuid.UUID, in *models.EmployeeInput) (*models.Employee, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	required := []struct {
		value  *string
		column string
	}{
		{in.EmployeeID, "employee_id"},
		{in.FirstName, "first_name"},
		{in.LastName, "last_name"},
	}
	for _, field := range required {
		if field.value == nil {
			continue
		}
		value, err := requiredField(field.value, field.column)
		if err != nil {
			return nil, err
		}
		fields[field.column] = value
	}
	if in.Email != nil {
		fields["email"] = normalizeOptional(in.Email)
	}
	if in.Position != nil {
		fields["position"] = normalizeOptional(in.Position)
	}
	if status := normalizeOptional(in.EmploymentStatus); status != nil {
		fields["employment_status"] = *status
	}

	if in.TouchesDepartment() {
		if err := s.coordinator.SyncDepartmentAssociation(ctx, in); err != nil {
			return nil, err
		}
		if err := s.coordinator.EnsureDepartmentAssignment(ctx, in); err != nil {
			return nil, err
		}
		departmentID, err := uuid.Parse(*in.DepartmentID.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: selected department not found", e.ErrValidation)
		}
		fields["department_id"] = departmentID
		fields["department"] = *in.Department.Value
	}

	if err := s.repo.UpdateEmployee(ctx, id, fields); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s", e.ErrNotFound, id)
		}
		if errors.Is(err, e.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: employee_id already exists", e.ErrDuplicateName)
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	s.logger.Info("Employee updated", zap.String("id", id.String()))
	return s.Get(ctx, id)
}

// Get retrieves an employee by ID, returning ErrNotFound if absent.
func (s *EmployeeService) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "employee", id)
	}
	return employee, nil
}

func requiredField(value *string, name string) (string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "", fmt.Errorf("%w: %s is required", e.ErrValidation, name)
	}
	return strings.TrimSpace(*value), nil
}
