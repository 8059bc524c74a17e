package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gartstein/orgchart/internal/orgchart/db"
	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/events"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentCoordinator keeps every employee attached to exactly one
// department, falling back to the Unassigned department.
type AssignmentCoordinator struct {
	repo        Repository
	departments *DepartmentService
	producer    EventProducer
	logger      *zap.Logger
}

func NewAssignmentCoordinator(repo Repository, departments *DepartmentService, producer EventProducer, logger *zap.Logger) *AssignmentCoordinator {
	return &AssignmentCoordinator{
		repo:        repo,
		departments: departments,
		producer:    producer,
		logger:      logger.Named("assignment_coordinator"),
	}
}

// SyncDepartmentAssociation resolves the department keys of an employee
// payload in place. A department ID wins over a name and must exist; a name
// is resolved or created. When both are blank the ID is cleared and the
// name dropped. Payloads carrying neither key are left alone.
func (c *AssignmentCoordinator) SyncDepartmentAssociation(ctx context.Context, in *models.EmployeeInput) error {
	if !in.TouchesDepartment() {
		return nil
	}

	if rawID := trimmedValue(in.DepartmentID); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("%w: selected department not found", e.ErrValidation)
		}
		department, err := c.departments.FetchByID(ctx, id)
		if err != nil {
			if errors.Is(err, e.ErrNotFound) {
				return fmt.Errorf("%w: selected department not found", e.ErrValidation)
			}
			return err
		}
		setDepartment(in, department)
		return nil
	}

	if name := trimmedValue(in.Department); name != "" {
		department, err := c.departments.EnsureByName(ctx, name, nil)
		if err != nil {
			return err
		}
		setDepartment(in, department)
		return nil
	}

	in.DepartmentID = models.Null[string]()
	in.Department = models.Optional[string]{}
	return nil
}

// EnsureDepartmentAssignment points a payload without a department ID at the
// Unassigned department.
func (c *AssignmentCoordinator) EnsureDepartmentAssignment(ctx context.Context, in *models.EmployeeInput) error {
	if trimmedValue(in.DepartmentID) != "" {
		return nil
	}
	sentinel, err := c.departments.EnsureByName(ctx, models.UnassignedDepartmentName, nil)
	if err != nil {
		return fmt.Errorf("failed to resolve %s department: %w", models.UnassignedDepartmentName, err)
	}
	setDepartment(in, sentinel)
	return nil
}

// AssignEmployees moves the listed employees into a department. IDs are
// trimmed and deduplicated; unknown IDs are ignored as long as at least one
// employee matched.
func (c *AssignmentCoordinator) AssignEmployees(ctx context.Context, departmentID uuid.UUID, employeeIDs []string) (*models.AssignmentResult, error) {
	var result *models.AssignmentResult
	err := c.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		department, err := tx.GetDepartment(ctx, departmentID)
		if err != nil {
			return wrapLookup(err, "department", departmentID)
		}

		requested, ids := normalizeEmployeeIDs(employeeIDs)
		if requested == 0 {
			return fmt.Errorf("%w: at least one employee id is required", e.ErrValidation)
		}

		var matched int64
		if len(ids) > 0 {
			if matched, err = tx.AssignEmployees(ctx, ids, department); err != nil {
				return fmt.Errorf("failed to assign employees: %w", err)
			}
		}
		if matched == 0 {
			return fmt.Errorf("%w: none of the %d employees exist", e.ErrNotFound, requested)
		}

		employees, err := tx.ListEmployeesByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load assigned employees: %w", err)
		}
		result = &models.AssignmentResult{Department: department, Employees: employees}
		return nil
	})
	if err != nil {
		return nil, err
	}

	moved := make([]uuid.UUID, 0, len(result.Employees))
	for _, employee := range result.Employees {
		moved = append(moved, employee.ID)
	}
	c.logger.Info("Employees assigned",
		zap.String("department_id", departmentID.String()),
		zap.Int("count", len(moved)),
	)
	c.producer.Produce(events.EmployeesAssigned, result.Department, moved...)
	return result, nil
}

// UnassignEmployee moves an employee from departmentID to the Unassigned
// department. It fails with ErrNotFound when the employee does not exist or
// no longer belongs to departmentID.
func (c *AssignmentCoordinator) UnassignEmployee(ctx context.Context, departmentID, employeeID uuid.UUID) (*models.Employee, error) {
	sentinel, err := c.departments.EnsureByName(ctx, models.UnassignedDepartmentName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s department: %w", models.UnassignedDepartmentName, err)
	}

	var employee *models.Employee
	err = c.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		matched, err := tx.MoveEmployee(ctx, employeeID, departmentID, sentinel)
		if err != nil {
			return fmt.Errorf("failed to unassign employee: %w", err)
		}
		if matched == 0 {
			return fmt.Errorf("%w: employee %s is not assigned to department %s", e.ErrNotFound, employeeID, departmentID)
		}
		employee, err = tx.GetEmployee(ctx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Employee unassigned",
		zap.String("department_id", departmentID.String()),
		zap.String("employee_id", employeeID.String()),
	)
	c.producer.Produce(events.EmployeeUnassigned, sentinel, employeeID)
	return employee, nil
}

func setDepartment(in *models.EmployeeInput, department *models.Department) {
	in.DepartmentID = models.Some(department.ID.String())
	in.Department = models.Some(department.Name)
}

// normalizeEmployeeIDs returns how many distinct non-blank IDs were supplied
// and the subset that parses as UUIDs.
func normalizeEmployeeIDs(raw []string) (int, []uuid.UUID) {
	seen := make(map[string]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		if id, err := uuid.Parse(value); err == nil {
			ids = append(ids, id)
		}
	}
	return len(seen), ids
}
