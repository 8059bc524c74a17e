package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/orgchart/internal/orgchart/db"
	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/events"
	"github.com/gartstein/orgchart/internal/orgchart/hierarchy"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ensureRetryDelay = 20 * time.Millisecond
	ensureRetries    = 3
)

// DepartmentService owns department rows and the acyclic hierarchy
// invariant, and projects the table into the org chart forest.
type DepartmentService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewDepartmentService constructs a DepartmentService with a repository,
// an event producer, and a logger.
func NewDepartmentService(repo Repository, producer EventProducer, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("department_service"),
	}
}

// EnsureByName returns the department called name, ignoring case, creating
// it when missing. A concurrent insert of the same name surfaces as a
// duplicate key; the lookup is then retried and the winner's row returned.
func (s *DepartmentService) EnsureByName(ctx context.Context, name string, description *string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", e.ErrValidation)
	}

	var department *models.Department
	operation := func() error {
		found, err := s.repo.FindDepartmentByName(ctx, name)
		if err == nil {
			department = found
			return nil
		}
		if !errors.Is(err, e.ErrNotFound) {
			return backoff.Permanent(fmt.Errorf("failed to look up department: %w", err))
		}

		created := &models.Department{Name: name, Description: normalizeOptional(description)}
		if err := s.repo.CreateDepartment(ctx, created); err != nil {
			if errors.Is(err, e.ErrDuplicateName) {
				return err
			}
			return backoff.Permanent(fmt.Errorf("failed to create department: %w", err))
		}
		department = created
		s.logger.Info("Department created on demand", zap.String("department_id", created.ID.String()), zap.String("name", name))
		s.producer.Produce(events.DepartmentCreated, created)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(ensureRetryDelay), ensureRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return department, nil
}

// FetchByID retrieves a department by ID, returning ErrNotFound if absent.
func (s *DepartmentService) FetchByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	department, err := s.repo.GetDepartment(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "department", id)
	}
	return department, nil
}

// List returns every department ordered by name with direct member counts.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

// Create validates input and inserts a department. The parent must exist,
// the head must reference an existing employee, and the name must not be
// taken by another department in any letter case.
func (s *DepartmentService) Create(ctx context.Context, input *models.DepartmentInput) (*models.Department, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", e.ErrValidation)
	}

	department := &models.Department{
		Name:        name,
		Description: normalizeOptional(input.Description),
		ParentID:    input.ParentID,
		HeadID:      input.HeadID,
	}
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := ensureNameAvailable(ctx, tx, name, uuid.Nil); err != nil {
			return err
		}
		if input.ParentID != nil {
			if _, err := tx.GetDepartment(ctx, *input.ParentID); err != nil {
				return wrapLookup(err, "parent department", *input.ParentID)
			}
		}
		if input.HeadID != nil {
			if err := ensureHeadExists(ctx, tx, *input.HeadID); err != nil {
				return err
			}
		}
		if err := tx.CreateDepartment(ctx, department); err != nil {
			return fmt.Errorf("failed to create department: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Department created", zap.String("department_id", department.ID.String()))
	s.producer.Produce(events.DepartmentCreated, department)
	return department, nil
}

// Update applies a partial patch. Reparenting is refused when it would make
// the department its own ancestor. A rename is mirrored onto the stored
// department name of its employees.
func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, patch *models.DepartmentPatch) (*models.Department, error) {
	var updated *models.Department
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		current, err := tx.GetDepartment(ctx, id)
		if err != nil {
			return wrapLookup(err, "department", id)
		}

		fields := map[string]interface{}{"updated_at": time.Now()}
		renamed := false

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("%w: department name is required", e.ErrValidation)
			}
			if models.IsUnassigned(current.Name) && !models.IsUnassigned(name) {
				return fmt.Errorf("%w: the %s department cannot be renamed", e.ErrValidation, models.UnassignedDepartmentName)
			}
			if err := ensureNameAvailable(ctx, tx, name, id); err != nil {
				return err
			}
			fields["name"] = name
			renamed = name != current.Name
		}

		if patch.Description.Set {
			fields["description"] = normalizeOptional(patch.Description.Value)
		}

		if patch.ParentID.Set {
			if patch.ParentID.Value == nil {
				fields["parent_id"] = nil
			} else {
				parentID := *patch.ParentID.Value
				if err := checkReparent(ctx, tx, id, parentID); err != nil {
					return err
				}
				fields["parent_id"] = parentID
			}
		}

		if patch.HeadID.Set {
			if patch.HeadID.Value == nil {
				fields["head_id"] = nil
			} else {
				if err := ensureHeadExists(ctx, tx, *patch.HeadID.Value); err != nil {
					return err
				}
				fields["head_id"] = *patch.HeadID.Value
			}
		}

		if err := tx.UpdateDepartment(ctx, id, fields); err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}
		if renamed {
			if err := tx.RenameMembers(ctx, id, fields["name"].(string)); err != nil {
				return fmt.Errorf("failed to rename department members: %w", err)
			}
		}

		updated, err = tx.GetDepartment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Department updated", zap.String("department_id", id.String()))
	s.producer.Produce(events.DepartmentUpdated, updated)
	return updated, nil
}

// Delete removes a department that has neither child departments nor
// members. The Unassigned department is never removed.
func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted *models.Department
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		current, err := tx.GetDepartment(ctx, id)
		if err != nil {
			return wrapLookup(err, "department", id)
		}
		if models.IsUnassigned(current.Name) {
			return fmt.Errorf("%w: the %s department cannot be deleted", e.ErrValidation, models.UnassignedDepartmentName)
		}

		children, err := tx.CountChildren(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count child departments: %w", err)
		}
		if children > 0 {
			return fmt.Errorf("%w: department has %d child departments", e.ErrConflict, children)
		}

		members, err := tx.CountMembers(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count department members: %w", err)
		}
		if members > 0 {
			return fmt.Errorf("%w: department has %d assigned employees", e.ErrConflict, members)
		}

		if err := tx.DeleteDepartment(ctx, id); err != nil {
			return wrapLookup(err, "department", id)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Department deleted", zap.String("department_id", id.String()))
	s.producer.Produce(events.DepartmentDeleted, deleted)
	return nil
}

// BuildTree loads departments and their members in one transaction and
// returns the ordered forest of root nodes.
func (s *DepartmentService) BuildTree(ctx context.Context) ([]*models.DepartmentNode, error) {
	var (
		departments []models.Department
		members     []models.Member
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		if departments, err = tx.ListDepartments(ctx); err != nil {
			return fmt.Errorf("failed to load departments: %w", err)
		}
		if members, err = tx.ListMembers(ctx); err != nil {
			return fmt.Errorf("failed to load department members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(departments, members), nil
}

// checkReparent fails when parentID is the department itself, does not
// exist, or has the department among its ancestors.
func checkReparent(ctx context.Context, tx *db.Repository, id, parentID uuid.UUID) error {
	if parentID == id {
		return fmt.Errorf("%w: a department cannot be its own parent", e.ErrValidation)
	}
	if _, err := tx.GetDepartment(ctx, parentID); err != nil {
		return wrapLookup(err, "parent department", parentID)
	}
	ancestors, err := tx.AncestorIDs(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to load department ancestors: %w", err)
	}
	if slices.Contains(ancestors, id) {
		return fmt.Errorf("%w: moving the department under %s would create a cycle", e.ErrValidation, parentID)
	}
	return nil
}

func ensureNameAvailable(ctx context.Context, tx *db.Repository, name string, self uuid.UUID) error {
	existing, err := tx.FindDepartmentByName(ctx, name)
	switch {
	case errors.Is(err, e.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up department: %w", err)
	case existing.ID == self:
		return nil
	default:
		return fmt.Errorf("%w: department %q already exists", e.ErrDuplicateName, existing.Name)
	}
}

func ensureHeadExists(ctx context.Context, tx *db.Repository, headID uuid.UUID) error {
	exists, err := tx.EmployeeExists(ctx, headID)
	if err != nil {
		return fmt.Errorf("failed to look up head employee: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: head employee %s not found", e.ErrValidation, headID)
	}
	return nil
}

// wrapLookup adds the missing entity to ErrNotFound and wraps anything else
// as a storage failure.
func wrapLookup(err error, what string, id uuid.UUID) error {
	if errors.Is(err, e.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", e.ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
