// Package controller implements the core business logic of the org chart:
// department integrity and hierarchy reads, the employee-department
// assignment invariant, and the employee writes that depend on it.
package controller

import (
	"context"
	"strings"

	"github.com/gartstein/orgchart/internal/orgchart/db"
	"github.com/gartstein/orgchart/internal/orgchart/events"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
)

type EventProducer interface {
	Produce(eventType events.EventType, department *models.Department, employeeIDs ...uuid.UUID)
}

// Repository defines the storage interface used outside of transactions.
// Multi-step writes run inside WithTransaction against the concrete
// repository bound to the transaction.
type Repository interface {
	CreateDepartment(ctx context.Context, department *models.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	FindDepartmentByName(ctx context.Context, name string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// normalizeOptional trims s and maps blank text to nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedValue(o models.Optional[string]) string {
	if o.Value == nil {
		return ""
	}
	return strings.TrimSpace(*o.Value)
}
