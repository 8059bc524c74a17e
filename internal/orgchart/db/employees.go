package db

import (
	"context"
	"time"

	dbmodels "github.com/gartstein/orgchart/internal/orgchart/db/models"
	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	row := employeeToRow(employee)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}
	*employee = *employeeFromRow(row)
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var row dbmodels.Employee
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return employeeFromRow(&row), nil
}

func (r *Repository) EmployeeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// UpdateEmployee applies column updates keyed by column name.
func (r *Repository) UpdateEmployee(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ListMembers returns every employee that references a department, ordered
// by last name and then first name.
func (r *Repository) ListMembers(ctx context.Context) ([]models.Member, error) {
	var rows []dbmodels.Employee
	result := r.db.WithContext(ctx).
		Select("id", "employee_id", "first_name", "last_name", "position", "department_id").
		Where("department_id IS NOT NULL").
		Order("last_name, first_name").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	members := make([]models.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, models.Member{
			ID:           row.ID,
			EmployeeID:   row.EmployeeID,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Position:     row.Position,
			DepartmentID: *row.DepartmentID,
		})
	}
	return members, nil
}

func (r *Repository) ListEmployeesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error) {
	var rows []dbmodels.Employee
	result := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("last_name, first_name").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	employees := make([]models.Employee, 0, len(rows))
	for i := range rows {
		employees = append(employees, *employeeFromRow(&rows[i]))
	}
	return employees, nil
}

// AssignEmployees points every listed employee at department and returns the
// number of rows that matched.
func (r *Repository) AssignEmployees(ctx context.Context, ids []uuid.UUID, department *models.Department) (int64, error) {
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("id IN ?", ids).
		Updates(departmentColumns(department))
	return result.RowsAffected, result.Error
}

// MoveEmployee reassigns an employee to department only while it still
// belongs to from. It returns the number of rows that matched.
func (r *Repository) MoveEmployee(ctx context.Context, id, from uuid.UUID, department *models.Department) (int64, error) {
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("id = ? AND department_id = ?", id, from).
		Updates(departmentColumns(department))
	return result.RowsAffected, result.Error
}

// RenameMembers rewrites the denormalized department name of every employee
// assigned to the department.
func (r *Repository) RenameMembers(ctx context.Context, departmentID uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("department_id = ?", departmentID).
		Update("department", name).Error
}

func departmentColumns(department *models.Department) map[string]interface{} {
	return map[string]interface{}{
		"department_id": department.ID,
		"department":    department.Name,
		"updated_at":    time.Now(),
	}
}
