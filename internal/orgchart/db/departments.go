package db

import (
	"context"
	"strings"

	dbmodels "github.com/gartstein/orgchart/internal/orgchart/db/models"
	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
)

const ancestorsQuery = `
WITH RECURSIVE ancestors(id, parent_id) AS (
	SELECT id, parent_id FROM departments WHERE id = ?
	UNION
	SELECT d.id, d.parent_id FROM departments d JOIN ancestors a ON d.id = a.parent_id
)
SELECT id FROM ancestors`

type idRow struct {
	ID uuid.UUID
}

type departmentCountRow struct {
	dbmodels.Department `gorm:"embedded"`
	MemberCount         int64
}

func (r *Repository) CreateDepartment(ctx context.Context, department *models.Department) error {
	row := departmentToRow(department)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}
	*department = *departmentFromRow(row)
	return nil
}

func (r *Repository) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var row dbmodels.Department
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return departmentFromRow(&row), nil
}

// FindDepartmentByName looks a department up by name, ignoring case and
// surrounding whitespace.
func (r *Repository) FindDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	var row dbmodels.Department
	result := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&row)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return departmentFromRow(&row), nil
}

// UpdateDepartment applies column updates keyed by column name. A nil value
// clears the column.
func (r *Repository) UpdateDepartment(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&dbmodels.Department{}).
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

func (r *Repository) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&dbmodels.Department{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ListDepartments returns every department ordered by name, each carrying the
// number of employees assigned to it directly.
func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var rows []departmentCountRow
	result := r.db.WithContext(ctx).
		Table("departments AS d").
		Select("d.*, COUNT(e.id) AS member_count").
		Joins("LEFT JOIN employees e ON e.department_id = d.id").
		Group("d.id").
		Order("d.name").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	departments := make([]models.Department, 0, len(rows))
	for i := range rows {
		department := departmentFromRow(&rows[i].Department)
		count := rows[i].MemberCount
		department.MemberCount = &count
		departments = append(departments, *department)
	}
	return departments, nil
}

// AncestorIDs returns id followed by every department reachable by walking
// parent links upward from it. The walk terminates on cyclic data.
func (r *Repository) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var rows []idRow
	if err := r.db.WithContext(ctx).Raw(ancestorsQuery, id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *Repository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Department{}).
		Where("parent_id = ?", id).
		Count(&count)
	return count, result.Error
}

func (r *Repository) CountMembers(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("department_id = ?", id).
		Count(&count)
	return count, result.Error
}
