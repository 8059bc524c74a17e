package db

import (
	dbmodels "github.com/gartstein/orgchart/internal/orgchart/db/models"
	"github.com/gartstein/orgchart/internal/orgchart/models"
)

func departmentToRow(d *models.Department) *dbmodels.Department {
	return &dbmodels.Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ParentID:    d.ParentID,
		HeadID:      d.HeadID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func departmentFromRow(row *dbmodels.Department) *models.Department {
	return &models.Department{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ParentID:    row.ParentID,
		HeadID:      row.HeadID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func employeeToRow(emp *models.Employee) *dbmodels.Employee {
	return &dbmodels.Employee{
		ID:               emp.ID,
		EmployeeID:       emp.EmployeeID,
		FirstName:        emp.FirstName,
		LastName:         emp.LastName,
		Email:            emp.Email,
		Position:         emp.Position,
		EmploymentStatus: emp.EmploymentStatus,
		DepartmentID:     emp.DepartmentID,
		Department:       emp.Department,
		CreatedAt:        emp.CreatedAt,
		UpdatedAt:        emp.UpdatedAt,
	}
}

func employeeFromRow(row *dbmodels.Employee) *models.Employee {
	return &models.Employee{
		ID:               row.ID,
		EmployeeID:       row.EmployeeID,
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		Email:            row.Email,
		Position:         row.Position,
		EmploymentStatus: row.EmploymentStatus,
		DepartmentID:     row.DepartmentID,
		Department:       row.Department,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
