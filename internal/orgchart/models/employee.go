package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEmploymentStatus is applied to employees created without a status.
const DefaultEmploymentStatus = "active"

// Employee is the subset of an employee record that the org chart reads and
// writes. Department mirrors the name of the department referenced by
// DepartmentID and is rewritten whenever the reference changes.
type Employee struct {
	ID               uuid.UUID  `json:"id"`
	EmployeeID       string     `json:"employee_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            *string    `json:"email"`
	Position         *string    `json:"position"`
	EmploymentStatus string     `json:"employment_status"`
	DepartmentID     *uuid.UUID `json:"department_id"`
	Department       *string    `json:"department"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EmployeeInput is a create or update payload. Nil scalar fields are left
// untouched on update. DepartmentID and Department keep track of whether the
// caller sent the key at all, which decides if the department association
// is resolved for this write.
type EmployeeInput struct {
	EmployeeID       *string          `json:"employee_id"`
	FirstName        *string          `json:"first_name"`
	LastName         *string          `json:"last_name"`
	Email            *string          `json:"email"`
	Position         *string          `json:"position"`
	EmploymentStatus *string          `json:"employment_status"`
	DepartmentID     Optional[string] `json:"department_id"`
	Department       Optional[string] `json:"department"`
}

// TouchesDepartment reports whether the payload carries either department key.
func (in *EmployeeInput) TouchesDepartment() bool {
	return in.DepartmentID.Set || in.Department.Set
}
