// Package models defines the domain types of the org chart: departments,
// their derived tree nodes, and the employee fields the hierarchy cares about.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnassignedDepartmentName is the name of the sentinel department that
// receives employees without an explicit assignment. It is matched
// case-insensitively.
const UnassignedDepartmentName = "Unassigned"

// IsUnassigned reports whether name refers to the sentinel department.
func IsUnassigned(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), UnassignedDepartmentName)
}

// Department defines the domain model for an organizational unit.
type Department struct {
	// ID is the unique identifier for the department.
	ID uuid.UUID `json:"id"`
	// Name is unique among departments, ignoring case.
	Name string `json:"name"`
	// Description is optional free text.
	Description *string `json:"description"`
	// ParentID references the parent department; nil marks a root.
	ParentID *uuid.UUID `json:"parent_id"`
	// HeadID references the employee heading the department.
	HeadID *uuid.UUID `json:"head_id"`
	// MemberCount is the number of employees assigned directly to the
	// department. It is only populated by listing and tree reads.
	MemberCount *int64 `json:"member_count,omitempty"`
	// CreatedAt records the timestamp when the department was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt records the timestamp of the last mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// DepartmentInput carries the fields accepted when creating a department.
type DepartmentInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	HeadID      *uuid.UUID `json:"head_id"`
}

// DepartmentPatch represents a partial update. Name is ignored when nil;
// the Optional fields distinguish "leave as is" from "clear".
type DepartmentPatch struct {
	Name        *string             `json:"name"`
	Description Optional[string]    `json:"description"`
	ParentID    Optional[uuid.UUID] `json:"parent_id"`
	HeadID      Optional[uuid.UUID] `json:"head_id"`
}

// Empty reports whether the patch sets no field at all.
func (p *DepartmentPatch) Empty() bool {
	return p.Name == nil && !p.Description.Set && !p.ParentID.Set && !p.HeadID.Set
}

// Member is the minimal employee projection listed under a department node.
type Member struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID string    `json:"employee_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Position   *string   `json:"position"`
	// DepartmentID groups the member under its node and is not rendered.
	DepartmentID uuid.UUID `json:"-"`
}

// DepartmentNode is a request-scoped tree projection of a Department.
type DepartmentNode struct {
	Department
	Children  []*DepartmentNode `json:"children"`
	Employees []Member          `json:"employees"`
	Depth     int               `json:"depth"`
	Path      []uuid.UUID       `json:"path"`
	PathNames []string          `json:"path_names"`
}

// AssignmentResult is returned by a bulk assignment: the target department
// and every employee row that was moved into it.
type AssignmentResult struct {
	Department *Department `json:"department"`
	Employees  []Employee  `json:"employees"`
}
