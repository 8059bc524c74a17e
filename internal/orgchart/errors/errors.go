// Package errors declares the error kinds surfaced by the org chart core.
// Call sites wrap them with context; callers match them with errors.Is.
package errors

import (
	"fmt"
)

var (
	// ErrValidation marks caller-supplied data that violates a precondition.
	ErrValidation = fmt.Errorf("validation failed")
	// ErrNotFound marks a referenced department or employee that does not exist.
	ErrNotFound = fmt.Errorf("not found")
	// ErrConflict marks a delete against a department that still has dependents.
	ErrConflict = fmt.Errorf("conflict")
	// ErrDuplicateName marks a unique name or business key collision.
	ErrDuplicateName = fmt.Errorf("duplicate name")
)
