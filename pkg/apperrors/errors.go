// Package apperrors defines the error taxonomy for samarth-engine.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDatasetNotFound means a question's subject could not be mapped to a
	// registered dataset.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrSchemaRoleUnresolved means the schema detector found no column for a
	// role the plan needs.
	ErrSchemaRoleUnresolved = errors.New("schema role unresolved")

	// ErrUnrecognizedIntent means the classifier could not map the question to
	// any known intent. Callers surface a clarification prompt, never a plan.
	ErrUnrecognizedIntent = errors.New("unrecognized intent")

	// ErrPlanning means the intent matched but a required entity or binding
	// was missing, so no executable plan could be built.
	ErrPlanning = errors.New("planning failed")
)

// RoleUnresolvedError reports which role could not be bound for which
// dataset, plus the normalized column names that were attempted, so dataset
// owners can fix their headers.
type RoleUnresolvedError struct {
	Role    string
	Dataset string
	Tried   []string
}

func (e *RoleUnresolvedError) Error() string {
	return fmt.Sprintf("no column for role %q in dataset %q (tried: %s)",
		e.Role, e.Dataset, strings.Join(e.Tried, ", "))
}

// Is makes RoleUnresolvedError match ErrSchemaRoleUnresolved.
func (e *RoleUnresolvedError) Is(target error) bool {
	return target == ErrSchemaRoleUnresolved
}

// DatasetNotFoundError reports the subject or dataset name that failed to
// resolve.
type DatasetNotFoundError struct {
	Subject string
	Dataset string
}

func (e *DatasetNotFoundError) Error() string {
	if e.Dataset != "" {
		return fmt.Sprintf("dataset %q is not registered", e.Dataset)
	}
	return fmt.Sprintf("no dataset covers subject %q", e.Subject)
}

// Is makes DatasetNotFoundError match ErrDatasetNotFound.
func (e *DatasetNotFoundError) Is(target error) bool {
	return target == ErrDatasetNotFound
}
