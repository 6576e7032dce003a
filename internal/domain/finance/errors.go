package finance

import (
	"fmt"
	"strings"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
)

// Error codes surfaced by the payables domain
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodePartialFailure = "PARTIAL_FAILURE"
	CodePrecondition   = "PRECONDITION_VIOLATION"
)

// ValidationError reports malformed input. Nothing has been persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DomainCode implements the coded-error contract used by the HTTP layer
func (e *ValidationError) DomainCode() string { return CodeValidation }

// Unwrap lets errors.Is match shared.ErrInvalidInput
func (e *ValidationError) Unwrap() error { return shared.ErrInvalidInput }

// PartialFailureError is returned when a group plan stopped midway.
// Completed steps are durable; Pending steps were never applied.
type PartialFailureError struct {
	Plan      *GroupPlan
	Completed []GroupStep
	Pending   []GroupStep
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("recurrence plan %s stopped after %d of %d steps: %v",
		e.Plan.ID, len(e.Completed), len(e.Completed)+len(e.Pending), e.Cause)
}

// DomainCode implements the coded-error contract used by the HTTP layer
func (e *PartialFailureError) DomainCode() string { return CodePartialFailure }

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// RemainingPlan returns a plan holding only the steps that still have to run
func (e *PartialFailureError) RemainingPlan() *GroupPlan {
	remaining := *e.Plan
	remaining.Steps = append([]GroupStep(nil), e.Pending...)
	return &remaining
}

// PreconditionViolation reports entries that a group operation must not touch
type PreconditionViolation struct {
	Reason   string
	EntryIDs []uuid.UUID
}

func (e *PreconditionViolation) Error() string {
	ids := make([]string, len(e.EntryIDs))
	for i, id := range e.EntryIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(ids, ", "))
}

// DomainCode implements the coded-error contract used by the HTTP layer
func (e *PreconditionViolation) DomainCode() string { return CodePrecondition }
