package services

import (
	"errors"
	"fmt"

	"github.com/coderbench/exercise-service/internal/validator"
)

// Sentinel errors used with errors.Is across services and handlers.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExecutionFault   = errors.New("execution fault")
	ErrExecutionTimeout = errors.New("execution timeout")
)

// ValidationErrors re-exports the validator shape so callers match on one
// package.
type ValidationErrors = validator.ValidationErrors

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string, value interface{}) error {
	return ValidationErrors{{Field: field, Message: message, Value: value, Rule: "business_logic"}}
}

// PermissionError carries who tried what on which resource, and why it was
// refused. A valid principal with insufficient scope, distinct from
// UnauthorizedError.
type PermissionError struct {
	UserID     string
	ResourceID interface{}
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %v: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// UnauthorizedError means the principal could not be resolved at all.
type UnauthorizedError struct {
	UserID string
}

func NewUnauthorizedError(userID string) *UnauthorizedError {
	return &UnauthorizedError{UserID: userID}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: unknown principal %q", e.UserID)
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NotFoundError identifies the missing resource so callers can surface it
// without probing.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError marks a write refused to preserve an invariant, such as an
// overwrite of a finalized grade.
type ConflictError struct {
	Resource string
	Reason   string
}

func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ExecutionError is an infrastructure fault from the compile/run backend,
// distinct from in-band grading outcomes. Timeout marks a hard wall-clock
// expiry.
type ExecutionError struct {
	Op      string
	Timeout bool
	Err     error
}

func NewExecutionError(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Err: err}
}

func NewExecutionTimeoutError(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Timeout: true, Err: err}
}

func (e *ExecutionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("execution timed out during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("execution fault during %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	if target == ErrExecutionFault {
		return true
	}
	return e.Timeout && target == ErrExecutionTimeout
}
