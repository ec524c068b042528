package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing caller input. Callers fix the input
// and resubmit; the engine never retries it.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ConflictError reports that the entity is not in a state that permits the
// transition. Current holds the latest snapshot so the caller can refresh.
type ConflictError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Reason  string `json:"reason"`
	Current any    `json:"current,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Entity, e.ID, e.Reason)
}

type AuthorizationError struct {
	ActorID   string `json:"actor_id"`
	Role      Role   `json:"role"`
	Operation string `json:"operation"`
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s with role %s may not %s", e.ActorID, e.Role, e.Operation)
}

type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InternalError wraps persistence or infrastructure failures. The transition it
// interrupted has no partial effect.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s", e.Op)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(entity, id string, current any, format string, args ...any) error {
	return &ConflictError{Entity: entity, ID: id, Reason: fmt.Sprintf(format, args...), Current: current}
}

func NewAuthorizationError(actor Actor, operation string) error {
	return &AuthorizationError{ActorID: actor.ID, Role: actor.Role, Operation: operation}
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewInternalError(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}
