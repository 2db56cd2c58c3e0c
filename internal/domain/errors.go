package domain

import "fmt"

// ValidationError is returned for malformed input: an invalid status or
// priority value, a blank checklist item, a missing required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TaskNotFoundError is returned when a task ID does not exist.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// UserNotFoundError is returned when a user ID or email does not exist.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ForbiddenError is returned when the access evaluator denies an action.
// It deliberately carries no detail about the task it guarded.
type ForbiddenError struct {
	Action Action
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s this task", e.Action)
}

// EmailTakenError is returned when registration hits an existing email.
type EmailTakenError struct {
	Email string
}

func (e *EmailTakenError) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// InvalidCredentialError is returned for a bad login or an unverifiable,
// expired, or revoked token.
type InvalidCredentialError struct {
	Reason string
}

func (e *InvalidCredentialError) Error() string {
	return "invalid credential: " + e.Reason
}

// StoreUnavailableError is returned when a store call exceeds its deadline or
// the backend is unreachable. Reads may be retried once; writes never are.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
