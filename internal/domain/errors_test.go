package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Codesplay12/Taskify/internal/domain"
)

func TestTaskNotFoundError(t *testing.T) {
	err := &domain.TaskNotFoundError{TaskID: "abc-123"}
	if !strings.Contains(err.Error(), "abc-123") {
		t.Errorf("error message should contain task ID, got: %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Field: "status", Reason: "must be one of Pending, In Progress, Completed"}
	msg := err.Error()
	if !strings.Contains(msg, "status") {
		t.Errorf("error message should contain field name, got: %q", msg)
	}
	if !strings.Contains(msg, "Pending") {
		t.Errorf("error message should contain reason, got: %q", msg)
	}
}

func TestForbiddenError_LeaksNothing(t *testing.T) {
	err := &domain.ForbiddenError{Action: domain.ActionSetStatus}
	msg := err.Error()
	// The message names the action, never the task or what would have been permitted.
	if strings.Contains(msg, "owner") || strings.Contains(msg, "assign") {
		t.Errorf("forbidden message leaks authorization detail: %q", msg)
	}
}

func TestStoreUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("dial timeout")
	err := &domain.StoreUnavailableError{Op: "count tasks", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("StoreUnavailableError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "count tasks") {
		t.Errorf("error message should contain the operation, got: %q", err.Error())
	}
}

func TestAllErrorTypesImplementError(t *testing.T) {
	// Compile-time interface checks via assignment to error variables.
	var _ error = &domain.ValidationError{}
	var _ error = &domain.TaskNotFoundError{}
	var _ error = &domain.UserNotFoundError{}
	var _ error = &domain.ForbiddenError{}
	var _ error = &domain.EmailTakenError{}
	var _ error = &domain.InvalidCredentialError{}
	var _ error = &domain.StoreUnavailableError{}
}
