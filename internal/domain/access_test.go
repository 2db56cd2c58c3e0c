package domain_test

import (
	"testing"

	"github.com/Codesplay12/Taskify/internal/domain"
)

var allActions = []domain.Action{
	domain.ActionRead,
	domain.ActionMutate,
	domain.ActionDelete,
	domain.ActionSetStatus,
	domain.ActionSetChecklist,
}

func TestCanAccess_AdminSeesEverything(t *testing.T) {
	admin := domain.Principal{ID: "a1", Role: domain.RoleAdmin}
	task := &domain.Task{Owner: "u1", AssignedTo: []string{"u2"}}

	for _, action := range allActions {
		if !domain.CanAccess(admin, task, action) {
			t.Errorf("admin denied %q on a task they neither own nor are assigned", action)
		}
	}
}

func TestCanAccess_OwnerNotAssigned(t *testing.T) {
	// u1 created the task but assigned it to someone else.
	owner := domain.Principal{ID: "u1", Role: domain.RoleMember}
	task := &domain.Task{Owner: "u1", AssignedTo: []string{"u2"}}

	for _, action := range allActions {
		if !domain.CanAccess(owner, task, action) {
			t.Errorf("owner denied %q", action)
		}
	}
}

func TestCanAccess_Assignee(t *testing.T) {
	assignee := domain.Principal{ID: "u2", Role: domain.RoleMember}
	task := &domain.Task{Owner: "u1", AssignedTo: []string{"u2", "u4"}}

	for _, action := range allActions {
		if !domain.CanAccess(assignee, task, action) {
			t.Errorf("assignee denied %q", action)
		}
	}
}

func TestCanAccess_StrangerDeniedEverything(t *testing.T) {
	stranger := domain.Principal{ID: "u3", Role: domain.RoleMember}
	task := &domain.Task{Owner: "u1", AssignedTo: []string{"u2"}}

	for _, action := range allActions {
		if domain.CanAccess(stranger, task, action) {
			t.Errorf("member who is neither owner nor assignee allowed %q", action)
		}
	}
}

func TestCanAccess_ForgedRoleStringIsNotAdmin(t *testing.T) {
	// Role values other than "admin" carry no elevated rights.
	forged := domain.Principal{ID: "u3", Role: domain.Role("Admin")}
	task := &domain.Task{Owner: "u1", AssignedTo: []string{"u2"}}

	if domain.CanAccess(forged, task, domain.ActionMutate) {
		t.Error("non-canonical role string granted mutate")
	}
}

func TestCanAccess_UnknownActionDenied(t *testing.T) {
	member := domain.Principal{ID: "u2", Role: domain.RoleMember}
	task := &domain.Task{Owner: "u2"}

	if domain.CanAccess(member, task, domain.Action("export")) {
		t.Error("unknown action should be denied for members")
	}
}
