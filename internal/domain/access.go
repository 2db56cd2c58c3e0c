package domain

// Action is an operation gated by the access evaluator.
type Action string

const (
	ActionRead         Action = "read"
	ActionMutate       Action = "mutate"
	ActionDelete       Action = "delete"
	ActionSetStatus    Action = "set status on"
	ActionSetChecklist Action = "update the checklist of"
)

// CanAccess reports whether p may perform action on task.
//
// Admins may do anything. A member may read a task they are assigned to or
// created, and may mutate (field edits, status, checklist) a task they own or
// are assigned to. Delete follows the same rule as mutate.
func CanAccess(p Principal, task *Task, action Action) bool {
	if p.IsAdmin() {
		return true
	}
	switch action {
	case ActionRead, ActionMutate, ActionDelete, ActionSetStatus, ActionSetChecklist:
		return task.Owner == p.ID || task.IsAssignee(p.ID)
	default:
		return false
	}
}
