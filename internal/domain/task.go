package domain

import "time"

// Status represents the lifecycle states a task can be in.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ChecklistItem is a single trackable sub-task. It has no identity outside
// the task that owns it.
type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is the core domain entity. Progress and Status are derived from the
// checklist whenever it is replaced through the checklist operation; a direct
// status update bypasses that derivation.
type Task struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Priority      Priority        `json:"priority"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Owner         string          `json:"owner"`
	CreatedBy     string          `json:"createdBy"`
	AssignedTo    []string        `json:"assignedTo"`
	TodoChecklist []ChecklistItem `json:"todoChecklist"`
	Progress      int             `json:"progress"`
	Status        Status          `json:"status"`
	Attachments   []string        `json:"attachments,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IsAssignee reports whether userID appears in the task's assignee list.
func (t *Task) IsAssignee(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// CompletedTodoCount returns the number of finished checklist items.
func (t *Task) CompletedTodoCount() int {
	n := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			n++
		}
	}
	return n
}
