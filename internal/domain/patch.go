package domain

import "time"

// TaskPatch carries a merge-style update. A nil field means "leave the stored
// value unchanged"; a non-nil pointer overwrites it, so an explicitly empty
// slice clears assignees, checklist or attachments rather than being dropped.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *Priority
	DueDate       *time.Time
	AssignedTo    *[]string
	TodoChecklist *[]ChecklistItem
	Attachments   *[]string
}
