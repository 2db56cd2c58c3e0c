package domain

import (
	"fmt"
	"math"
	"strings"
)

// ApplyChecklist replaces the task's checklist with items and recomputes
// progress and status. The task is modified in memory only; persisting it is
// the caller's job, so a later persistence failure leaves the stored task
// untouched.
func ApplyChecklist(task *Task, items []ChecklistItem) error {
	normalized := make([]ChecklistItem, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return &ValidationError{
				Field:  "todoChecklist",
				Reason: fmt.Sprintf("item %d needs a non-empty text property", i),
			}
		}
		normalized[i] = ChecklistItem{Text: item.Text, Completed: item.Completed}
	}

	task.TodoChecklist = normalized
	task.Progress = ChecklistProgress(normalized)
	task.Status = StatusForProgress(task.Progress)
	return nil
}

// ChecklistProgress computes round(100 * finished / total). An empty
// checklist yields 0, not a division error.
func ChecklistProgress(items []ChecklistItem) int {
	total := len(items)
	if total == 0 {
		total = 1
	}
	finished := 0
	for _, item := range items {
		if item.Completed {
			finished++
		}
	}
	return int(math.Round(100 * float64(finished) / float64(total)))
}

// StatusForProgress derives the status implied by a progress percentage.
func StatusForProgress(progress int) Status {
	switch {
	case progress == 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}
