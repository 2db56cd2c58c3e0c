package domain_test

import (
	"errors"
	"testing"

	"github.com/Codesplay12/Taskify/internal/domain"
)

func TestApplyChecklist_HalfComplete(t *testing.T) {
	task := &domain.Task{Status: domain.StatusPending}
	items := []domain.ChecklistItem{
		{Text: "a", Completed: true},
		{Text: "b", Completed: false},
	}
	if err := domain.ApplyChecklist(task, items); err != nil {
		t.Fatalf("ApplyChecklist: %v", err)
	}
	if task.Progress != 50 {
		t.Errorf("Progress = %d, want 50", task.Progress)
	}
	if task.Status != domain.StatusInProgress {
		t.Errorf("Status = %q, want %q", task.Status, domain.StatusInProgress)
	}
}

func TestApplyChecklist_Empty(t *testing.T) {
	task := &domain.Task{
		Status:   domain.StatusInProgress,
		Progress: 50,
	}
	if err := domain.ApplyChecklist(task, nil); err != nil {
		t.Fatalf("ApplyChecklist: %v", err)
	}
	if task.Progress != 0 {
		t.Errorf("Progress = %d, want 0", task.Progress)
	}
	if task.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", task.Status, domain.StatusPending)
	}
	if len(task.TodoChecklist) != 0 {
		t.Errorf("TodoChecklist should be cleared, got %d items", len(task.TodoChecklist))
	}
}

func TestApplyChecklist_AllComplete(t *testing.T) {
	task := &domain.Task{Status: domain.StatusPending}
	items := []domain.ChecklistItem{
		{Text: "a", Completed: true},
		{Text: "b", Completed: true},
		{Text: "c", Completed: true},
	}
	if err := domain.ApplyChecklist(task, items); err != nil {
		t.Fatalf("ApplyChecklist: %v", err)
	}
	if task.Progress != 100 {
		t.Errorf("Progress = %d, want 100", task.Progress)
	}
	if task.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", task.Status, domain.StatusCompleted)
	}
}

func TestApplyChecklist_BlankTextRejected(t *testing.T) {
	for _, text := range []string{"", "   ", "\t"} {
		task := &domain.Task{
			TodoChecklist: []domain.ChecklistItem{{Text: "keep", Completed: true}},
			Progress:      100,
			Status:        domain.StatusCompleted,
		}
		err := domain.ApplyChecklist(task, []domain.ChecklistItem{{Text: text}})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("text %q: got %v, want ValidationError", text, err)
		}
		// Rejected input must not have touched the task.
		if len(task.TodoChecklist) != 1 || task.Progress != 100 || task.Status != domain.StatusCompleted {
			t.Errorf("text %q: task was modified despite validation failure", text)
		}
	}
}

func TestChecklistProgress_Rounding(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.ChecklistItem
		want  int
	}{
		{"one of three", []domain.ChecklistItem{{Completed: true}, {}, {}}, 33},
		{"two of three", []domain.ChecklistItem{{Completed: true}, {Completed: true}, {}}, 67},
		{"one of six", []domain.ChecklistItem{{Completed: true}, {}, {}, {}, {}, {}}, 17},
		{"none", []domain.ChecklistItem{{}, {}}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ChecklistProgress(tt.items)
			if got != tt.want {
				t.Errorf("ChecklistProgress = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("progress %d outside [0,100]", got)
			}
		})
	}
}

func TestStatusForProgress(t *testing.T) {
	tests := []struct {
		progress int
		want     domain.Status
	}{
		{0, domain.StatusPending},
		{1, domain.StatusInProgress},
		{50, domain.StatusInProgress},
		{99, domain.StatusInProgress},
		{100, domain.StatusCompleted},
	}
	for _, tt := range tests {
		if got := domain.StatusForProgress(tt.progress); got != tt.want {
			t.Errorf("StatusForProgress(%d) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}
