package server

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
)

// ReportsHandler serves the admin CSV exports.
type ReportsHandler struct {
	users  postgres.UserRepository
	repo   postgres.TaskRepository
	logger *slog.Logger
}

// NewReportsHandler creates a ReportsHandler.
func NewReportsHandler(users postgres.UserRepository, repo postgres.TaskRepository, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{users: users, repo: repo, logger: logger}
}

// ExportTasks handles GET /api/reports/export/tasks — every task as one CSV
// row, with assignees resolved to display names.
func (h *ReportsHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	found, err := h.repo.Find(r.Context(), postgres.TaskFilter{SortByCreatedDesc: true})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks_report.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Task ID", "Title", "Description", "Priority", "Status", "Due Date", "Assigned To", "Progress"})
	for _, task := range found {
		dueDate := ""
		if task.DueDate != nil {
			dueDate = task.DueDate.Format(time.RFC3339)
		}
		cw.Write([]string{
			task.ID,
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			dueDate,
			strings.Join(h.assigneeNames(r, task.AssignedTo), ", "),
			strconv.Itoa(task.Progress),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write tasks report", slog.String("error", err.Error()))
	}
}

// ExportUsers handles GET /api/reports/export/users — every member with their
// per-status task counts.
func (h *ReportsHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	members, err := h.users.ListByRole(r.Context(), domain.RoleMember, 0)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users_report.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"User ID", "Name", "Email", "Total Assigned", "Pending", "In Progress", "Completed"})
	for _, m := range members {
		row := []string{m.ID, m.Name, m.Email}
		total, err := h.repo.Count(r.Context(), postgres.TaskFilter{AssignedTo: m.ID})
		if err != nil {
			h.logger.Error("count member tasks", slog.String("user_id", m.ID), slog.String("error", err.Error()))
			continue
		}
		row = append(row, strconv.Itoa(total))
		for _, status := range []domain.Status{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted} {
			n, err := h.repo.Count(r.Context(), postgres.TaskFilter{AssignedTo: m.ID, Status: &status})
			if err != nil {
				n = 0
			}
			row = append(row, strconv.Itoa(n))
		}
		cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write users report", slog.String("error", err.Error()))
	}
}

// assigneeNames maps user ids to display names, falling back to the raw id
// when the directory has no entry.
func (h *ReportsHandler) assigneeNames(r *http.Request, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			names = append(names, id)
			continue
		}
		names = append(names, user.Name)
	}
	return names
}
