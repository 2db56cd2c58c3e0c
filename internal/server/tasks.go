package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/tasks"
)

// TasksHandler serves the task lifecycle and dashboard endpoints.
type TasksHandler struct {
	tasks  *tasks.Service
	logger *slog.Logger
}

// NewTasksHandler creates a TasksHandler.
func NewTasksHandler(taskSvc *tasks.Service, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{tasks: taskSvc, logger: logger}
}

// CreateTaskRequest is the JSON body for POST /api/tasks.
type CreateTaskRequest struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Priority      domain.Priority        `json:"priority"`
	DueDate       *time.Time             `json:"dueDate"`
	AssignedTo    []string               `json:"assignedTo"`
	Attachments   []string               `json:"attachments"`
	TodoChecklist []domain.ChecklistItem `json:"todoChecklist"`
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("taskify").Start(r.Context(), "tasks.create")
	defer span.End()

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, _ := PrincipalFrom(ctx)
	task, err := h.tasks.Create(ctx, p, tasks.CreateParams{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		AssignedTo:    req.AssignedTo,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		writeDomainError(w, h.logger, err)
		return
	}

	span.SetAttributes(attribute.String("task.id", task.ID))
	writeJSON(w, http.StatusCreated, task)
}

// Get handles GET /api/tasks/{id}.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	view, err := h.tasks.GetByID(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// List handles GET /api/tasks?status=...
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.Status(raw)
		status = &s
	}

	result, err := h.tasks.List(r.Context(), p, status)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Update handles PUT /api/tasks/{id} as a JSON merge-patch.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("taskify").Start(r.Context(), "tasks.update")
	defer span.End()

	var patch domain.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, _ := PrincipalFrom(ctx)
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("task.id", id))

	task, err := h.tasks.Update(ctx, p, id, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("taskify").Start(r.Context(), "tasks.delete")
	defer span.End()

	p, _ := PrincipalFrom(ctx)
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("task.id", id))

	if err := h.tasks.Delete(ctx, p, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

// SetStatusRequest is the JSON body for PUT /api/tasks/{id}/status.
type SetStatusRequest struct {
	Status domain.Status `json:"status"`
}

// SetStatus handles PUT /api/tasks/{id}/status.
func (h *TasksHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, _ := PrincipalFrom(r.Context())
	task, err := h.tasks.SetStatus(r.Context(), p, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// SetChecklistRequest is the JSON body for PUT /api/tasks/{id}/todo.
type SetChecklistRequest struct {
	TodoChecklist []domain.ChecklistItem `json:"todoChecklist"`
}

// SetChecklist handles PUT /api/tasks/{id}/todo.
func (h *TasksHandler) SetChecklist(w http.ResponseWriter, r *http.Request) {
	var req SetChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, _ := PrincipalFrom(r.Context())
	task, err := h.tasks.SetChecklist(r.Context(), p, chi.URLParam(r, "id"), req.TodoChecklist)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Dashboard handles GET /api/tasks/dashboard — full scope for admins.
func (h *TasksHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	dash, err := h.tasks.Dashboard(r.Context(), p, false)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// UserDashboard handles GET /api/tasks/user-dashboard — always scoped to the
// caller's assigned tasks, regardless of role.
func (h *TasksHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	dash, err := h.tasks.Dashboard(r.Context(), p, true)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
