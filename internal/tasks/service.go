package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
	"github.com/Codesplay12/Taskify/pkg/retry"
	"github.com/Codesplay12/Taskify/pkg/telemetry"
)

const defaultStoreTimeout = 5 * time.Second

// Service is the task lifecycle coordinator: every operation is
// fetch → authorize → mutate → recompute → persist, fail-fast with no
// partial state.
type Service struct {
	repo         postgres.TaskRepository
	users        postgres.UserRepository
	events       *EventPublisher
	logger       *slog.Logger
	storeTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithStoreTimeout overrides the per-store-call deadline.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.storeTimeout = d }
}

// NewService wires the coordinator. events may be nil to disable event emission.
func NewService(
	repo postgres.TaskRepository,
	users postgres.UserRepository,
	events *EventPublisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:         repo,
		users:        users,
		events:       events,
		logger:       logger,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams is the input for Create.
type CreateParams struct {
	Title         string
	Description   string
	Priority      domain.Priority
	DueDate       *time.Time
	AssignedTo    []string
	Attachments   []string
	TodoChecklist []domain.ChecklistItem
}

// Create builds a task owned by the principal. Status defaults to Pending
// with progress 0 unless a checklist is supplied, in which case both are
// derived from it.
func (s *Service) Create(ctx context.Context, p domain.Principal, params CreateParams) (*domain.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	priority := params.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, &domain.ValidationError{Field: "priority", Reason: "must be one of Low, Medium, High"}
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New().String(),
		Title:       params.Title,
		Description: params.Description,
		Priority:    priority,
		DueDate:     params.DueDate,
		Owner:       p.ID,
		CreatedBy:   p.ID,
		AssignedTo:  params.AssignedTo,
		Status:      domain.StatusPending,
		Attachments: params.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.AssignedTo == nil {
		task.AssignedTo = []string{}
	}
	if err := domain.ApplyChecklist(task, params.TodoChecklist); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Create(storeCtx, task); err != nil {
		return nil, err
	}

	telemetry.TasksCreated.WithLabelValues(string(task.Priority)).Inc()
	s.events.Publish(ctx, EventTaskCreated, p.ID, task)
	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("owner", p.ID),
		slog.Int("assignees", len(task.AssignedTo)),
	)
	return task, nil
}

// Update applies a merge-patch to general fields. Fields absent from the
// patch keep their stored value. Replacing the checklist here does NOT
// recompute progress; only SetChecklist derives progress and status.
func (s *Service) Update(ctx context.Context, p domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(p, task, domain.ActionMutate) {
		return nil, s.deny(domain.ActionMutate)
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, &domain.ValidationError{Field: "priority", Reason: "must be one of Low, Medium, High"}
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = *patch.AssignedTo
	}
	if patch.TodoChecklist != nil {
		task.TodoChecklist = *patch.TodoChecklist
	}
	if patch.Attachments != nil {
		task.Attachments = *patch.Attachments
	}
	task.UpdatedAt = time.Now().UTC()

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Update(storeCtx, task); err != nil {
		return nil, err
	}

	telemetry.TaskMutations.WithLabelValues("update").Inc()
	s.events.Publish(ctx, EventTaskUpdated, p.ID, task)
	return task, nil
}

// SetStatus overrides the status verbatim. It never touches progress, so a
// task can be deliberately marked Completed at 40% — the derivation invariant
// is enforced only by the checklist operation.
func (s *Service) SetStatus(ctx context.Context, p domain.Principal, id string, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("must be one of: %s, %s, %s", domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted),
		}
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(p, task, domain.ActionSetStatus) {
		return nil, s.deny(domain.ActionSetStatus)
	}

	task.Status = status
	task.UpdatedAt = time.Now().UTC()

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Update(storeCtx, task); err != nil {
		return nil, err
	}

	if status == domain.StatusCompleted {
		telemetry.TasksCompleted.Inc()
	}
	telemetry.TaskMutations.WithLabelValues("set_status").Inc()
	s.events.Publish(ctx, EventTaskStatusChanged, p.ID, task)
	return task, nil
}

// SetChecklist replaces the checklist and re-derives progress and status.
func (s *Service) SetChecklist(ctx context.Context, p domain.Principal, id string, items []domain.ChecklistItem) (*domain.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(p, task, domain.ActionSetChecklist) {
		return nil, s.deny(domain.ActionSetChecklist)
	}

	if err := domain.ApplyChecklist(task, items); err != nil {
		return nil, err
	}
	task.UpdatedAt = time.Now().UTC()

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Update(storeCtx, task); err != nil {
		return nil, err
	}

	if task.Status == domain.StatusCompleted {
		telemetry.TasksCompleted.Inc()
	}
	telemetry.TaskMutations.WithLabelValues("set_checklist").Inc()
	s.events.Publish(ctx, EventTaskChecklistUpdated, p.ID, task)
	return task, nil
}

// Delete removes a task. Deletion requires the same relationship as mutation:
// admin, owner, or assignee.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id string) error {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanAccess(p, task, domain.ActionDelete) {
		return s.deny(domain.ActionDelete)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Delete(storeCtx, id); err != nil {
		return err
	}

	telemetry.TaskMutations.WithLabelValues("delete").Inc()
	s.events.Publish(ctx, EventTaskDeleted, p.ID, task)
	s.logger.Info("task deleted", slog.String("task_id", id), slog.String("actor", p.ID))
	return nil
}

// GetByID fetches one task, applying the same read rule as list queries.
func (s *Service) GetByID(ctx context.Context, p domain.Principal, id string) (*TaskView, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(p, task, domain.ActionRead) {
		return nil, s.deny(domain.ActionRead)
	}
	view := s.view(ctx, task)
	return &view, nil
}

// getTask is the shared fetch path: one retry for StoreUnavailable since a
// read is idempotent.
func (s *Service) getTask(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: 2,
		BaseDelay:   100 * time.Millisecond,
		Retryable:   storeUnavailable,
	}, func() error {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		var err error
		task, err = s.repo.GetByID(storeCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) deny(action domain.Action) error {
	telemetry.AccessDenied.WithLabelValues(string(action)).Inc()
	return &domain.ForbiddenError{Action: action}
}

func storeUnavailable(err error) bool {
	var unavailable *domain.StoreUnavailableError
	return errors.As(err, &unavailable)
}
