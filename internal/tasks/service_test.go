package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
)

// ── fakes ────────────────────────────────────────────────────────────────────

// fakeTaskRepo stores deep copies, like a real database: mutating a fetched
// task must not change the stored one until Update is called.
type fakeTaskRepo struct {
	tasks   map[string]*domain.Task
	failGet error // returned once per Get call while set
	getCall int
	failOps map[string]error // "update", "delete", "count", "find"
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task), failOps: make(map[string]error)}
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	c.AssignedTo = append([]string(nil), t.AssignedTo...)
	c.TodoChecklist = append([]domain.ChecklistItem(nil), t.TodoChecklist...)
	c.Attachments = append([]string(nil), t.Attachments...)
	return &c
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if err := r.failOps["update"]; err != nil {
		return err
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return &domain.TaskNotFoundError{TaskID: task.ID}
	}
	r.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.getCall++
	if r.failGet != nil {
		err := r.failGet
		r.failGet = nil
		return nil, err
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, &domain.TaskNotFoundError{TaskID: id}
	}
	return copyTask(task), nil
}

func (r *fakeTaskRepo) Find(_ context.Context, filter postgres.TaskFilter) ([]*domain.Task, error) {
	if err := r.failOps["find"]; err != nil {
		return nil, err
	}
	var found []*domain.Task
	for _, t := range r.tasks {
		if matches(t, filter) {
			found = append(found, copyTask(t))
		}
	}
	if filter.SortByCreatedDesc {
		sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	}
	if filter.Limit > 0 && len(found) > filter.Limit {
		found = found[:filter.Limit]
	}
	return found, nil
}

func (r *fakeTaskRepo) Count(_ context.Context, filter postgres.TaskFilter) (int, error) {
	if err := r.failOps["count"]; err != nil {
		return 0, err
	}
	n := 0
	for _, t := range r.tasks {
		if matches(t, filter) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if err := r.failOps["delete"]; err != nil {
		return err
	}
	if _, ok := r.tasks[id]; !ok {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	delete(r.tasks, id)
	return nil
}

func matches(t *domain.Task, f postgres.TaskFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != "" && !t.IsAssignee(f.AssignedTo) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.NotStatus != nil && t.Status == *f.NotStatus {
		return false
	}
	return true
}

var _ postgres.TaskRepository = (*fakeTaskRepo)(nil)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, &domain.UserNotFoundError{UserID: id}
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.UserNotFoundError{UserID: email}
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role, limit int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ postgres.UserRepository = (*fakeUserRepo)(nil)

type fakeProducer struct {
	published []publishedMsg
	err       error
}

type publishedMsg struct {
	topic, key string
	value      []byte
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedMsg{topic: topic, key: key, value: value})
	return nil
}
func (p *fakeProducer) Close() error { return nil }

// ── helpers ──────────────────────────────────────────────────────────────────

var (
	admin    = domain.Principal{ID: "a1", Role: domain.RoleAdmin}
	memberU1 = domain.Principal{ID: "u1", Role: domain.RoleMember}
	memberU2 = domain.Principal{ID: "u2", Role: domain.RoleMember}
	memberU3 = domain.Principal{ID: "u3", Role: domain.RoleMember}
)

func newTestService(repo *fakeTaskRepo, users *fakeUserRepo, prod *fakeProducer) *Service {
	var events *EventPublisher
	if prod != nil {
		events = NewEventPublisher(prod, slog.Default())
	}
	return NewService(repo, users, events, slog.Default(), WithStoreTimeout(time.Second))
}

func seedTask(t *testing.T, repo *fakeTaskRepo, task *domain.Task) *domain.Task {
	t.Helper()
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

// ── create ───────────────────────────────────────────────────────────────────

func TestCreate_Defaults(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestService(repo, newFakeUserRepo(), nil)

	task, err := svc.Create(context.Background(), memberU1, CreateParams{
		Title:      "write report",
		AssignedTo: []string{"u2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", task.Owner, "owner is the requesting principal")
	assert.Equal(t, "u1", task.CreatedBy)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, domain.PriorityMedium, task.Priority, "priority defaults to Medium")
	assert.NotEmpty(t, task.ID)
	require.Contains(t, repo.tasks, task.ID, "task should be persisted")
}

func TestCreate_DerivesFromSuppliedChecklist(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), nil)

	task, err := svc.Create(context.Background(), admin, CreateParams{
		Title: "launch",
		TodoChecklist: []domain.ChecklistItem{
			{Text: "a", Completed: true},
			{Text: "b", Completed: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, domain.StatusInProgress, task.Status)
}

func TestCreate_ValidationFailures(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), nil)

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"blank title", CreateParams{Title: "   "}},
		{"unknown priority", CreateParams{Title: "x", Priority: domain.Priority("Urgent")}},
		{"blank checklist text", CreateParams{Title: "x", TodoChecklist: []domain.ChecklistItem{{Text: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, tt.params)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	prod := &fakeProducer{}
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), prod)

	task, err := svc.Create(context.Background(), admin, CreateParams{Title: "x"})
	require.NoError(t, err)

	require.Len(t, prod.published, 1)
	assert.Equal(t, TopicTaskEvents, prod.published[0].topic)
	assert.Equal(t, task.ID, prod.published[0].key, "events are keyed by task id")

	var event Event
	require.NoError(t, json.Unmarshal(prod.published[0].value, &event))
	assert.Equal(t, EventTaskCreated, event.Type)
	assert.Equal(t, "a1", event.Actor)
}

// ── update (merge-patch) ─────────────────────────────────────────────────────

func TestUpdate_OmittedFieldsPreserved(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "old", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	title := "new title"
	updated, err := svc.Update(context.Background(), admin, "t1", domain.TaskPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, []string{"u2"}, updated.AssignedTo, "omitted assignedTo keeps prior value")
	assert.Equal(t, "u1", updated.Owner, "owner never changes")
}

func TestUpdate_ExplicitEmptyAssigneesClears(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	empty := []string{}
	updated, err := svc.Update(context.Background(), admin, "t1", domain.TaskPatch{AssignedTo: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedTo, "explicitly empty list clears assignees")
}

func TestUpdate_ChecklistReplacementDoesNotRecompute(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{
		ID: "t1", Title: "x", Owner: "u1",
		Progress: 0, Status: domain.StatusPending,
	})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	items := []domain.ChecklistItem{{Text: "a", Completed: true}}
	updated, err := svc.Update(context.Background(), memberU1, "t1", domain.TaskPatch{TodoChecklist: &items})
	require.NoError(t, err)

	// Only the checklist operation derives progress; a field edit leaves both alone.
	assert.Equal(t, 0, updated.Progress)
	assert.Equal(t, domain.StatusPending, updated.Status)
}

func TestUpdate_ChecklistReplacementSkipsItemValidation(t *testing.T) {
	// The merge-patch path stores the checklist verbatim; item text is only
	// validated where derivation happens, in the checklist operation.
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1"})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	items := []domain.ChecklistItem{{Text: "  "}}
	updated, err := svc.Update(context.Background(), memberU1, "t1", domain.TaskPatch{TodoChecklist: &items})
	require.NoError(t, err)
	require.Len(t, updated.TodoChecklist, 1)
	assert.Equal(t, "  ", updated.TodoChecklist[0].Text)

	_, err = svc.SetChecklist(context.Background(), memberU1, "t1", items)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr, "the same items are rejected by the deriving operation")
}

func TestUpdate_OwnerNotAssigneeAllowed(t *testing.T) {
	// u1 created the task, assigned only u2 — u1 may still update it.
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	desc := "rewritten"
	_, err := svc.Update(context.Background(), memberU1, "t1", domain.TaskPatch{Description: &desc})
	require.NoError(t, err)
}

func TestUpdate_StrangerForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "before", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	title := "after"
	_, err := svc.Update(context.Background(), memberU3, "t1", domain.TaskPatch{Title: &title})
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "before", repo.tasks["t1"].Title, "stored task unchanged after rejection")
}

func TestUpdate_InvalidPriorityLeavesStoredUnchanged(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", Priority: domain.PriorityLow})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	bad := domain.Priority("ASAP")
	title := "should not land"
	_, err := svc.Update(context.Background(), memberU1, "t1", domain.TaskPatch{Title: &title, Priority: &bad})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "x", repo.tasks["t1"].Title)
	assert.Equal(t, domain.PriorityLow, repo.tasks["t1"].Priority)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), nil)

	_, err := svc.Update(context.Background(), admin, "missing", domain.TaskPatch{})
	var notFound *domain.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// ── setStatus ────────────────────────────────────────────────────────────────

func TestSetStatus_InvalidValue(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), nil)

	_, err := svc.SetStatus(context.Background(), admin, "t1", domain.Status("Done"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSetStatus_NeverTouchesProgress(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{
		ID: "t1", Title: "x", Owner: "u1",
		TodoChecklist: []domain.ChecklistItem{{Text: "a", Completed: true}, {Text: "b"}},
		Progress:      50, Status: domain.StatusInProgress,
	})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	updated, err := svc.SetStatus(context.Background(), memberU1, "t1", domain.StatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, updated.Status, "status set verbatim")
	assert.Equal(t, 50, updated.Progress, "direct override bypasses progress derivation")
}

func TestSetStatus_StrangerForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	_, err := svc.SetStatus(context.Background(), memberU3, "t1", domain.StatusCompleted)
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, domain.StatusPending, repo.tasks["t1"].Status)
}

func TestSetStatus_AdminAlwaysAllowed(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	_, err := svc.SetStatus(context.Background(), admin, "t1", domain.StatusInProgress)
	require.NoError(t, err)
}

// ── setChecklist ─────────────────────────────────────────────────────────────

func TestSetChecklist_OverwritesStatusFromProgress(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{
		ID: "t1", Title: "x", Owner: "u1",
		Status: domain.StatusCompleted, Progress: 100,
	})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	updated, err := svc.SetChecklist(context.Background(), memberU1, "t1", []domain.ChecklistItem{
		{Text: "a", Completed: true},
		{Text: "b", Completed: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, domain.StatusInProgress, updated.Status,
		"checklist replacement always overwrites status from new progress")
}

func TestSetChecklist_EmptyGoesPending(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{
		ID: "t1", Title: "x", Owner: "u1",
		TodoChecklist: []domain.ChecklistItem{{Text: "a", Completed: true}},
		Status:        domain.StatusCompleted, Progress: 100,
	})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	updated, err := svc.SetChecklist(context.Background(), memberU1, "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Progress)
	assert.Equal(t, domain.StatusPending, updated.Status)
}

func TestSetChecklist_BlankTextRejectedStoredUnchanged(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{
		ID: "t1", Title: "x", Owner: "u1",
		TodoChecklist: []domain.ChecklistItem{{Text: "keep"}},
	})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	_, err := svc.SetChecklist(context.Background(), memberU1, "t1", []domain.ChecklistItem{{Text: "  "}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, repo.tasks["t1"].TodoChecklist, 1)
	assert.Equal(t, "keep", repo.tasks["t1"].TodoChecklist[0].Text)
}

func TestSetChecklist_StrangerForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	_, err := svc.SetChecklist(context.Background(), memberU3, "t1", []domain.ChecklistItem{{Text: "a"}})
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

// ── delete ───────────────────────────────────────────────────────────────────

func TestDelete_StrangerForbidden(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	svc := newTestService(repo, newFakeUserRepo(), nil)

	err := svc.Delete(context.Background(), memberU3, "t1")
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Contains(t, repo.tasks, "t1")
}

func TestDelete_OwnerAllowed(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1"})
	prod := &fakeProducer{}
	svc := newTestService(repo, newFakeUserRepo(), prod)

	require.NoError(t, svc.Delete(context.Background(), memberU1, "t1"))
	assert.NotContains(t, repo.tasks, "t1")
	require.Len(t, prod.published, 1)

	var event Event
	require.NoError(t, json.Unmarshal(prod.published[0].value, &event))
	assert.Equal(t, EventTaskDeleted, event.Type)
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newFakeTaskRepo(), newFakeUserRepo(), nil)

	err := svc.Delete(context.Background(), admin, "missing")
	var notFound *domain.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// ── getByID ──────────────────────────────────────────────────────────────────

func TestGetByID_ReadRuleApplied(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1", AssignedTo: []string{"u2"}})
	users := newFakeUserRepo(&domain.User{ID: "u2", Name: "Beth", Email: "beth@example.com", Role: domain.RoleMember})
	svc := newTestService(repo, users, nil)

	// Assignee and owner can read.
	view, err := svc.GetByID(context.Background(), memberU2, "t1")
	require.NoError(t, err)
	require.Len(t, view.Assignees, 1)
	assert.Equal(t, "Beth", view.Assignees[0].Name)

	_, err = svc.GetByID(context.Background(), memberU1, "t1")
	require.NoError(t, err)

	// A stranger gets Forbidden, not the task.
	_, err = svc.GetByID(context.Background(), memberU3, "t1")
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestGetByID_RetriesOnStoreUnavailable(t *testing.T) {
	repo := newFakeTaskRepo()
	seedTask(t, repo, &domain.Task{ID: "t1", Title: "x", Owner: "u1"})
	repo.failGet = &domain.StoreUnavailableError{Op: "get task t1", Err: errors.New("timeout")}
	svc := newTestService(repo, newFakeUserRepo(), nil)

	// First read fails transiently; the idempotent read is retried once.
	view, err := svc.GetByID(context.Background(), admin, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", view.ID)
	assert.Equal(t, 2, repo.getCall)
}
