package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Codesplay12/Taskify/internal/domain"
)

// TaskFilter is the query predicate the store contract exposes: equality on
// status and priority, assignee membership, created-descending sort, limit.
type TaskFilter struct {
	Status     *domain.Status
	Priority   *domain.Priority
	AssignedTo string // non-empty: only tasks where this user is an assignee

	// DueBefore with NotStatus selects overdue tasks for the sweep.
	DueBefore *time.Time
	NotStatus *domain.Status

	SortByCreatedDesc bool
	Limit             int
}

// TaskRepository abstracts all database access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Find(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository wraps a pgxpool with the TaskRepository interface.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

const taskColumns = `id, title, description, priority, due_date, owner_id, created_by,
	       assigned_to, todo_checklist, progress, status, attachments, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	checklist, err := json.Marshal(task.TodoChecklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tasks
			(id, title, description, priority, due_date, owner_id, created_by,
			 assigned_to, todo_checklist, progress, status, attachments, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		task.ID, task.Title, task.Description, string(task.Priority), task.DueDate,
		task.Owner, task.CreatedBy, task.AssignedTo, checklist,
		task.Progress, string(task.Status), task.Attachments, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("create task %s", task.ID), err)
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	checklist, err := json.Marshal(task.TodoChecklist)
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, due_date = $4,
		    assigned_to = $5, todo_checklist = $6, progress = $7, status = $8,
		    attachments = $9, updated_at = $10
		WHERE id = $11
	`,
		task.Title, task.Description, string(task.Priority), task.DueDate,
		task.AssignedTo, checklist, task.Progress, string(task.Status),
		task.Attachments, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("update task %s", task.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: task.ID}
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		var notFound *domain.TaskNotFoundError
		if errors.As(err, &notFound) {
			return nil, &domain.TaskNotFoundError{TaskID: id}
		}
		return nil, storeErr(fmt.Sprintf("get task %s", id), err)
	}
	return task, nil
}

func (r *taskRepository) Find(ctx context.Context, filter TaskFilter) ([]*domain.Task, error) {
	where, args := filter.clauses()
	query := `SELECT ` + taskColumns + ` FROM tasks` + where
	if filter.SortByCreatedDesc {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("find tasks", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find tasks", err)
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, filter TaskFilter) (int, error) {
	where, args := filter.clauses()
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&n)
	if err != nil {
		return 0, storeErr("count tasks", err)
	}
	return n, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return storeErr(fmt.Sprintf("delete task %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	return nil
}

// clauses builds the WHERE fragment and its positional args for a filter.
func (f TaskFilter) clauses() (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != nil {
		conds = append(conds, "status = "+arg(string(*f.Status)))
	}
	if f.Priority != nil {
		conds = append(conds, "priority = "+arg(string(*f.Priority)))
	}
	if f.AssignedTo != "" {
		conds = append(conds, "assigned_to @> "+arg([]string{f.AssignedTo}))
	}
	if f.DueBefore != nil {
		conds = append(conds, "due_date IS NOT NULL AND due_date < "+arg(*f.DueBefore))
	}
	if f.NotStatus != nil {
		conds = append(conds, "status <> "+arg(string(*f.NotStatus)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanTask reads a task row from any pgx row type.
func scanTask(row interface {
	Scan(...any) error
}) (*domain.Task, error) {
	var task domain.Task
	var priorityStr, statusStr string
	var checklist []byte
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &priorityStr, &task.DueDate,
		&task.Owner, &task.CreatedBy, &task.AssignedTo, &checklist,
		&task.Progress, &statusStr, &task.Attachments, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.TaskNotFoundError{TaskID: "unknown"}
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &task.TodoChecklist); err != nil {
			return nil, fmt.Errorf("unmarshal checklist: %w", err)
		}
	}
	task.Priority = domain.Priority(priorityStr)
	task.Status = domain.Status(statusStr)
	return &task, nil
}

// storeErr classifies deadline expiry as StoreUnavailable per the error
// taxonomy; anything else stays a wrapped infrastructure error.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
