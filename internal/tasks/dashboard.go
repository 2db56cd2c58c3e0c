package tasks

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
	"github.com/Codesplay12/Taskify/pkg/retry"
	"github.com/Codesplay12/Taskify/pkg/telemetry"
)

const latestLimit = 5

// AssigneeInfo is the display-only projection of a user, resolved through the
// directory. It never feeds authorization decisions.
type AssigneeInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"profileImageUrl,omitempty"`
}

// TaskView is a task enriched with derived display fields.
type TaskView struct {
	domain.Task
	CompletedTodoCount int            `json:"completedTodoCount"`
	Assignees          []AssigneeInfo `json:"assignees,omitempty"`
}

// StatusSummary accompanies list responses.
type StatusSummary struct {
	All        int `json:"all"`
	Pending    int `json:"pendingTasks"`
	InProgress int `json:"inProgressTasks"`
	Completed  int `json:"completedTasks"`
}

// ListResult is the list operation's output.
type ListResult struct {
	Tasks   []TaskView    `json:"tasks"`
	Summary StatusSummary `json:"statusSummary"`
}

// PriorityBreakdown counts tasks per priority.
type PriorityBreakdown struct {
	Low    int `json:"lowPriority"`
	Medium int `json:"mediumPriority"`
	High   int `json:"highPriority"`
}

// StatusBreakdown counts tasks per status.
type StatusBreakdown struct {
	Pending    int `json:"pendingTasks"`
	InProgress int `json:"inProgressTasks"`
	Completed  int `json:"completedTasks"`
}

// DashboardStats is the aggregate section of a dashboard.
type DashboardStats struct {
	TotalTasks int               `json:"totalTasks"`
	Priority   PriorityBreakdown `json:"priority"`
	Status     StatusBreakdown   `json:"status"`
}

// Dashboard is the full reduction over a task snapshot.
type Dashboard struct {
	Stats         DashboardStats `json:"stats"`
	LatestTasks   []TaskView     `json:"latestTasks"`
	LatestMembers []AssigneeInfo `json:"latestMembers,omitempty"`
}

// List returns the tasks visible to the principal, optionally narrowed by
// status, plus summary counts over the unfiltered visible set.
func (s *Service) List(ctx context.Context, p domain.Principal, status *domain.Status) (*ListResult, error) {
	if status != nil && !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status value"}
	}

	base := s.baseFilter(p, false)
	listFilter := base
	listFilter.Status = status
	listFilter.SortByCreatedDesc = true

	result := &ListResult{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		found, err := s.findTasks(gctx, listFilter)
		if err != nil {
			return err
		}
		views := make([]TaskView, 0, len(found))
		for _, t := range found {
			views = append(views, s.view(gctx, t))
		}
		result.Tasks = views
		return nil
	})
	g.Go(s.countInto(gctx, base, &result.Summary.All))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusPending), &result.Summary.Pending))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusInProgress), &result.Summary.InProgress))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusCompleted), &result.Summary.Completed))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Dashboard folds the visible task set into totals, breakdowns, and the five
// most recent tasks. memberScope forces assignee scope even for admins (the
// "my work" view). Admin scope additionally lists the five newest members.
//
// The counts are commutative, read-only reads, so they run concurrently and
// the reduction waits for all of them.
func (s *Service) Dashboard(ctx context.Context, p domain.Principal, memberScope bool) (*Dashboard, error) {
	scope := "member"
	if p.IsAdmin() && !memberScope {
		scope = "admin"
	}
	start := time.Now()
	defer func() {
		telemetry.DashboardDurationSeconds.WithLabelValues(scope).Observe(time.Since(start).Seconds())
	}()

	base := s.baseFilter(p, memberScope)
	dash := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(s.countInto(gctx, base, &dash.Stats.TotalTasks))
	g.Go(s.countInto(gctx, withPriority(base, domain.PriorityLow), &dash.Stats.Priority.Low))
	g.Go(s.countInto(gctx, withPriority(base, domain.PriorityMedium), &dash.Stats.Priority.Medium))
	g.Go(s.countInto(gctx, withPriority(base, domain.PriorityHigh), &dash.Stats.Priority.High))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusPending), &dash.Stats.Status.Pending))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusInProgress), &dash.Stats.Status.InProgress))
	g.Go(s.countInto(gctx, withStatus(base, domain.StatusCompleted), &dash.Stats.Status.Completed))

	g.Go(func() error {
		latest := base
		latest.SortByCreatedDesc = true
		latest.Limit = latestLimit
		found, err := s.findTasks(gctx, latest)
		if err != nil {
			return err
		}
		views := make([]TaskView, 0, len(found))
		for _, t := range found {
			views = append(views, s.view(gctx, t))
		}
		dash.LatestTasks = views
		return nil
	})

	if scope == "admin" {
		g.Go(func() error {
			members, err := s.users.ListByRole(gctx, domain.RoleMember, latestLimit)
			if err != nil {
				return err
			}
			infos := make([]AssigneeInfo, 0, len(members))
			for _, m := range members {
				infos = append(infos, AssigneeInfo{ID: m.ID, Name: m.Name, Email: m.Email, AvatarURL: m.AvatarURL})
			}
			dash.LatestMembers = infos
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}

// baseFilter scopes queries by role: admins see everything unless they ask
// for their member view; members only see tasks assigned to them.
func (s *Service) baseFilter(p domain.Principal, memberScope bool) postgres.TaskFilter {
	if p.IsAdmin() && !memberScope {
		return postgres.TaskFilter{}
	}
	return postgres.TaskFilter{AssignedTo: p.ID}
}

// countInto returns a closure counting tasks matching filter into dst,
// retrying once on StoreUnavailable since counts are idempotent reads.
func (s *Service) countInto(ctx context.Context, filter postgres.TaskFilter, dst *int) func() error {
	return func() error {
		return retry.Do(ctx, retry.Config{
			MaxAttempts: 2,
			BaseDelay:   100 * time.Millisecond,
			Retryable:   storeUnavailable,
		}, func() error {
			storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
			defer cancel()
			n, err := s.repo.Count(storeCtx, filter)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
}

func (s *Service) findTasks(ctx context.Context, filter postgres.TaskFilter) ([]*domain.Task, error) {
	var found []*domain.Task
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: 2,
		BaseDelay:   100 * time.Millisecond,
		Retryable:   storeUnavailable,
	}, func() error {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		var err error
		found, err = s.repo.Find(storeCtx, filter)
		return err
	})
	return found, err
}

// view enriches a task with its completed count and resolved assignee
// display info. A missing directory entry is skipped, not an error.
func (s *Service) view(ctx context.Context, task *domain.Task) TaskView {
	v := TaskView{Task: *task, CompletedTodoCount: task.CompletedTodoCount()}
	for _, id := range task.AssignedTo {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			var notFound *domain.UserNotFoundError
			if !errors.As(err, &notFound) {
				s.logger.Warn("resolve assignee", "user_id", id, "error", err.Error())
			}
			continue
		}
		v.Assignees = append(v.Assignees, AssigneeInfo{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		})
	}
	return v
}

func withStatus(f postgres.TaskFilter, status domain.Status) postgres.TaskFilter {
	f.Status = &status
	return f
}

func withPriority(f postgres.TaskFilter, priority domain.Priority) postgres.TaskFilter {
	f.Priority = &priority
	return f
}
