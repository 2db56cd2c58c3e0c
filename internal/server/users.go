package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
)

// UsersHandler serves the team directory endpoints.
type UsersHandler struct {
	users  postgres.UserRepository
	repo   postgres.TaskRepository
	logger *slog.Logger
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(users postgres.UserRepository, repo postgres.TaskRepository, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, repo: repo, logger: logger}
}

// MemberOverview is one row of the team listing: a member plus their
// workload counts.
type MemberOverview struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	PendingTasks    int    `json:"pendingTasks"`
	InProgressTasks int    `json:"inProgressTasks"`
	CompletedTasks  int    `json:"completedTasks"`
}

// List handles GET /api/users — all members, each with per-status task counts.
// Counts for different members are independent reads, so they fan out.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.users.ListByRole(r.Context(), domain.RoleMember, 0)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	overviews := make([]MemberOverview, len(members))
	g, gctx := errgroup.WithContext(r.Context())
	for i, m := range members {
		overviews[i] = MemberOverview{
			ID:              m.ID,
			Name:            m.Name,
			Email:           m.Email,
			ProfileImageURL: m.AvatarURL,
		}
		counts := []struct {
			status domain.Status
			dst    *int
		}{
			{domain.StatusPending, &overviews[i].PendingTasks},
			{domain.StatusInProgress, &overviews[i].InProgressTasks},
			{domain.StatusCompleted, &overviews[i].CompletedTasks},
		}
		for _, c := range counts {
			status, dst, memberID := c.status, c.dst, m.ID
			g.Go(func() error {
				n, err := h.repo.Count(gctx, postgres.TaskFilter{
					AssignedTo: memberID,
					Status:     &status,
				})
				if err != nil {
					return err
				}
				*dst = n
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, overviews)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
