package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Codesplay12/Taskify/internal/auth"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Deps bundles everything the router needs.
type Deps struct {
	Auth    *AuthHandler
	Tasks   *TasksHandler
	Users   *UsersHandler
	Reports *ReportsHandler
	AuthSvc *auth.Service
	Logger  *slog.Logger
}

// NewRouter assembles the full API surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(d.Logger))
	r.Use(MaxBodySize(maxRequestBody))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(Authenticate(d.AuthSvc, d.Logger))
				r.Get("/profile", d.Auth.Profile)
				r.Put("/profile", d.Auth.UpdateProfile)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(Authenticate(d.AuthSvc, d.Logger))
			r.Get("/", d.Tasks.List)
			r.Post("/", d.Tasks.Create)
			r.Get("/dashboard", d.Tasks.Dashboard)
			r.Get("/user-dashboard", d.Tasks.UserDashboard)
			r.Get("/{id}", d.Tasks.Get)
			r.Put("/{id}", d.Tasks.Update)
			r.Delete("/{id}", d.Tasks.Delete)
			r.Put("/{id}/status", d.Tasks.SetStatus)
			r.Put("/{id}/todo", d.Tasks.SetChecklist)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(Authenticate(d.AuthSvc, d.Logger))
			r.With(AdminOnly).Get("/", d.Users.List)
			r.Get("/{id}", d.Users.Get)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(Authenticate(d.AuthSvc, d.Logger))
			r.Use(AdminOnly)
			r.Get("/export/tasks", d.Reports.ExportTasks)
			r.Get("/export/users", d.Reports.ExportUsers)
		})
	})

	return r
}
