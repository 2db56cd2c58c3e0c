package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Auth ────────────────────────────────────────────────────────────────────

	AuthRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total user registrations, labelled by granted role.",
	}, []string{"role"})

	AuthLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total login attempts, labelled by result.",
	}, []string{"result"})

	// ─── Tasks ───────────────────────────────────────────────────────────────────

	TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "tasks",
		Name:      "created_total",
		Help:      "Total tasks created, labelled by priority.",
	}, []string{"priority"})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "tasks",
		Name:      "completed_total",
		Help:      "Total tasks that reached Completed status.",
	})

	TaskMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "tasks",
		Name:      "mutations_total",
		Help:      "Total task mutations, labelled by operation.",
	}, []string{"op"})

	AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "tasks",
		Name:      "access_denied_total",
		Help:      "Total operations rejected by the access evaluator, labelled by action.",
	}, []string{"action"})

	// ─── Dashboard ───────────────────────────────────────────────────────────────

	DashboardDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskify",
		Subsystem: "dashboard",
		Name:      "duration_seconds",
		Help:      "Dashboard aggregation time in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"scope"})

	// ─── Overdue sweep ───────────────────────────────────────────────────────────

	OverdueSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskify",
		Subsystem: "sweep",
		Name:      "overdue_total",
		Help:      "Total overdue events emitted by the sweep.",
	})
)
