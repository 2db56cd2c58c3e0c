package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/postgres"
	"github.com/Codesplay12/Taskify/internal/tasks"
	"github.com/Codesplay12/Taskify/pkg/telemetry"
)

const (
	leaderKey = "scheduler:overdue:leader"
	leaderTTL = 90 * time.Second
	// One notification per task per day; Redis key expiry does the reset.
	notifiedTTL = 24 * time.Hour
)

// OverdueSweeper periodically finds tasks past their due date that are not
// Completed and emits a task.overdue event for each. Redis leader election
// keeps multiple instances from double-notifying.
type OverdueSweeper struct {
	repo       postgres.TaskRepository
	events     *tasks.EventPublisher
	redis      *redis.Client
	instanceID string
	logger     *slog.Logger
	cron       *cron.Cron
}

// NewOverdueSweeper wires the sweeper. events may be nil, which reduces the
// sweep to a metrics-only pass.
func NewOverdueSweeper(
	repo postgres.TaskRepository,
	events *tasks.EventPublisher,
	redisClient *redis.Client,
	instanceID string,
	logger *slog.Logger,
) *OverdueSweeper {
	return &OverdueSweeper{
		repo:       repo,
		events:     events,
		redis:      redisClient,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Start registers the sweep on the given cron schedule and begins running.
// The first sweep happens on the first tick, not at startup.
func (s *OverdueSweeper) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() { s.sweep(ctx) })
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.logger.Info("overdue sweeper started",
		slog.String("schedule", schedule),
		slog.String("instance_id", s.instanceID),
	)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *OverdueSweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	if !s.acquireOrRenewLeadership(ctx) {
		return
	}

	now := time.Now().UTC()
	notCompleted := domain.StatusCompleted
	overdue, err := s.repo.Find(ctx, postgres.TaskFilter{
		DueBefore: &now,
		NotStatus: &notCompleted,
	})
	if err != nil {
		s.logger.Error("overdue sweep query", slog.String("error", err.Error()))
		return
	}

	swept := 0
	for _, task := range overdue {
		fresh, err := s.markNotified(ctx, task.ID, now)
		if err != nil {
			s.logger.Error("overdue dedupe check",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !fresh {
			continue
		}
		s.events.Publish(ctx, tasks.EventTaskOverdue, "system", task)
		swept++
	}

	telemetry.OverdueSwept.Add(float64(swept))
	if swept > 0 {
		s.logger.Info("overdue sweep completed",
			slog.Int("overdue", len(overdue)),
			slog.Int("notified", swept),
		)
	}
}

// markNotified records that a task was reported today. Returns true when this
// call made the record, false when another sweep already did.
func (s *OverdueSweeper) markNotified(ctx context.Context, taskID string, now time.Time) (bool, error) {
	key := "overdue:notified:" + taskID + ":" + now.Format("2006-01-02")
	return s.redis.SetNX(ctx, key, "1", notifiedTTL).Result()
}

// acquireOrRenewLeadership attempts SETNX; returns true if this instance is the leader.
func (s *OverdueSweeper) acquireOrRenewLeadership(ctx context.Context) bool {
	ok, err := s.redis.SetNX(ctx, leaderKey, s.instanceID, leaderTTL).Result()
	if err != nil {
		s.logger.Error("leader election SetNX", slog.String("error", err.Error()))
		return false
	}
	if ok {
		s.logger.Info("acquired sweeper leadership", slog.String("instance_id", s.instanceID))
		return true
	}

	// Already set — renew only if we own it (atomic Lua script avoids races).
	renewScript := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
	result, err := renewScript.Run(
		ctx, s.redis,
		[]string{leaderKey},
		s.instanceID,
		leaderTTL.Milliseconds(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("leader renewal", slog.String("error", err.Error()))
		return false
	}
	return result == 1
}
