package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Codesplay12/Taskify/internal/domain"
	"github.com/Codesplay12/Taskify/internal/kafka"
)

// TopicTaskEvents carries every task lifecycle event, keyed by task id so
// consumers see per-task ordering.
const TopicTaskEvents = "tasks.events"

// Event types published to TopicTaskEvents.
const (
	EventTaskCreated          = "task.created"
	EventTaskUpdated          = "task.updated"
	EventTaskStatusChanged    = "task.status_changed"
	EventTaskChecklistUpdated = "task.checklist_updated"
	EventTaskDeleted          = "task.deleted"
	EventTaskOverdue          = "task.overdue"
)

// Event is the JSON payload written to the event topic.
type Event struct {
	Type   string       `json:"type"`
	TaskID string       `json:"task_id"`
	Actor  string       `json:"actor,omitempty"`
	At     time.Time    `json:"at"`
	Task   *domain.Task `json:"task,omitempty"`
}

// EventPublisher emits lifecycle events. Publishing is best-effort: failures
// are logged and never fail the request that triggered them. A nil publisher
// is valid and drops everything.
type EventPublisher struct {
	producer kafka.Producer
	logger   *slog.Logger
}

// NewEventPublisher wraps a Kafka producer.
func NewEventPublisher(producer kafka.Producer, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger}
}

// Publish emits one event for task. Safe to call on a nil receiver.
func (p *EventPublisher) Publish(ctx context.Context, eventType, actor string, task *domain.Task) {
	if p == nil || p.producer == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:   eventType,
		TaskID: task.ID,
		Actor:  actor,
		At:     time.Now().UTC(),
		Task:   task,
	})
	if err != nil {
		p.logger.Error("marshal event", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := p.producer.Publish(ctx, TopicTaskEvents, task.ID, payload); err != nil {
		p.logger.Error("publish event",
			slog.String("type", eventType),
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}
}
