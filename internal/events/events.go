package events

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ClientCreated      = "client.created"
	ClientDeleted      = "client.deleted"
	EmployeeCreated    = "employee.created"
	EmployeeUpdated    = "employee.updated"
	ProjectCreated     = "project.created"
	ProjectUpdated     = "project.updated"
	ProjectDeleted     = "project.deleted"
	TaskCreated        = "task.created"
	TaskUpdated        = "task.updated"
	TaskDeleted        = "task.deleted"
	BudgetsSnapshotted = "budgets.snapshotted"
)

// Event is the envelope written to the bus for every committed ledger change.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EntityID   int64     `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

func newEvent(eventType string, entityID int64, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// partitionKey keeps every event for one entity on the same partition.
func partitionKey(eventType string, entityID int64) string {
	entity, _, _ := strings.Cut(eventType, ".")
	if entityID == 0 {
		return entity
	}
	return entity + ":" + strconv.FormatInt(entityID, 10)
}

type Publisher interface {
	// Publish is fire-and-forget; failures are logged and counted, never returned.
	Publish(ctx context.Context, eventType string, entityID int64, data any)
	Close() error
}

// Nop discards events. Used when no sink is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, int64, any) {}

func (Nop) Close() error { return nil }

// Multi fans every event out to each publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, eventType string, entityID int64, data any) {
	for _, p := range m {
		p.Publish(ctx, eventType, entityID, data)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
