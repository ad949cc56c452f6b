// Package events is the in-process bus that carries lead lifecycle events
// (a lead turning hot, converting, an admin override, a follow-up batch)
// from the module that records them to the modules that react.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is anything published on the bus. EventName is the subscription key.
type Event interface {
	EventName() string
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent is embedded by every event. The id ties handler log lines and
// queued alert tasks back to the publish that caused them.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

// Handler reacts to one event. Returned errors are logged by Publish and
// joined by PublishSync.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is what services publish to and modules subscribe on.
type Bus interface {
	// Publish fans out without waiting; a slow mail handler never holds up ingest.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers inline, for workers and tests that need the outcome.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
