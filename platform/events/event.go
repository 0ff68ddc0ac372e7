// Package events defines the domain event contracts and an in-process bus.
// Modules publish here instead of calling each other directly.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type, e.g. "leads.lead.created".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events. Embed it and add
// the event's own payload fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes published events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Delivery is asynchronous; publishers never block on handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// returning the first handler error. Intended for tests and
	// shutdown paths that need ordering.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the named event type.
	Subscribe(eventName string, handler Handler)
}
