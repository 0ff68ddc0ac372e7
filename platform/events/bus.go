package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryBus is a simple in-process event bus. Handlers registered for an
// event name receive every published event with that name. Publish runs
// handlers in their own goroutines; a panicking handler never takes down
// the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewInMemoryBus creates an event bus with no registered handlers.
func NewInMemoryBus(logger *slog.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						"event", event.EventName(),
						"panic", r,
					)
				}
			}()
			if err := h.Handle(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"event", event.EventName(),
					"error", err,
				)
			}
		}(handler)
	}
}

// PublishSync dispatches the event to all handlers sequentially and returns
// the first handler error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
