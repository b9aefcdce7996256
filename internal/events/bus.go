package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"litany/internal/logging"
	"litany/internal/services"
)

// Handler processes one event. Returned errors are logged by the bus and do
// not interrupt delivery to other handlers.
type Handler func(ctx context.Context, event Event) error

type subscriber struct {
	name    string
	handler Handler
}

// Bus is a synchronous in-process event dispatcher. The subscription table
// is built once during startup wiring; there is no unsubscribe.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]subscriber
	logger      *slog.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[Type][]subscriber),
		logger:      logging.NewComponentLogger(logger, "event-bus"),
	}
}

// Subscribe registers a named handler for an event type. Handlers run in
// registration order.
func (b *Bus) Subscribe(eventType Type, name string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber{name: name, handler: handler})
}

// SubscriberCount returns how many handlers are registered for a type.
func (b *Bus) SubscriberCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// Publish delivers the event to every subscriber of its type, in
// registration order, on the calling goroutine. A nil event is a validation
// error. Handler errors and panics are contained: they are logged and the
// remaining handlers still run.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return services.Wrap(services.ErrValidation, "", "publish", "nil event", nil)
	}
	ctx = services.WithProcessID(ctx, event.ProcessID())

	b.mu.RLock()
	subs := b.subscribers[event.EventType()]
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(ctx, sub, event)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, sub subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithContext(ctx, b.logger).Error("event handler panicked",
				logging.String("handler", sub.name),
				logging.String(logging.FieldEventType, string(event.EventType())),
				logging.Error(fmt.Errorf("panic: %v", r)))
		}
	}()
	if err := sub.handler(ctx, event); err != nil {
		logging.WithContext(ctx, b.logger).Error("event handler failed",
			logging.String("handler", sub.name),
			logging.String(logging.FieldEventType, string(event.EventType())),
			logging.Error(err))
	}
}
