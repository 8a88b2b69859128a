package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// InMemoryEventBus delivers domain events to subscribed handlers in the
// publishing goroutine. Handler errors and panics are logged and never
// propagate to the publisher, a failed projection must not roll back the
// transaction that raised the event.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	accepted bool
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a bus with no subscriptions
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		logger: logger,
	}
}

// Subscribe registers a handler. When no event types are given the
// handler's own EventTypes() decides what it receives.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range eventTypes {
		b.byType[eventType] = append(b.byType[eventType], handler)
	}
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe detaches a handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, handlers := range b.byType {
		kept := handlers[:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		b.byType[eventType] = kept
	}
	b.logger.Debug("handler unsubscribed")
}

// Publish hands each event to its subscribed handlers. Delivery is
// best-effort: every handler is attempted and Publish itself never fails.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		for _, handler := range b.subscribers(evt.EventType()) {
			if err := deliver(ctx, handler, evt); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Start marks the bus as accepting events
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.accepted = true
	b.mu.Unlock()
	b.logger.Info("event bus started")
	return nil
}

// Stop marks the bus as closed. In-flight deliveries are synchronous so
// there is nothing to drain.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.accepted = false
	b.mu.Unlock()
	b.logger.Info("event bus stopped")
	return nil
}

// subscribers snapshots the handler list so delivery runs without the lock
func (b *InMemoryEventBus) subscribers(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := b.byType[eventType]
	out := make([]shared.EventHandler, len(handlers))
	copy(out, handlers)
	return out
}

// deliver invokes one handler, converting a panic into an error
func deliver(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, evt)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
