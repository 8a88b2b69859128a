package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []shared.DomainEvent
	failOn string
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event.EventType() == h.failOn {
		return errors.New("handler rejected event")
	}
	h.seen = append(h.seen, event)
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

type panickingHandler struct {
	types []string
}

func (h *panickingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	panic("projection blew up")
}

func (h *panickingHandler) EventTypes() []string {
	return h.types
}

func receivedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	stock, err := inventory.NewProductStock(uuid.New(), true)
	require.NoError(t, err)
	lot, err := stock.ReceiveStock(decimal.NewFromInt(100), &inventory.LotInfo{LotCode: "VAX-001"})
	require.NoError(t, err)
	_ = lot

	events := stock.GetDomainEvents()
	require.NotEmpty(t, events)
	return events[0]
}

func TestInMemoryEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers events to subscribed handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeStockReceived}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, receivedEvent(t)))
		assert.Len(t, handler.seen, 1)
	})

	t.Run("skips handlers for other event types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeStockReserved}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, receivedEvent(t)))
		assert.Empty(t, handler.seen)
	})

	t.Run("handler failure does not stop other handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{
			types:  []string{inventory.EventTypeStockReceived},
			failOn: inventory.EventTypeStockReceived,
		}
		healthy := &recordingHandler{types: []string{inventory.EventTypeStockReceived}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, receivedEvent(t)))
		assert.Len(t, healthy.seen, 1)
	})

	t.Run("panicking handler does not stop other handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.Subscribe(&panickingHandler{types: []string{inventory.EventTypeStockReceived}})
		healthy := &recordingHandler{types: []string{inventory.EventTypeStockReceived}}
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, receivedEvent(t)))
		assert.Len(t, healthy.seen, 1)
	})

	t.Run("unsubscribed handler stops receiving", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeStockReceived}}
		bus.Subscribe(handler)
		bus.Unsubscribe(handler)

		require.NoError(t, bus.Publish(ctx, receivedEvent(t)))
		assert.Empty(t, handler.seen)
	})
}
