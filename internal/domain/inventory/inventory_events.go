package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockReceived       = "inventory.stock_received"
	EventTypeStockReserved       = "inventory.stock_reserved"
	EventTypeReservationReleased = "inventory.reservation_released"
	EventTypeReservationConsumed = "inventory.reservation_consumed"
	EventTypeOnHandAdjusted      = "inventory.on_hand_adjusted"
	EventTypeReservedCorrected   = "inventory.reserved_corrected"
)

// StockReceivedEvent is emitted when physical stock arrives
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	LotID     *uuid.UUID      `json:"lot_id,omitempty"`
	LotCode   string          `json:"lot_code,omitempty"`
}

// NewStockReceivedEvent creates a stock received event
func NewStockReceivedEvent(stockID, productID uuid.UUID, quantity decimal.Decimal, lot *Lot) *StockReceivedEvent {
	event := &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, "ProductStock", stockID),
		ProductID:       productID,
		Quantity:        quantity,
	}
	if lot != nil {
		id := lot.ID
		event.LotID = &id
		event.LotCode = lot.LotCode
	}
	return event
}

// StockReservedEvent is emitted when a reservation claims stock
type StockReservedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	QuoteID       uuid.UUID       `json:"quote_id"`
	LotID         *uuid.UUID      `json:"lot_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewStockReservedEvent creates a stock reserved event
func NewStockReservedEvent(stockID, productID uuid.UUID, reservation *Reservation) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, "ProductStock", stockID),
		ProductID:       productID,
		ReservationID:   reservation.ID,
		QuoteID:         reservation.QuoteID,
		LotID:           reservation.LotID,
		Quantity:        reservation.Quantity,
	}
}

// ReservationReleasedEvent is emitted when a reservation returns stock
type ReservationReleasedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	QuoteID       uuid.UUID       `json:"quote_id"`
	LotID         *uuid.UUID      `json:"lot_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewReservationReleasedEvent creates a reservation released event
func NewReservationReleasedEvent(stockID, productID uuid.UUID, reservation *Reservation) *ReservationReleasedEvent {
	return &ReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationReleased, "ProductStock", stockID),
		ProductID:       productID,
		ReservationID:   reservation.ID,
		QuoteID:         reservation.QuoteID,
		LotID:           reservation.LotID,
		Quantity:        reservation.Quantity,
	}
}

// ReservationConsumedEvent is emitted when a delivery consumes reserved stock
type ReservationConsumedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	QuoteID       uuid.UUID       `json:"quote_id"`
	LotID         *uuid.UUID      `json:"lot_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewReservationConsumedEvent creates a reservation consumed event
func NewReservationConsumedEvent(stockID, productID uuid.UUID, reservation *Reservation) *ReservationConsumedEvent {
	return &ReservationConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationConsumed, "ProductStock", stockID),
		ProductID:       productID,
		ReservationID:   reservation.ID,
		QuoteID:         reservation.QuoteID,
		LotID:           reservation.LotID,
		Quantity:        reservation.Quantity,
	}
}

// OnHandAdjustedEvent is emitted on manual corrections and write-offs
type OnHandAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	LotID     *uuid.UUID      `json:"lot_id,omitempty"`
	Delta     decimal.Decimal `json:"delta"`
}

// NewOnHandAdjustedEvent creates an on-hand adjusted event
func NewOnHandAdjustedEvent(stockID, productID uuid.UUID, lot *Lot, delta decimal.Decimal) *OnHandAdjustedEvent {
	event := &OnHandAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOnHandAdjusted, "ProductStock", stockID),
		ProductID:       productID,
		Delta:           delta,
	}
	if lot != nil {
		id := lot.ID
		event.LotID = &id
	}
	return event
}

// ReservedCorrectedEvent is emitted when reconciliation rewrites a
// drifted reserved counter
type ReservedCorrectedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	LotID     *uuid.UUID      `json:"lot_id,omitempty"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
}

// NewReservedCorrectedEvent creates a reserved corrected event
func NewReservedCorrectedEvent(stockID, productID uuid.UUID, lot *Lot, before, after decimal.Decimal) *ReservedCorrectedEvent {
	event := &ReservedCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservedCorrected, "ProductStock", stockID),
		ProductID:       productID,
		Before:          before,
		After:           after,
	}
	if lot != nil {
		id := lot.ID
		event.LotID = &id
	}
	return event
}
