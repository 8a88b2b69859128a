package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// ReservationState represents the lifecycle state of a reservation
type ReservationState string

const (
	ReservationStateActive   ReservationState = "active"
	ReservationStateUsed     ReservationState = "used"
	ReservationStateReleased ReservationState = "released"
)

// IsValid checks if the reservation state is valid
func (s ReservationState) IsValid() bool {
	switch s {
	case ReservationStateActive, ReservationStateUsed, ReservationStateReleased:
		return true
	}
	return false
}

// Reservation is a claim of quantity against a product (and optionally a
// specific lot) on behalf of a quote. Only active reservations count
// toward the reserved totals; used and released are terminal.
type Reservation struct {
	shared.BaseEntity
	QuoteID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	CalendarEntryID *uuid.UUID       `gorm:"type:uuid;index"`
	ProductID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	LotID           *uuid.UUID       `gorm:"type:uuid;index"` // nil for non-lot-tracked products
	Quantity        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	State           ReservationState `gorm:"type:varchar(20);not null;default:'active';index"`
	StateChangedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "reservations"
}

// NewReservation creates an active reservation
func NewReservation(quoteID, productID uuid.UUID, calendarEntryID, lotID *uuid.UUID, quantity decimal.Decimal) (*Reservation, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}

	return &Reservation{
		BaseEntity:      shared.NewBaseEntity(),
		QuoteID:         quoteID,
		CalendarEntryID: calendarEntryID,
		ProductID:       productID,
		LotID:           lotID,
		Quantity:        quantity,
		State:           ReservationStateActive,
		StateChangedAt:  time.Now(),
	}, nil
}

// IsActive returns true while the reservation still holds stock
func (r *Reservation) IsActive() bool {
	return r.State == ReservationStateActive
}

// Release moves the reservation to released. Releasing an already
// released reservation is a no-op; the bool reports whether state changed.
func (r *Reservation) Release() (bool, error) {
	switch r.State {
	case ReservationStateReleased:
		return false, nil
	case ReservationStateUsed:
		return false, shared.ErrInvalidTransition
	}

	r.State = ReservationStateReleased
	r.StateChangedAt = time.Now()
	r.UpdatedAt = r.StateChangedAt
	return true, nil
}

// MarkUsed moves the reservation to used (delivery confirmed)
func (r *Reservation) MarkUsed() error {
	if r.State != ReservationStateActive {
		return shared.ErrInvalidTransition
	}

	r.State = ReservationStateUsed
	r.StateChangedAt = time.Now()
	r.UpdatedAt = r.StateChangedAt
	return nil
}

// Split carves quantity off this active reservation into a new active
// sibling against the same quote, product and lot. The two quantities
// sum to the original.
func (r *Reservation) Split(quantity decimal.Decimal) (*Reservation, error) {
	if r.State != ReservationStateActive {
		return nil, shared.ErrInvalidTransition
	}
	if quantity.LessThanOrEqual(decimal.Zero) || quantity.GreaterThanOrEqual(r.Quantity) {
		return nil, shared.ErrInvalidSplitQuantity
	}

	sibling, err := NewReservation(r.QuoteID, r.ProductID, r.CalendarEntryID, r.LotID, quantity)
	if err != nil {
		return nil, err
	}

	r.Quantity = r.Quantity.Sub(quantity)
	r.UpdatedAt = time.Now()
	return sibling, nil
}
