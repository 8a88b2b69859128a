package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// DeliveryState represents the delivery progress of a calendar entry
type DeliveryState string

const (
	DeliveryStatePending            DeliveryState = "pending"
	DeliveryStatePartiallyDelivered DeliveryState = "partially_delivered"
	DeliveryStateDelivered          DeliveryState = "delivered"
)

// IsValid checks if the delivery state is valid
func (s DeliveryState) IsValid() bool {
	switch s {
	case DeliveryStatePending, DeliveryStatePartiallyDelivered, DeliveryStateDelivered:
		return true
	}
	return false
}

// splitSortStep spaces split entries within a week. Splits keep the
// week's position in the calendar but sort after their source.
var splitSortStep = decimal.NewFromFloat(0.001)

// CalendarEntry is one scheduled vaccine delivery. Entries are created
// by expanding a quote, mutated by delivery confirmation and splitting,
// and survive quote cancellation for audit.
type CalendarEntry struct {
	shared.BaseAggregateRoot
	QuoteID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	WeekNumber        int             `gorm:"not null"`
	ScheduledDate     time.Time       `gorm:"not null;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DeliveredQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DeliveryState     DeliveryState   `gorm:"type:varchar(30);not null;default:'pending';index"`
	SplitFromID       *uuid.UUID      `gorm:"type:uuid;index"` // Root of the split lineage
	SplitSequence     int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CalendarEntry) TableName() string {
	return "calendar_entries"
}

// NewCalendarEntry creates a pending entry for a quote and product
func NewCalendarEntry(quoteID, productID uuid.UUID, weekNumber int, scheduledDate time.Time, quantity decimal.Decimal) (*CalendarEntry, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Entry quantity must be positive")
	}

	return &CalendarEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		QuoteID:           quoteID,
		ProductID:         productID,
		WeekNumber:        weekNumber,
		ScheduledDate:     scheduledDate,
		Quantity:          quantity,
		DeliveredQuantity: decimal.Zero,
		DeliveryState:     DeliveryStatePending,
	}, nil
}

// SortKey orders entries chronologically: splits of the same week sort
// after their source but before the next week.
func (e *CalendarEntry) SortKey() decimal.Decimal {
	return decimal.NewFromInt(int64(e.WeekNumber)).
		Add(splitSortStep.Mul(decimal.NewFromInt(int64(e.SplitSequence))))
}

// LineageRoot returns the ID of the original entry this one descends from
func (e *CalendarEntry) LineageRoot() uuid.UUID {
	if e.SplitFromID != nil {
		return *e.SplitFromID
	}
	return e.ID
}

// Remaining returns the quantity not yet delivered
func (e *CalendarEntry) Remaining() decimal.Decimal {
	return e.Quantity.Sub(e.DeliveredQuantity)
}

// Split carves quantity off this entry into a new sibling scheduled for
// newDate. nextSequence must be one past the highest sequence in this
// entry's lineage. Total committed quantity is conserved.
func (e *CalendarEntry) Split(quantity decimal.Decimal, newDate time.Time, nextSequence int) (*CalendarEntry, error) {
	if e.DeliveryState == DeliveryStateDelivered {
		return nil, shared.ErrInvalidTransition
	}
	if quantity.LessThanOrEqual(decimal.Zero) || quantity.GreaterThanOrEqual(e.Quantity) {
		return nil, shared.ErrInvalidSplitQuantity
	}
	if e.Remaining().LessThan(quantity) {
		return nil, shared.ErrInvalidSplitQuantity
	}

	sibling, err := NewCalendarEntry(e.QuoteID, e.ProductID, e.WeekNumber, newDate, quantity)
	if err != nil {
		return nil, err
	}
	root := e.LineageRoot()
	sibling.SplitFromID = &root
	sibling.SplitSequence = nextSequence

	e.Quantity = e.Quantity.Sub(quantity)
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewCalendarEntrySplitEvent(e, sibling))
	return sibling, nil
}

// RecordDelivery registers delivered quantity against this entry.
// Moves pending/partially_delivered forward; delivered is terminal.
func (e *CalendarEntry) RecordDelivery(quantity decimal.Decimal) error {
	if e.DeliveryState == DeliveryStateDelivered {
		return shared.ErrInvalidTransition
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Delivered quantity must be positive")
	}
	if e.Remaining().LessThan(quantity) {
		return shared.NewDomainError("QUANTITY_EXCEEDS_ENTRY", "Delivered quantity exceeds the entry's remaining quantity")
	}

	e.DeliveredQuantity = e.DeliveredQuantity.Add(quantity)
	if e.DeliveredQuantity.Equal(e.Quantity) {
		e.DeliveryState = DeliveryStateDelivered
	} else {
		e.DeliveryState = DeliveryStatePartiallyDelivered
	}
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	e.AddDomainEvent(NewDeliveryRecordedEvent(e, quantity))
	return nil
}

// IsDelivered returns true once the full quantity is delivered
func (e *CalendarEntry) IsDelivered() bool {
	return e.DeliveryState == DeliveryStateDelivered
}
