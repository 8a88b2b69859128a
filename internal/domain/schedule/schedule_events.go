package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeCalendarEntrySplit = "schedule.calendar_entry_split"
	EventTypeDeliveryRecorded   = "schedule.delivery_recorded"
)

// CalendarEntrySplitEvent is emitted when an entry is split
type CalendarEntrySplitEvent struct {
	shared.BaseDomainEvent
	QuoteID        uuid.UUID       `json:"quote_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	NewEntryID     uuid.UUID       `json:"new_entry_id"`
	SplitQuantity  decimal.Decimal `json:"split_quantity"`
	NewScheduled   time.Time       `json:"new_scheduled_date"`
	SplitSequence  int             `json:"split_sequence"`
	SourceQuantity decimal.Decimal `json:"source_quantity"`
}

// NewCalendarEntrySplitEvent creates a calendar entry split event
func NewCalendarEntrySplitEvent(source, sibling *CalendarEntry) *CalendarEntrySplitEvent {
	return &CalendarEntrySplitEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCalendarEntrySplit, "CalendarEntry", source.ID),
		QuoteID:         source.QuoteID,
		ProductID:       source.ProductID,
		NewEntryID:      sibling.ID,
		SplitQuantity:   sibling.Quantity,
		NewScheduled:    sibling.ScheduledDate,
		SplitSequence:   sibling.SplitSequence,
		SourceQuantity:  source.Quantity,
	}
}

// DeliveryRecordedEvent is emitted when delivery is confirmed on an entry
type DeliveryRecordedEvent struct {
	shared.BaseDomainEvent
	QuoteID           uuid.UUID       `json:"quote_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity"`
	TotalDelivered    decimal.Decimal `json:"total_delivered"`
	DeliveryState     DeliveryState   `json:"delivery_state"`
}

// NewDeliveryRecordedEvent creates a delivery recorded event
func NewDeliveryRecordedEvent(entry *CalendarEntry, quantity decimal.Decimal) *DeliveryRecordedEvent {
	return &DeliveryRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeDeliveryRecorded, "CalendarEntry", entry.ID),
		QuoteID:           entry.QuoteID,
		ProductID:         entry.ProductID,
		DeliveredQuantity: quantity,
		TotalDelivered:    entry.DeliveredQuantity,
		DeliveryState:     entry.DeliveryState,
	}
}
