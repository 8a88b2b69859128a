package scheduling

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/schedule"
)

// ReserveForQuoteRequest carries the quote snapshot to reserve for
type ReserveForQuoteRequest struct {
	QuoteID        uuid.UUID                `json:"quote_id"`
	ClientRef      string                   `json:"client_ref"`
	LineItems      []QuoteLineItemRequest   `json:"line_items" binding:"required,min=1,dive"`
	Policy         string                   `json:"policy" binding:"omitempty,oneof=FEFO FIFO"`
	IdempotencyKey string                   `json:"-"`
}

// QuoteLineItemRequest is one product line of a reservation request
type QuoteLineItemRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	TotalQuantity   decimal.Decimal `json:"total_quantity" binding:"required"`
	QuantityPerWeek decimal.Decimal `json:"quantity_per_week" binding:"required"`
	StartWeek       int             `json:"start_week" binding:"min=0"`
	EndWeek         int             `json:"end_week" binding:"min=0"`
}

// ToSnapshot converts the request to a domain quote snapshot
func (r ReserveForQuoteRequest) ToSnapshot() schedule.QuoteSnapshot {
	items := make([]schedule.QuoteLineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		items = append(items, schedule.QuoteLineItem{
			ProductID:       li.ProductID,
			TotalQuantity:   li.TotalQuantity,
			QuantityPerWeek: li.QuantityPerWeek,
			StartWeek:       li.StartWeek,
			EndWeek:         li.EndWeek,
		})
	}
	return schedule.QuoteSnapshot{
		ID:        r.QuoteID,
		State:     schedule.QuoteStateCommitting,
		ClientRef: r.ClientRef,
		LineItems: items,
	}
}

// CalendarEntryResponse represents a calendar entry in API responses
type CalendarEntryResponse struct {
	ID                uuid.UUID       `json:"id"`
	QuoteID           uuid.UUID       `json:"quote_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	WeekNumber        int             `json:"week_number"`
	SortKey           decimal.Decimal `json:"sort_key"`
	ScheduledDate     time.Time       `json:"scheduled_date"`
	Quantity          decimal.Decimal `json:"quantity"`
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity"`
	DeliveryState     string          `json:"delivery_state"`
	SplitFromID       *uuid.UUID      `json:"split_from_id,omitempty"`
	SplitSequence     int             `json:"split_sequence"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID              uuid.UUID       `json:"id"`
	QuoteID         uuid.UUID       `json:"quote_id"`
	CalendarEntryID *uuid.UUID      `json:"calendar_entry_id,omitempty"`
	ProductID       uuid.UUID       `json:"product_id"`
	LotID           *uuid.UUID      `json:"lot_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	State           string          `json:"state"`
	StateChangedAt  time.Time       `json:"state_changed_at"`
}

// ReserveForQuoteResult is the outcome of reserving a quote
type ReserveForQuoteResult struct {
	Calendar     []CalendarEntryResponse `json:"calendar"`
	Reservations []ReservationResponse   `json:"reservations"`
	Replayed     bool                    `json:"replayed"`
}

// ReleaseForQuoteResult lists the reservations released for a quote
type ReleaseForQuoteResult struct {
	Released []ReservationResponse `json:"released"`
}

// ConfirmDeliveryRequest confirms a (possibly partial) delivery
type ConfirmDeliveryRequest struct {
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity" binding:"required"`
	DeliveryID        *uuid.UUID      `json:"delivery_id"`
}

// ConfirmDeliveryResult is the outcome of a delivery confirmation
type ConfirmDeliveryResult struct {
	Entry          CalendarEntryResponse  `json:"entry"`
	RemainderEntry *CalendarEntryResponse `json:"remainder_entry,omitempty"`
	Used           []ReservationResponse  `json:"used"`
}

// SplitEntryRequest splits a calendar entry
type SplitEntryRequest struct {
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
	NewScheduledDate time.Time       `json:"new_scheduled_date" binding:"required"`
}

// SplitEntryResult returns the reduced source and the new sibling
type SplitEntryResult struct {
	Original CalendarEntryResponse `json:"original"`
	NewEntry CalendarEntryResponse `json:"new_entry"`
}

// ApplyQuoteStateRequest drives the quote-state reservation mapping
type ApplyQuoteStateRequest struct {
	QuoteID   uuid.UUID              `json:"quote_id"`
	State     string                 `json:"state" binding:"required,oneof=drafting committing fulfilling closed cancelled"`
	ClientRef string                 `json:"client_ref"`
	LineItems []QuoteLineItemRequest `json:"line_items" binding:"omitempty,dive"`
}

// ApplyQuoteStateResult describes the action taken for a state change
type ApplyQuoteStateResult struct {
	Effect       string                  `json:"effect"`
	Calendar     []CalendarEntryResponse `json:"calendar,omitempty"`
	Reservations []ReservationResponse   `json:"reservations,omitempty"`
}

// ToCalendarEntryResponse converts a calendar entry to a response
func ToCalendarEntryResponse(e *schedule.CalendarEntry) CalendarEntryResponse {
	return CalendarEntryResponse{
		ID:                e.ID,
		QuoteID:           e.QuoteID,
		ProductID:         e.ProductID,
		WeekNumber:        e.WeekNumber,
		SortKey:           e.SortKey(),
		ScheduledDate:     e.ScheduledDate,
		Quantity:          e.Quantity,
		DeliveredQuantity: e.DeliveredQuantity,
		DeliveryState:     string(e.DeliveryState),
		SplitFromID:       e.SplitFromID,
		SplitSequence:     e.SplitSequence,
	}
}

// ToReservationResponse converts a reservation to a response
func ToReservationResponse(r *inventory.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		QuoteID:         r.QuoteID,
		CalendarEntryID: r.CalendarEntryID,
		ProductID:       r.ProductID,
		LotID:           r.LotID,
		Quantity:        r.Quantity,
		State:           string(r.State),
		StateChangedAt:  r.StateChangedAt,
	}
}
