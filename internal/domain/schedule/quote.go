package schedule

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// QuoteState mirrors the lifecycle of the external quote document.
// Quotes are owned upstream; the core only reacts to their transitions.
type QuoteState string

const (
	QuoteStateDrafting   QuoteState = "drafting"
	QuoteStateCommitting QuoteState = "committing"
	QuoteStateFulfilling QuoteState = "fulfilling"
	QuoteStateClosed     QuoteState = "closed"
	QuoteStateCancelled  QuoteState = "cancelled"
)

// IsValid checks if the quote state is valid
func (s QuoteState) IsValid() bool {
	switch s {
	case QuoteStateDrafting, QuoteStateCommitting, QuoteStateFulfilling,
		QuoteStateClosed, QuoteStateCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if a transition to the target state is allowed
func (s QuoteState) CanTransitionTo(target QuoteState) bool {
	transitions := map[QuoteState][]QuoteState{
		QuoteStateDrafting:   {QuoteStateCommitting, QuoteStateCancelled},
		QuoteStateCommitting: {QuoteStateFulfilling, QuoteStateCancelled},
		QuoteStateFulfilling: {QuoteStateClosed, QuoteStateCancelled},
		QuoteStateClosed:     {},
		QuoteStateCancelled:  {},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ReservationEffect is what a quote state demands of its reservations
type ReservationEffect string

const (
	EffectNone    ReservationEffect = "none"
	EffectReserve ReservationEffect = "reserve"
	EffectConsume ReservationEffect = "consume"
	EffectRelease ReservationEffect = "release"
)

// ReservationEffectFor maps a quote state to the reservation action it
// triggers: committing reserves, closed consumes what was delivered,
// cancelled releases. Drafting and fulfilling change nothing by themselves.
func ReservationEffectFor(state QuoteState) ReservationEffect {
	switch state {
	case QuoteStateCommitting:
		return EffectReserve
	case QuoteStateClosed:
		return EffectConsume
	case QuoteStateCancelled:
		return EffectRelease
	default:
		return EffectNone
	}
}

// QuoteLineItem is one product line of a quote with its weekly cadence
type QuoteLineItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	QuantityPerWeek decimal.Decimal `json:"quantity_per_week"`
	StartWeek       int             `json:"start_week"`
	EndWeek         int             `json:"end_week"`
}

// Validate checks the line item fields
func (li QuoteLineItem) Validate() error {
	if li.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT_ID", "Line item product ID cannot be empty")
	}
	if li.TotalQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line item total quantity must be positive")
	}
	if li.QuantityPerWeek.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Line item weekly quantity must be positive")
	}
	if li.StartWeek < 0 || li.EndWeek < li.StartWeek {
		return shared.NewDomainError("INVALID_WEEK_RANGE", "Line item week range is invalid")
	}
	return nil
}

// QuoteSnapshot is the slice of the external quote the core needs.
// It is passed in by the caller and never persisted here.
type QuoteSnapshot struct {
	ID        uuid.UUID       `json:"id"`
	State     QuoteState      `json:"state"`
	ClientRef string          `json:"client_ref"`
	LineItems []QuoteLineItem `json:"line_items"`
}

// Validate checks the snapshot fields
func (q QuoteSnapshot) Validate() error {
	if q.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}
	if !q.State.IsValid() {
		return shared.NewDomainError("INVALID_QUOTE_STATE", "Unknown quote state")
	}
	if len(q.LineItems) == 0 {
		return shared.NewDomainError("EMPTY_QUOTE", "Quote has no line items")
	}
	for _, li := range q.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}
