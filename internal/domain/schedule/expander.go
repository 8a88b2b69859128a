package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// Expander turns quote line items into dated calendar entries.
// Week numbers are offsets from the week containing the reference time.
type Expander struct{}

// NewExpander creates a calendar expander
func NewExpander() *Expander {
	return &Expander{}
}

// Expand produces one entry per week for each line item, each carrying
// min(quantityPerWeek, remaining), until the quantity is exhausted.
// Fails with ScheduleOverflow when the week range cannot absorb the
// total quantity; no entries are returned in that case.
func (x *Expander) Expand(now time.Time, quoteID uuid.UUID, lineItems []QuoteLineItem) ([]*CalendarEntry, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}

	weekStart := StartOfISOWeek(now)
	entries := make([]*CalendarEntry, 0)

	for _, item := range lineItems {
		if err := item.Validate(); err != nil {
			return nil, err
		}

		// Capacity check first so overflow never leaves partial output
		weeks := int64(item.EndWeek - item.StartWeek + 1)
		capacity := item.QuantityPerWeek.Mul(decimal.NewFromInt(weeks))
		if capacity.LessThan(item.TotalQuantity) {
			return nil, shared.ErrScheduleOverflow
		}

		remaining := item.TotalQuantity
		for week := item.StartWeek; week <= item.EndWeek && remaining.GreaterThan(decimal.Zero); week++ {
			qty := decimal.Min(item.QuantityPerWeek, remaining)
			scheduledDate := weekStart.AddDate(0, 0, week*7)

			entry, err := NewCalendarEntry(quoteID, item.ProductID, week, scheduledDate, qty)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			remaining = remaining.Sub(qty)
		}
	}

	return entries, nil
}

// StartOfISOWeek returns the Monday 00:00 of the week containing t
func StartOfISOWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding ISO week
	}
	return t.AddDate(0, 0, 1-weekday)
}
