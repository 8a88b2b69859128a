package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// StockAllocationService turns a requested quantity into reservations
// across the lots of a product, all-or-nothing: either the full quantity
// is reserved or the aggregate is left untouched.
type StockAllocationService struct{}

// NewStockAllocationService creates a stock allocation service
func NewStockAllocationService() *StockAllocationService {
	return &StockAllocationService{}
}

// Allocate reserves quantity for a quote against the product stock.
// For lot-tracked products the policy picks the lots; the plan is
// validated in full before any lot is touched, so an insufficient
// position fails without side effects.
func (s *StockAllocationService) Allocate(stock *ProductStock, quoteID uuid.UUID, calendarEntryID *uuid.UUID, quantity decimal.Decimal, policy LotSelectionPolicy) ([]*Reservation, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
	}

	if !stock.LotTracked {
		reservation, err := stock.ReserveAggregate(quoteID, calendarEntryID, quantity)
		if err != nil {
			return nil, err
		}
		return []*Reservation{reservation}, nil
	}

	if policy == nil {
		policy = DefaultLotSelectionPolicy()
	}

	plan, err := policy.SelectLots(quantity, stock.AllocatableLots())
	if err != nil {
		return nil, err
	}
	if !plan.IsSatisfied() {
		return nil, shared.ErrInsufficientStock
	}

	reservations := make([]*Reservation, 0, len(plan.Allocations))
	for _, alloc := range plan.Allocations {
		reservation, err := stock.ReserveFromLot(alloc.LotID, quoteID, calendarEntryID, alloc.Quantity)
		if err != nil {
			s.compensate(stock, reservations)
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

// compensate rolls back reservations already applied when a later lot
// in the plan fails
func (s *StockAllocationService) compensate(stock *ProductStock, applied []*Reservation) {
	for i := len(applied) - 1; i >= 0; i-- {
		_, _ = stock.ReleaseReservation(applied[i])
	}
}
