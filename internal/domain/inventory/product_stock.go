package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// ProductStock is the aggregate root for one product's stock position:
// cached on-hand/reserved totals plus the lots that back them when the
// product is lot-tracked.
type ProductStock struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	LotTracked    bool            `gorm:"not null"`
	StockOnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockReserved decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lots          []Lot           `gorm:"foreignKey:ProductStockID"`
}

// TableName returns the table name for GORM
func (ProductStock) TableName() string {
	return "product_stocks"
}

// NewProductStock creates a new stock record for a product
func NewProductStock(productID uuid.UUID, lotTracked bool) (*ProductStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be empty")
	}

	return &ProductStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		LotTracked:        lotTracked,
		StockOnHand:       decimal.Zero,
		StockReserved:     decimal.Zero,
	}, nil
}

// Available returns the quantity not claimed by active reservations
func (ps *ProductStock) Available() decimal.Decimal {
	return ps.StockOnHand.Sub(ps.StockReserved)
}

// FindLot returns the lot with the given ID, or nil
func (ps *ProductStock) FindLot(lotID uuid.UUID) *Lot {
	for i := range ps.Lots {
		if ps.Lots[i].ID == lotID {
			return &ps.Lots[i]
		}
	}
	return nil
}

// AllocatableLots returns the lots eligible for allocation,
// ordered ascending by ID for a stable lock order.
func (ps *ProductStock) AllocatableLots() []*Lot {
	lots := make([]*Lot, 0, len(ps.Lots))
	for i := range ps.Lots {
		if ps.Lots[i].IsAllocatable() {
			lots = append(lots, &ps.Lots[i])
		}
	}
	sort.Slice(lots, func(i, j int) bool {
		return lots[i].ID.String() < lots[j].ID.String()
	})
	return lots
}

// ReceiveStock records a physical receipt. Lot-tracked products open a
// new lot per receipt; untracked products only move the aggregate total.
func (ps *ProductStock) ReceiveStock(quantity decimal.Decimal, info *LotInfo) (*Lot, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}

	var lot *Lot
	if ps.LotTracked {
		if info == nil {
			return nil, shared.NewDomainError("MISSING_LOT_INFO", "Lot-tracked products require lot details on receipt")
		}
		newLot, err := NewLot(ps.ID, *info, quantity)
		if err != nil {
			return nil, err
		}
		ps.Lots = append(ps.Lots, *newLot)
		lot = &ps.Lots[len(ps.Lots)-1]
	}

	ps.StockOnHand = ps.StockOnHand.Add(quantity)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewStockReceivedEvent(ps.ID, ps.ProductID, quantity, lot))
	return lot, nil
}

// ReserveFromLot claims quantity from a specific lot and records the
// matching reservation. The aggregate reserved total moves in lockstep.
func (ps *ProductStock) ReserveFromLot(lotID uuid.UUID, quoteID uuid.UUID, calendarEntryID *uuid.UUID, quantity decimal.Decimal) (*Reservation, error) {
	lot := ps.FindLot(lotID)
	if lot == nil {
		return nil, shared.ErrNotFound
	}

	if err := lot.Reserve(quantity); err != nil {
		return nil, err
	}

	id := lot.ID
	reservation, err := NewReservation(quoteID, ps.ProductID, calendarEntryID, &id, quantity)
	if err != nil {
		_ = lot.ReleaseReserved(quantity)
		return nil, err
	}

	ps.StockReserved = ps.StockReserved.Add(quantity)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewStockReservedEvent(ps.ID, ps.ProductID, reservation))
	return reservation, nil
}

// ReserveAggregate claims quantity against the product total without a
// lot (non-lot-tracked products).
func (ps *ProductStock) ReserveAggregate(quoteID uuid.UUID, calendarEntryID *uuid.UUID, quantity decimal.Decimal) (*Reservation, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if ps.Available().LessThan(quantity) {
		return nil, shared.ErrInsufficientStock
	}

	reservation, err := NewReservation(quoteID, ps.ProductID, calendarEntryID, nil, quantity)
	if err != nil {
		return nil, err
	}

	ps.StockReserved = ps.StockReserved.Add(quantity)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewStockReservedEvent(ps.ID, ps.ProductID, reservation))
	return reservation, nil
}

// ReleaseReservation returns a reservation's quantity to the available
// pool. Idempotent: an already released reservation changes nothing.
func (ps *ProductStock) ReleaseReservation(reservation *Reservation) (bool, error) {
	changed, err := reservation.Release()
	if err != nil || !changed {
		return changed, err
	}

	if reservation.LotID != nil {
		lot := ps.FindLot(*reservation.LotID)
		if lot == nil {
			return false, shared.ErrNotFound
		}
		if err := lot.ReleaseReserved(reservation.Quantity); err != nil {
			return false, err
		}
	}

	if ps.StockReserved.LessThan(reservation.Quantity) {
		return false, shared.ErrWouldViolateInvariant
	}
	ps.StockReserved = ps.StockReserved.Sub(reservation.Quantity)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewReservationReleasedEvent(ps.ID, ps.ProductID, reservation))
	return true, nil
}

// ConsumeReservation converts a reservation into a physical outflow:
// on-hand and reserved both drop by the reserved quantity.
func (ps *ProductStock) ConsumeReservation(reservation *Reservation) error {
	if err := reservation.MarkUsed(); err != nil {
		return err
	}

	if reservation.LotID != nil {
		lot := ps.FindLot(*reservation.LotID)
		if lot == nil {
			return shared.ErrNotFound
		}
		if err := lot.Consume(reservation.Quantity); err != nil {
			return err
		}
	}

	if ps.StockReserved.LessThan(reservation.Quantity) || ps.StockOnHand.LessThan(reservation.Quantity) {
		return shared.ErrWouldViolateInvariant
	}
	ps.StockOnHand = ps.StockOnHand.Sub(reservation.Quantity)
	ps.StockReserved = ps.StockReserved.Sub(reservation.Quantity)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewReservationConsumedEvent(ps.ID, ps.ProductID, reservation))
	return nil
}

// ConsumePartial consumes only part of a reservation. The reservation is
// split first so the delivered portion becomes used while the remainder
// stays active.
func (ps *ProductStock) ConsumePartial(reservation *Reservation, quantity decimal.Decimal) (*Reservation, error) {
	if quantity.Equal(reservation.Quantity) {
		return reservation, ps.ConsumeReservation(reservation)
	}

	delivered, err := reservation.Split(quantity)
	if err != nil {
		return nil, err
	}
	if err := ps.ConsumeReservation(delivered); err != nil {
		// Undo the split so the reservation is whole again
		reservation.Quantity = reservation.Quantity.Add(quantity)
		return nil, err
	}
	return delivered, nil
}

// AdjustLotOnHand applies a manual correction to a lot and the cached total
func (ps *ProductStock) AdjustLotOnHand(lotID uuid.UUID, delta decimal.Decimal) error {
	lot := ps.FindLot(lotID)
	if lot == nil {
		return shared.ErrNotFound
	}

	if err := lot.AdjustOnHand(delta); err != nil {
		return err
	}

	ps.StockOnHand = ps.StockOnHand.Add(delta)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewOnHandAdjustedEvent(ps.ID, ps.ProductID, lot, delta))
	return nil
}

// AdjustOnHand applies a manual correction to the aggregate total of a
// non-lot-tracked product
func (ps *ProductStock) AdjustOnHand(delta decimal.Decimal) error {
	if ps.LotTracked {
		return shared.NewDomainError("LOT_TRACKED_PRODUCT", "Lot-tracked products are adjusted per lot")
	}

	newOnHand := ps.StockOnHand.Add(delta)
	if newOnHand.IsNegative() || newOnHand.LessThan(ps.StockReserved) {
		return shared.ErrWouldViolateInvariant
	}

	ps.StockOnHand = newOnHand
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewOnHandAdjustedEvent(ps.ID, ps.ProductID, nil, delta))
	return nil
}

// CorrectReserved rewrites the reserved counters from the reservation
// table's actual sums. Only reconciliation calls this.
func (ps *ProductStock) CorrectReserved(aggregateActual decimal.Decimal, lotActuals map[uuid.UUID]decimal.Decimal) error {
	changed := false
	for i := range ps.Lots {
		actual, ok := lotActuals[ps.Lots[i].ID]
		if !ok {
			actual = decimal.Zero
		}
		if !ps.Lots[i].QuantityReserved.Equal(actual) {
			before := ps.Lots[i].QuantityReserved
			if err := ps.Lots[i].SetReserved(actual); err != nil {
				return err
			}
			changed = true
			ps.AddDomainEvent(NewReservedCorrectedEvent(ps.ID, ps.ProductID, &ps.Lots[i], before, actual))
		}
	}

	if !ps.StockReserved.Equal(aggregateActual) {
		if aggregateActual.IsNegative() || aggregateActual.GreaterThan(ps.StockOnHand) {
			return shared.ErrWouldViolateInvariant
		}
		before := ps.StockReserved
		ps.StockReserved = aggregateActual
		changed = true
		ps.AddDomainEvent(NewReservedCorrectedEvent(ps.ID, ps.ProductID, nil, before, aggregateActual))
	}

	if changed {
		ps.UpdatedAt = time.Now()
		ps.IncrementVersion()
	}
	return nil
}

// RetireLot writes off an expired lot, dropping its remaining on-hand
// from the cached total
func (ps *ProductStock) RetireLot(lotID uuid.UUID) (decimal.Decimal, error) {
	lot := ps.FindLot(lotID)
	if lot == nil {
		return decimal.Zero, shared.ErrNotFound
	}

	written := lot.QuantityOnHand
	if err := lot.Retire(); err != nil {
		return decimal.Zero, err
	}

	ps.StockOnHand = ps.StockOnHand.Sub(written)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewOnHandAdjustedEvent(ps.ID, ps.ProductID, lot, written.Neg()))
	return written, nil
}
