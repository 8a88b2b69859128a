package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// MemStockRepository is an in-memory ProductStockRepository
type MemStockRepository struct {
	byProduct map[uuid.UUID]*inventory.ProductStock
}

func NewMemStockRepository() *MemStockRepository {
	return &MemStockRepository{byProduct: make(map[uuid.UUID]*inventory.ProductStock)}
}

func (r *MemStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ProductStock, error) {
	for _, s := range r.byProduct {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *MemStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	if s, ok := r.byProduct[productID]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *MemStockRepository) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	return r.FindByProductID(ctx, productID)
}

func (r *MemStockRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*inventory.ProductStock], error) {
	items := make([]*inventory.ProductStock, 0, len(r.byProduct))
	for _, s := range r.byProduct {
		items = append(items, s)
	}
	return shared.NewPaginated(items, int64(len(items)), 1, len(items)+1), nil
}

func (r *MemStockRepository) GetOrCreate(ctx context.Context, productID uuid.UUID, lotTracked bool) (*inventory.ProductStock, error) {
	if s, ok := r.byProduct[productID]; ok {
		return s, nil
	}
	s, err := inventory.NewProductStock(productID, lotTracked)
	if err != nil {
		return nil, err
	}
	r.byProduct[productID] = s
	return s, nil
}

func (r *MemStockRepository) Save(ctx context.Context, stock *inventory.ProductStock) error {
	r.byProduct[stock.ProductID] = stock
	return nil
}

func (r *MemStockRepository) SaveWithLock(ctx context.Context, stock *inventory.ProductStock) error {
	r.byProduct[stock.ProductID] = stock
	return nil
}

// MemReservationRepository is an in-memory ReservationRepository
type MemReservationRepository struct {
	byID map[uuid.UUID]*inventory.Reservation
}

func NewMemReservationRepository() *MemReservationRepository {
	return &MemReservationRepository{byID: make(map[uuid.UUID]*inventory.Reservation)}
}

func (r *MemReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	if res, ok := r.byID[id]; ok {
		return res, nil
	}
	return nil, shared.ErrNotFound
}

func (r *MemReservationRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]*inventory.Reservation, error) {
	out := make([]*inventory.Reservation, 0)
	for _, res := range r.byID {
		if res.QuoteID == quoteID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *MemReservationRepository) FindActiveByQuote(ctx context.Context, quoteID uuid.UUID) ([]*inventory.Reservation, error) {
	out := make([]*inventory.Reservation, 0)
	for _, res := range r.byID {
		if res.QuoteID == quoteID && res.IsActive() {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *MemReservationRepository) FindByCalendarEntry(ctx context.Context, entryID uuid.UUID) ([]*inventory.Reservation, error) {
	out := make([]*inventory.Reservation, 0)
	for _, res := range r.byID {
		if res.CalendarEntryID != nil && *res.CalendarEntryID == entryID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *MemReservationRepository) SumActiveByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, res := range r.byID {
		if res.ProductID == productID && res.IsActive() {
			sum = sum.Add(res.Quantity)
		}
	}
	return sum, nil
}

func (r *MemReservationRepository) SumActiveByLot(ctx context.Context, productID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, res := range r.byID {
		if res.ProductID == productID && res.IsActive() && res.LotID != nil {
			out[*res.LotID] = out[*res.LotID].Add(res.Quantity)
		}
	}
	return out, nil
}

func (r *MemReservationRepository) Save(ctx context.Context, reservation *inventory.Reservation) error {
	r.byID[reservation.ID] = reservation
	return nil
}

func (r *MemReservationRepository) SaveAll(ctx context.Context, reservations []*inventory.Reservation) error {
	for _, res := range reservations {
		r.byID[res.ID] = res
	}
	return nil
}

// MemMovementRepository is an in-memory StockMovementRepository
type MemMovementRepository struct {
	movements []*inventory.StockMovement
}

func NewMemMovementRepository() *MemMovementRepository {
	return &MemMovementRepository{}
}

func (r *MemMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, movement)
	return nil
}

func (r *MemMovementRepository) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *MemMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*inventory.StockMovement], error) {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), 1, len(out)+1), nil
}

func (r *MemMovementRepository) FindBySource(ctx context.Context, sourceType inventory.MovementSource, sourceID uuid.UUID) ([]*inventory.StockMovement, error) {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.SourceType == sourceType && m.SourceID != nil && *m.SourceID == sourceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemMovementRepository) OfType(movementType inventory.MovementType) []*inventory.StockMovement {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.MovementType == movementType {
			out = append(out, m)
		}
	}
	return out
}
