package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// ProductStockRepository persists product stock aggregates
type ProductStockRepository interface {
	// FindByID retrieves a stock record with its lots
	FindByID(ctx context.Context, id uuid.UUID) (*ProductStock, error)
	// FindByProductID retrieves the stock record for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	// FindByProductIDForUpdate retrieves and row-locks the stock record
	// and its lots; only valid inside a transaction scope
	FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	// FindAll retrieves stock records with filtering
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*ProductStock], error)
	// GetOrCreate returns the stock record for a product, creating an
	// empty one if none exists
	GetOrCreate(ctx context.Context, productID uuid.UUID, lotTracked bool) (*ProductStock, error)
	// Save persists a stock record and its lots
	Save(ctx context.Context, stock *ProductStock) error
	// SaveWithLock persists with optimistic lock checking
	SaveWithLock(ctx context.Context, stock *ProductStock) error
}

// ReservationRepository persists reservations
type ReservationRepository interface {
	// FindByID retrieves a reservation
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// FindByQuote retrieves all reservations for a quote
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]*Reservation, error)
	// FindActiveByQuote retrieves the active reservations for a quote
	FindActiveByQuote(ctx context.Context, quoteID uuid.UUID) ([]*Reservation, error)
	// FindByCalendarEntry retrieves reservations tied to a calendar entry
	FindByCalendarEntry(ctx context.Context, entryID uuid.UUID) ([]*Reservation, error)
	// SumActiveByProduct returns the total active reserved quantity per product
	SumActiveByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	// SumActiveByLot returns the active reserved quantity per lot for a product
	SumActiveByLot(ctx context.Context, productID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	// Save persists a reservation
	Save(ctx context.Context, reservation *Reservation) error
	// SaveAll persists a batch of reservations
	SaveAll(ctx context.Context, reservations []*Reservation) error
}

// StockMovementRepository persists the append-only movement ledger
type StockMovementRepository interface {
	// Create appends a movement line
	Create(ctx context.Context, movement *StockMovement) error
	// CreateBatch appends movement lines in one write
	CreateBatch(ctx context.Context, movements []*StockMovement) error
	// FindByProduct retrieves movements for a product with filtering
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockMovement], error)
	// FindBySource retrieves the movements caused by a source document
	FindBySource(ctx context.Context, sourceType MovementSource, sourceID uuid.UUID) ([]*StockMovement, error)
}
