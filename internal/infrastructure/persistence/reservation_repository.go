package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// GormReservationRepository implements inventory.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new reservation repository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	var reservation inventory.Reservation
	err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// FindByQuote finds all reservations for a quote regardless of state
func (r *GormReservationRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]*inventory.Reservation, error) {
	var reservations []*inventory.Reservation
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// FindActiveByQuote finds the active reservations for a quote
func (r *GormReservationRepository) FindActiveByQuote(ctx context.Context, quoteID uuid.UUID) ([]*inventory.Reservation, error) {
	var reservations []*inventory.Reservation
	err := r.db.WithContext(ctx).
		Where("quote_id = ? AND state = ?", quoteID, inventory.ReservationStateActive).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// FindByCalendarEntry finds reservations attached to a calendar entry
func (r *GormReservationRepository) FindByCalendarEntry(ctx context.Context, entryID uuid.UUID) ([]*inventory.Reservation, error) {
	var reservations []*inventory.Reservation
	err := r.db.WithContext(ctx).
		Where("calendar_entry_id = ?", entryID).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// SumActiveByProduct sums active reserved quantity across all lots of a product
func (r *GormReservationRepository) SumActiveByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&inventory.Reservation{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("product_id = ? AND state = ?", productID, inventory.ReservationStateActive).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumActiveByLot sums active reserved quantity per lot for a product
func (r *GormReservationRepository) SumActiveByLot(ctx context.Context, productID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		LotID uuid.UUID
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&inventory.Reservation{}).
		Select("lot_id, COALESCE(SUM(quantity), 0) as total").
		Where("product_id = ? AND state = ? AND lot_id IS NOT NULL", productID, inventory.ReservationStateActive).
		Group("lot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.LotID] = row.Total
	}
	return sums, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *inventory.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

// SaveAll persists a batch of reservations
func (r *GormReservationRepository) SaveAll(ctx context.Context, reservations []*inventory.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(reservations).Error
}

var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
