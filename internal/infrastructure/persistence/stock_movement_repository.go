package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM.
// The movement ledger is append-only, rows are never updated or deleted.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new stock movement repository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement line to the ledger
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// CreateBatch appends a batch of movement lines
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// FindByProduct lists ledger lines for a product with pagination
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*inventory.StockMovement], error) {
	base := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).Where("product_id = ?", productID)

	var total int64
	if err := applyFilterWithoutPagination(base.Session(&gorm.Session{}), filter).Count(&total).Error; err != nil {
		return shared.Paginated[*inventory.StockMovement]{}, err
	}

	var movements []*inventory.StockMovement
	if err := applyFilter(base.Session(&gorm.Session{}), filter).Find(&movements).Error; err != nil {
		return shared.Paginated[*inventory.StockMovement]{}, err
	}

	return shared.NewPaginated(movements, total, filter.Page, filter.PageSize), nil
}

// FindBySource lists ledger lines produced by a specific source document
func (r *GormStockMovementRepository) FindBySource(ctx context.Context, sourceType inventory.MovementSource, sourceID uuid.UUID) ([]*inventory.StockMovement, error) {
	var movements []*inventory.StockMovement
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("movement_date ASC").
		Find(&movements).Error
	return movements, err
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
