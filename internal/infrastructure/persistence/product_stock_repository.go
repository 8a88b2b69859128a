package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// GormProductStockRepository implements inventory.ProductStockRepository using GORM
type GormProductStockRepository struct {
	db *gorm.DB
}

// NewGormProductStockRepository creates a new product stock repository
func NewGormProductStockRepository(db *gorm.DB) *GormProductStockRepository {
	return &GormProductStockRepository{db: db}
}

// FindByID finds a product stock by its aggregate ID
func (r *GormProductStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	err := r.db.WithContext(ctx).Preload("Lots").First(&stock, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByProductID finds the stock record for a product
func (r *GormProductStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	err := r.db.WithContext(ctx).Preload("Lots").First(&stock, "product_id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByProductIDForUpdate finds the stock record holding a row lock until
// the surrounding transaction commits
func (r *GormProductStockRepository) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	var stock inventory.ProductStock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stock, "product_id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Lots are loaded after the parent row is locked
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_stock_id = ?", stock.ID).
		Find(&stock.Lots).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindAll lists product stocks with pagination
func (r *GormProductStockRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*inventory.ProductStock], error) {
	var total int64
	countQuery := applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.ProductStock{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return shared.Paginated[*inventory.ProductStock]{}, err
	}

	var stocks []*inventory.ProductStock
	query := applyFilter(r.db.WithContext(ctx).Model(&inventory.ProductStock{}).Preload("Lots"), filter)
	if err := query.Find(&stocks).Error; err != nil {
		return shared.Paginated[*inventory.ProductStock]{}, err
	}

	return shared.NewPaginated(stocks, total, filter.Page, filter.PageSize), nil
}

// GetOrCreate finds the stock record for a product or creates an empty one
func (r *GormProductStockRepository) GetOrCreate(ctx context.Context, productID uuid.UUID, lotTracked bool) (*inventory.ProductStock, error) {
	stock, err := r.FindByProductID(ctx, productID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	stock, err = inventory.NewProductStock(productID, lotTracked)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race with a concurrent creator
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).
		Omit("Lots").
		Create(stock).Error; err != nil {
		return nil, err
	}

	return r.FindByProductID(ctx, productID)
}

// Save creates or updates a product stock with its lots
func (r *GormProductStockRepository) Save(ctx context.Context, stock *inventory.ProductStock) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(stock).Error
}

// SaveWithLock saves with optimistic locking. The write only lands when
// the in-memory version is ahead of the stored row, mutators may bump
// the version several times within one transaction.
func (r *GormProductStockRepository) SaveWithLock(ctx context.Context, stock *inventory.ProductStock) error {
	result := r.db.WithContext(ctx).
		Model(stock).
		Where("id = ? AND version < ?", stock.ID, stock.Version).
		Updates(map[string]interface{}{
			"lot_tracked":    stock.LotTracked,
			"stock_on_hand":  stock.StockOnHand,
			"stock_reserved": stock.StockReserved,
			"version":        stock.Version,
			"updated_at":     stock.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Product stock was modified by another transaction")
	}

	for i := range stock.Lots {
		if err := r.db.WithContext(ctx).Save(&stock.Lots[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "lot_tracked":
			query = query.Where("lot_tracked = ?", value)
		case "movement_type":
			query = query.Where("movement_type = ?", value)
		case "source_type":
			query = query.Where("source_type = ?", value)
		case "since":
			query = query.Where("movement_date >= ?", value)
		case "until":
			query = query.Where("movement_date < ?", value)
		}
	}
	return query
}

var _ inventory.ProductStockRepository = (*GormProductStockRepository)(nil)
