package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	appinventory "github.com/vaxtrack/backend/internal/application/inventory"
	appscheduling "github.com/vaxtrack/backend/internal/application/scheduling"
	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/schedule"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// GormInventoryTransactionScope implements the inventory application
// TransactionScope over a GORM transaction
type GormInventoryTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormInventoryTransactionScope creates a new inventory transaction scope.
// lockTimeout bounds how long a unit of work may wait on row locks, zero
// means no bound.
func NewGormInventoryTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn inside a transaction, committing on nil and rolling back on error
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	ctx, cancel := withLockTimeout(ctx, s.lockTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormInventoryRepositories{tx: tx})
	})
	return mapLockTimeout(ctx, err)
}

type gormInventoryRepositories struct {
	tx *gorm.DB
}

func (r *gormInventoryRepositories) StockRepo() inventory.ProductStockRepository {
	return NewGormProductStockRepository(r.tx)
}

func (r *gormInventoryRepositories) ReservationRepo() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

func (r *gormInventoryRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// GormSchedulingTransactionScope implements the scheduling application
// TransactionScope over a GORM transaction
type GormSchedulingTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormSchedulingTransactionScope creates a new scheduling transaction scope
func NewGormSchedulingTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormSchedulingTransactionScope {
	return &GormSchedulingTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn inside a transaction, committing on nil and rolling back on error
func (s *GormSchedulingTransactionScope) Execute(ctx context.Context, fn func(repos appscheduling.TransactionalRepositories) error) error {
	ctx, cancel := withLockTimeout(ctx, s.lockTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSchedulingRepositories{tx: tx})
	})
	return mapLockTimeout(ctx, err)
}

type gormSchedulingRepositories struct {
	tx *gorm.DB
}

func (r *gormSchedulingRepositories) StockRepo() inventory.ProductStockRepository {
	return NewGormProductStockRepository(r.tx)
}

func (r *gormSchedulingRepositories) ReservationRepo() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

func (r *gormSchedulingRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormSchedulingRepositories) CalendarRepo() schedule.CalendarEntryRepository {
	return NewGormCalendarEntryRepository(r.tx)
}

func withLockTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// mapLockTimeout reports an exhausted lock wait as Busy so callers can retry
func mapLockTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return shared.ErrBusy
	}
	return err
}

var _ appinventory.TransactionScope = (*GormInventoryTransactionScope)(nil)
var _ appscheduling.TransactionScope = (*GormSchedulingTransactionScope)(nil)
