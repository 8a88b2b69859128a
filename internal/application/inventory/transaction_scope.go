package inventory

import (
	"context"

	"github.com/vaxtrack/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// Repository operations inside Execute share one database transaction and
// commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to inventory repositories
// within a transaction.
//
// Aggregate boundary notes:
//   - StockRepo: repository for the ProductStock aggregate root. Lots are
//     child entities persisted through the aggregate, never independently.
//   - ReservationRepo: reservations reference the aggregate but carry their
//     own lifecycle, so they have separate storage for query performance.
//   - MovementRepo: append-only ledger records.
type TransactionalRepositories interface {
	// StockRepo returns the product stock repository scoped to the current transaction
	StockRepo() inventory.ProductStockRepository
	// ReservationRepo returns the reservation repository scoped to the current transaction
	ReservationRepo() inventory.ReservationRepository
	// MovementRepo returns the stock movement repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
}

// NoOpTransactionScope is a transaction scope without real transactions.
// Useful for tests with in-memory repositories.
type NoOpTransactionScope struct {
	stockRepo       inventory.ProductStockRepository
	reservationRepo inventory.ReservationRepository
	movementRepo    inventory.StockMovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	stockRepo inventory.ProductStockRepository,
	reservationRepo inventory.ReservationRepository,
	movementRepo inventory.StockMovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:       stockRepo,
		reservationRepo: reservationRepo,
		movementRepo:    movementRepo,
	}
}

// Execute runs the function directly without a transaction
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the product stock repository
func (s *NoOpTransactionScope) StockRepo() inventory.ProductStockRepository {
	return s.stockRepo
}

// ReservationRepo returns the reservation repository
func (s *NoOpTransactionScope) ReservationRepo() inventory.ReservationRepository {
	return s.reservationRepo
}

// MovementRepo returns the stock movement repository
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}
