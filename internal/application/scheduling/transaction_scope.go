package scheduling

import (
	"context"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/schedule"
)

// TransactionScope provides transactional access to the repositories the
// scheduling flows touch. A quote reservation spans calendar entries,
// product stocks, reservations and ledger lines, and must commit or roll
// back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction
type TransactionalRepositories interface {
	// StockRepo returns the product stock repository scoped to the current transaction
	StockRepo() inventory.ProductStockRepository
	// ReservationRepo returns the reservation repository scoped to the current transaction
	ReservationRepo() inventory.ReservationRepository
	// MovementRepo returns the stock movement repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
	// CalendarRepo returns the calendar entry repository scoped to the current transaction
	CalendarRepo() schedule.CalendarEntryRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for tests with in-memory repositories.
type NoOpTransactionScope struct {
	stockRepo       inventory.ProductStockRepository
	reservationRepo inventory.ReservationRepository
	movementRepo    inventory.StockMovementRepository
	calendarRepo    schedule.CalendarEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	stockRepo inventory.ProductStockRepository,
	reservationRepo inventory.ReservationRepository,
	movementRepo inventory.StockMovementRepository,
	calendarRepo schedule.CalendarEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:       stockRepo,
		reservationRepo: reservationRepo,
		movementRepo:    movementRepo,
		calendarRepo:    calendarRepo,
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

// CalendarRepo returns the calendar entry repository
func (s *NoOpTransactionScope) CalendarRepo() schedule.CalendarEntryRepository {
	return s.calendarRepo
}
