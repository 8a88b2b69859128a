package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// ReconciliationService recomputes reserved counters from active
// reservations and repairs drift. Only one pass may run at a time;
// a concurrent call fails with Busy instead of queueing.
type ReconciliationService struct {
	scope     TransactionScope
	reconcile *inventory.ReconciliationService
	logger    *zap.Logger
	running   sync.Mutex
}

// NewReconciliationService creates a reconciliation service
func NewReconciliationService(scope TransactionScope, log *zap.Logger) *ReconciliationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconciliationService{
		scope:     scope,
		reconcile: inventory.NewReconciliationService(),
		logger:    log,
	}
}

// Reconcile runs one reconciliation pass. A nil productID reconciles
// every product; otherwise only the given product. Safe to re-run: a
// second pass over clean counters reports zero corrections.
func (s *ReconciliationService) Reconcile(ctx context.Context, productID *uuid.UUID) (*inventory.ReconciliationReport, error) {
	if !s.running.TryLock() {
		return nil, shared.ErrBusy
	}
	defer s.running.Unlock()

	report := &inventory.ReconciliationReport{
		StartedAt:   time.Now(),
		Scope:       "all",
		Corrections: make([]inventory.Correction, 0),
	}
	if productID != nil {
		report.Scope = productID.String()
	}

	targets, err := s.collectTargets(ctx, productID)
	if err != nil {
		return nil, err
	}

	for _, target := range targets {
		// One short transaction per product keeps lock hold times bounded
		corrections, err := s.reconcileProduct(ctx, target)
		if err != nil {
			return nil, err
		}
		report.Checked++
		report.Corrections = append(report.Corrections, corrections...)
	}

	report.FinishedAt = time.Now()
	if report.HasDrift() {
		s.logger.Warn("reconciliation corrected drifted counters",
			zap.Int("checked", report.Checked),
			zap.Int("corrections", len(report.Corrections)))
	} else {
		s.logger.Debug("reconciliation found no drift", zap.Int("checked", report.Checked))
	}
	return report, nil
}

func (s *ReconciliationService) collectTargets(ctx context.Context, productID *uuid.UUID) ([]uuid.UUID, error) {
	if productID != nil {
		return []uuid.UUID{*productID}, nil
	}

	var targets []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		filter := shared.DefaultFilter()
		filter.PageSize = 500
		for {
			page, err := repos.StockRepo().FindAll(ctx, filter)
			if err != nil {
				return err
			}
			for _, stock := range page.Items {
				targets = append(targets, stock.ProductID)
			}
			if filter.Page >= page.TotalPages {
				return nil
			}
			filter.Page++
		}
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func (s *ReconciliationService) reconcileProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Correction, error) {
	var corrections []inventory.Correction

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		activeAggregate, err := repos.ReservationRepo().SumActiveByProduct(ctx, productID)
		if err != nil {
			return err
		}
		activeByLot, err := repos.ReservationRepo().SumActiveByLot(ctx, productID)
		if err != nil {
			return err
		}

		corrections, err = s.reconcile.ReconcileStock(stock, activeByLot, activeAggregate)
		if err != nil {
			return err
		}
		if len(corrections) == 0 {
			return nil
		}

		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}

		movements := make([]*inventory.StockMovement, 0, len(corrections))
		for _, c := range corrections {
			movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
				inventory.MovementTypeCorrection, inventory.MovementSourceReconciliation,
				c.After.Sub(c.Before).Abs(), c.Before, c.After)
			if err != nil {
				return err
			}
			if c.TargetType == inventory.CorrectionTargetLot {
				movement.WithLot(c.TargetID)
			}
			movement.WithReason("reserved counter drift repair")
			movements = append(movements, movement)
		}
		return repos.MovementRepo().CreateBatch(ctx, movements)
	})
	if err != nil {
		return nil, err
	}
	return corrections, nil
}
