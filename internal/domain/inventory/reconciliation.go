package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CorrectionTarget identifies what a reconciliation correction applied to
type CorrectionTarget string

const (
	CorrectionTargetProduct CorrectionTarget = "product"
	CorrectionTargetLot     CorrectionTarget = "lot"
)

// Correction records one reserved counter that drifted from the
// reservation table and was rewritten
type Correction struct {
	TargetType CorrectionTarget `json:"target_type"`
	TargetID   uuid.UUID        `json:"target_id"`
	ProductID  uuid.UUID        `json:"product_id"`
	Before     decimal.Decimal  `json:"before"`
	After      decimal.Decimal  `json:"after"`
}

// ReconciliationReport summarizes one reconciliation run
type ReconciliationReport struct {
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Scope       string       `json:"scope"` // "all" or a product ID
	Checked     int          `json:"checked"`
	Corrections []Correction `json:"corrections"`
}

// HasDrift returns true if any counter needed correction
func (r *ReconciliationReport) HasDrift() bool {
	return len(r.Corrections) > 0
}

// ReconciliationService recomputes reserved counters from active
// reservations. It only ever touches reserved values; on-hand is
// physical truth and is never rewritten here.
type ReconciliationService struct{}

// NewReconciliationService creates a reconciliation service
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{}
}

// ReconcileStock compares the aggregate's reserved counters against the
// sums of active reservations and rewrites any that drifted. Returns
// the corrections applied; an empty slice means the stock was clean.
func (s *ReconciliationService) ReconcileStock(stock *ProductStock, activeByLot map[uuid.UUID]decimal.Decimal, activeAggregate decimal.Decimal) ([]Correction, error) {
	corrections := make([]Correction, 0)

	for i := range stock.Lots {
		lot := &stock.Lots[i]
		actual, ok := activeByLot[lot.ID]
		if !ok {
			actual = decimal.Zero
		}
		if !lot.QuantityReserved.Equal(actual) {
			corrections = append(corrections, Correction{
				TargetType: CorrectionTargetLot,
				TargetID:   lot.ID,
				ProductID:  stock.ProductID,
				Before:     lot.QuantityReserved,
				After:      actual,
			})
		}
	}

	if !stock.StockReserved.Equal(activeAggregate) {
		corrections = append(corrections, Correction{
			TargetType: CorrectionTargetProduct,
			TargetID:   stock.ID,
			ProductID:  stock.ProductID,
			Before:     stock.StockReserved,
			After:      activeAggregate,
		})
	}

	if len(corrections) == 0 {
		return corrections, nil
	}

	if err := stock.CorrectReserved(activeAggregate, activeByLot); err != nil {
		return nil, err
	}
	return corrections, nil
}
