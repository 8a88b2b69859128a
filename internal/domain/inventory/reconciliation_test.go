package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationService(t *testing.T) {
	svc := NewReconciliationService()

	t.Run("clean stock yields no corrections", func(t *testing.T) {
		stock := newLotTrackedStock(t)
		lot := receiveLot(t, stock, "LOT-A", 100, nil)
		res, err := stock.ReserveFromLot(lot.ID, uuid.New(), nil, decimal.NewFromInt(30))
		require.NoError(t, err)

		corrections, err := svc.ReconcileStock(stock,
			map[uuid.UUID]decimal.Decimal{lot.ID: res.Quantity},
			res.Quantity)
		require.NoError(t, err)
		assert.Empty(t, corrections)
	})

	t.Run("drifted counters are rewritten", func(t *testing.T) {
		stock := newLotTrackedStock(t)
		lot := receiveLot(t, stock, "LOT-A", 100, nil)

		// Counters claim 50 reserved but no active reservations back it
		stock.StockReserved = decimal.NewFromInt(50)
		stock.FindLot(lot.ID).QuantityReserved = decimal.NewFromInt(50)

		corrections, err := svc.ReconcileStock(stock, map[uuid.UUID]decimal.Decimal{}, decimal.Zero)
		require.NoError(t, err)
		require.Len(t, corrections, 2)

		assert.True(t, stock.StockReserved.IsZero())
		assert.True(t, stock.FindLot(lot.ID).QuantityReserved.IsZero())

		byTarget := map[CorrectionTarget]Correction{}
		for _, c := range corrections {
			byTarget[c.TargetType] = c
		}
		assert.True(t, byTarget[CorrectionTargetLot].Before.Equal(decimal.NewFromInt(50)))
		assert.True(t, byTarget[CorrectionTargetProduct].After.IsZero())
	})

	t.Run("reconciliation is idempotent", func(t *testing.T) {
		stock := newLotTrackedStock(t)
		lot := receiveLot(t, stock, "LOT-A", 100, nil)
		stock.StockReserved = decimal.NewFromInt(50)
		stock.FindLot(lot.ID).QuantityReserved = decimal.NewFromInt(50)

		first, err := svc.ReconcileStock(stock, map[uuid.UUID]decimal.Decimal{}, decimal.Zero)
		require.NoError(t, err)
		require.NotEmpty(t, first)

		second, err := svc.ReconcileStock(stock, map[uuid.UUID]decimal.Decimal{}, decimal.Zero)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("on-hand is never touched", func(t *testing.T) {
		stock := newLotTrackedStock(t)
		lot := receiveLot(t, stock, "LOT-A", 100, nil)
		stock.StockReserved = decimal.NewFromInt(10)

		_, err := svc.ReconcileStock(stock, map[uuid.UUID]decimal.Decimal{}, decimal.Zero)
		require.NoError(t, err)

		assert.True(t, stock.StockOnHand.Equal(decimal.NewFromInt(100)))
		assert.True(t, stock.FindLot(lot.ID).QuantityOnHand.Equal(decimal.NewFromInt(100)))
	})
}
