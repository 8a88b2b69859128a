package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

func TestReconciliationServiceReconcile(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture, onHand, drift int64) uuid.UUID {
		t.Helper()
		productID := uuid.New()
		resp, err := f.service.ReceiveStock(ctx, ReceiveStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(onHand),
			LotCode:   "VAX-001",
		})
		require.NoError(t, err)

		if drift != 0 {
			stock, _ := f.stocks.FindByProductID(ctx, productID)
			stock.StockReserved = decimal.NewFromInt(drift)
			stock.FindLot(resp.Lots[0].ID).QuantityReserved = decimal.NewFromInt(drift)
		}
		return productID
	}

	t.Run("repairs drift and writes correction movements", func(t *testing.T) {
		f := newFixture(t)
		productID := seed(t, f, 100, 30)
		svc := NewReconciliationService(f.service.scope, nil)

		report, err := svc.Reconcile(ctx, &productID)
		require.NoError(t, err)
		assert.True(t, report.HasDrift())
		assert.Len(t, report.Corrections, 2)
		assert.Equal(t, 1, report.Checked)

		stock, _ := f.stocks.FindByProductID(ctx, productID)
		assert.True(t, stock.StockReserved.IsZero())

		corrections := f.movements.OfType(inventory.MovementTypeCorrection)
		assert.Len(t, corrections, 2)
		for _, m := range corrections {
			assert.Equal(t, inventory.MovementSourceReconciliation, m.SourceType)
		}
	})

	t.Run("clean counters report no drift", func(t *testing.T) {
		f := newFixture(t)
		productID := seed(t, f, 100, 0)
		svc := NewReconciliationService(f.service.scope, nil)

		report, err := svc.Reconcile(ctx, &productID)
		require.NoError(t, err)
		assert.False(t, report.HasDrift())
		assert.Empty(t, f.movements.OfType(inventory.MovementTypeCorrection))
	})

	t.Run("second run after repair reports nothing", func(t *testing.T) {
		f := newFixture(t)
		productID := seed(t, f, 100, 30)
		svc := NewReconciliationService(f.service.scope, nil)

		first, err := svc.Reconcile(ctx, &productID)
		require.NoError(t, err)
		require.True(t, first.HasDrift())

		second, err := svc.Reconcile(ctx, &productID)
		require.NoError(t, err)
		assert.False(t, second.HasDrift())
	})

	t.Run("nil scope reconciles every product", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f, 100, 20)
		seed(t, f, 50, 0)
		svc := NewReconciliationService(f.service.scope, nil)

		report, err := svc.Reconcile(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Checked)
		assert.Len(t, report.Corrections, 2)
	})

	t.Run("active reservations are the source of truth", func(t *testing.T) {
		f := newFixture(t)
		productID := uuid.New()
		resp, err := f.service.ReceiveStock(ctx, ReceiveStockRequest{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(100),
			LotCode:   "VAX-001",
		})
		require.NoError(t, err)

		stock, _ := f.stocks.FindByProductID(ctx, productID)
		res, err := stock.ReserveFromLot(resp.Lots[0].ID, uuid.New(), nil, decimal.NewFromInt(25))
		require.NoError(t, err)
		require.NoError(t, f.reservations.Save(ctx, res))

		// Counters drift above the active sum
		stock.StockReserved = decimal.NewFromInt(60)

		svc := NewReconciliationService(f.service.scope, nil)
		report, err := svc.Reconcile(ctx, &productID)
		require.NoError(t, err)
		require.True(t, report.HasDrift())

		assert.True(t, stock.StockReserved.Equal(decimal.NewFromInt(25)))
	})

	t.Run("concurrent run is rejected with busy", func(t *testing.T) {
		f := newFixture(t)
		productID := seed(t, f, 100, 0)

		blocker := make(chan struct{})
		scope := &blockingScope{inner: f.service.scope, release: blocker, entered: make(chan struct{})}
		svc := NewReconciliationService(scope, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Reconcile(ctx, &productID)
		}()

		<-scope.entered
		_, err := svc.Reconcile(ctx, &productID)
		assert.ErrorIs(t, err, shared.ErrBusy)

		close(blocker)
		wg.Wait()
	})
}

// blockingScope parks the first Execute call until released, so a test
// can observe the single-flight guard
type blockingScope struct {
	inner   TransactionScope
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *blockingScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.inner.Execute(ctx, fn)
}
