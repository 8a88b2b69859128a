package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyLot(t *testing.T, code string, onHand int64, expiry *time.Time) *Lot {
	t.Helper()
	lot, err := NewLot(uuid.New(), LotInfo{LotCode: code, Expiry: expiry}, decimal.NewFromInt(onHand))
	require.NoError(t, err)
	return lot
}

func daysFromNow(d int) *time.Time {
	ts := time.Now().Add(time.Duration(d) * 24 * time.Hour)
	return &ts
}

func TestFEFOPolicy(t *testing.T) {
	policy := &FEFOPolicy{}

	t.Run("drains earliest expiry first", func(t *testing.T) {
		late := policyLot(t, "LATE", 100, daysFromNow(90))
		early := policyLot(t, "EARLY", 30, daysFromNow(10))

		plan, err := policy.SelectLots(decimal.NewFromInt(50), []*Lot{late, early})
		require.NoError(t, err)
		require.True(t, plan.IsSatisfied())
		require.Len(t, plan.Allocations, 2)

		assert.Equal(t, "EARLY", plan.Allocations[0].LotCode)
		assert.True(t, plan.Allocations[0].Quantity.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, "LATE", plan.Allocations[1].LotCode)
		assert.True(t, plan.Allocations[1].Quantity.Equal(decimal.NewFromInt(20)))
	})

	t.Run("lots without expiry sort last", func(t *testing.T) {
		open := policyLot(t, "NOEXP", 100, nil)
		dated := policyLot(t, "DATED", 100, daysFromNow(30))

		plan, err := policy.SelectLots(decimal.NewFromInt(120), []*Lot{open, dated})
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 2)
		assert.Equal(t, "DATED", plan.Allocations[0].LotCode)
		assert.Equal(t, "NOEXP", plan.Allocations[1].LotCode)
	})

	t.Run("expired and retired lots are skipped", func(t *testing.T) {
		expired := policyLot(t, "EXPIRED", 100, daysFromNow(-1))
		retired := policyLot(t, "RETIRED", 100, nil)
		require.NoError(t, retired.Retire())
		ok := policyLot(t, "OK", 40, daysFromNow(30))

		plan, err := policy.SelectLots(decimal.NewFromInt(40), []*Lot{expired, retired, ok})
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, "OK", plan.Allocations[0].LotCode)
	})

	t.Run("reports shortfall without partial claims", func(t *testing.T) {
		small := policyLot(t, "SMALL", 10, daysFromNow(30))

		plan, err := policy.SelectLots(decimal.NewFromInt(25), []*Lot{small})
		require.NoError(t, err)
		assert.False(t, plan.IsSatisfied())
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(15)))
		// Selection is a pure plan, lot counters are untouched
		assert.True(t, small.QuantityReserved.IsZero())
	})

	t.Run("respects existing reservations", func(t *testing.T) {
		lot := policyLot(t, "L", 100, daysFromNow(30))
		require.NoError(t, lot.Reserve(decimal.NewFromInt(80)))

		plan, err := policy.SelectLots(decimal.NewFromInt(30), []*Lot{lot})
		require.NoError(t, err)
		assert.False(t, plan.IsSatisfied())
		assert.True(t, plan.TotalSelected.Equal(decimal.NewFromInt(20)))
	})
}

func TestFIFOPolicy(t *testing.T) {
	policy := &FIFOPolicy{}

	t.Run("drains oldest receipt first", func(t *testing.T) {
		older := policyLot(t, "OLDER", 20, nil)
		older.CreatedAt = time.Now().Add(-48 * time.Hour)
		newer := policyLot(t, "NEWER", 100, nil)

		plan, err := policy.SelectLots(decimal.NewFromInt(50), []*Lot{newer, older})
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 2)
		assert.Equal(t, "OLDER", plan.Allocations[0].LotCode)
		assert.Equal(t, "NEWER", plan.Allocations[1].LotCode)
	})
}

func TestPinnedPolicy(t *testing.T) {
	t.Run("allocates exactly the pinned quantities", func(t *testing.T) {
		a := policyLot(t, "A", 100, nil)
		b := policyLot(t, "B", 100, nil)
		policy := &PinnedPolicy{Pins: map[uuid.UUID]decimal.Decimal{
			a.ID: decimal.NewFromInt(30),
			b.ID: decimal.NewFromInt(20),
		}}

		plan, err := policy.SelectLots(decimal.NewFromInt(50), []*Lot{a, b})
		require.NoError(t, err)
		assert.True(t, plan.IsSatisfied())
		assert.Len(t, plan.Allocations, 2)
	})

	t.Run("pin exceeding availability fails", func(t *testing.T) {
		a := policyLot(t, "A", 10, nil)
		policy := &PinnedPolicy{Pins: map[uuid.UUID]decimal.Decimal{a.ID: decimal.NewFromInt(30)}}

		_, err := policy.SelectLots(decimal.NewFromInt(30), []*Lot{a})
		require.Error(t, err)
	})

	t.Run("pins must sum to requested", func(t *testing.T) {
		a := policyLot(t, "A", 100, nil)
		policy := &PinnedPolicy{Pins: map[uuid.UUID]decimal.Decimal{a.ID: decimal.NewFromInt(30)}}

		_, err := policy.SelectLots(decimal.NewFromInt(50), []*Lot{a})
		require.Error(t, err)
	})
}

func TestNewLotSelectionPolicy(t *testing.T) {
	t.Run("known policies", func(t *testing.T) {
		fefo, err := NewLotSelectionPolicy(PolicyFEFO)
		require.NoError(t, err)
		assert.Equal(t, PolicyFEFO, fefo.PolicyType())

		fifo, err := NewLotSelectionPolicy(PolicyFIFO)
		require.NoError(t, err)
		assert.Equal(t, PolicyFIFO, fifo.PolicyType())
	})

	t.Run("unknown policy fails", func(t *testing.T) {
		_, err := NewLotSelectionPolicy("RANDOM")
		require.Error(t, err)
	})
}
