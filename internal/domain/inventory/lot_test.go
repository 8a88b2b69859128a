package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

func newTestLot(t *testing.T, onHand int64, expiry *time.Time) *Lot {
	t.Helper()
	lot, err := NewLot(uuid.New(), LotInfo{
		LotCode:           "LOT-001",
		Expiry:            expiry,
		DosesPerContainer: decimal.NewFromInt(10),
	}, decimal.NewFromInt(onHand))
	require.NoError(t, err)
	return lot
}

func TestNewLot(t *testing.T) {
	t.Run("creates lot with defaults", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		assert.Equal(t, "LOT-001", lot.LotCode)
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(100)))
		assert.True(t, lot.QuantityReserved.IsZero())
		assert.False(t, lot.Retired)
	})

	t.Run("rejects empty lot code", func(t *testing.T) {
		_, err := NewLot(uuid.New(), LotInfo{}, decimal.NewFromInt(10))
		require.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewLot(uuid.New(), LotInfo{LotCode: "L"}, decimal.Zero)
		require.Error(t, err)
	})

	t.Run("defaults doses per container to one", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), LotInfo{LotCode: "L"}, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.True(t, lot.DosesPerContainer.Equal(decimal.NewFromInt(1)))
	})
}

func TestLotReserveAndRelease(t *testing.T) {
	t.Run("reserve reduces availability", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		require.NoError(t, lot.Reserve(decimal.NewFromInt(30)))
		assert.True(t, lot.Available().Equal(decimal.NewFromInt(70)))
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	})

	t.Run("reserve beyond availability fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(80)))

		err := lot.Reserve(decimal.NewFromInt(30))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.True(t, lot.QuantityReserved.Equal(decimal.NewFromInt(80)))
	})

	t.Run("release returns reserved quantity", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(40)))

		require.NoError(t, lot.ReleaseReserved(decimal.NewFromInt(40)))
		assert.True(t, lot.QuantityReserved.IsZero())
	})

	t.Run("release more than reserved fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(10)))

		err := lot.ReleaseReserved(decimal.NewFromInt(20))
		assert.ErrorIs(t, err, shared.ErrWouldViolateInvariant)
	})
}

func TestLotConsume(t *testing.T) {
	t.Run("consume drops on-hand and reserved together", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(40)))

		require.NoError(t, lot.Consume(decimal.NewFromInt(40)))
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(60)))
		assert.True(t, lot.QuantityReserved.IsZero())
	})

	t.Run("consume unreserved quantity fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		err := lot.Consume(decimal.NewFromInt(10))
		assert.ErrorIs(t, err, shared.ErrWouldViolateInvariant)
	})
}

func TestLotAdjustOnHand(t *testing.T) {
	t.Run("positive adjustment", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		require.NoError(t, lot.AdjustOnHand(decimal.NewFromInt(25)))
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(125)))
	})

	t.Run("adjustment below reserved fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(60)))

		err := lot.AdjustOnHand(decimal.NewFromInt(-50))
		assert.ErrorIs(t, err, shared.ErrWouldViolateInvariant)
		assert.True(t, lot.QuantityOnHand.Equal(decimal.NewFromInt(100)))
	})

	t.Run("adjustment below zero fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		err := lot.AdjustOnHand(decimal.NewFromInt(-150))
		assert.ErrorIs(t, err, shared.ErrWouldViolateInvariant)
	})
}

func TestLotExpiry(t *testing.T) {
	t.Run("no expiry never expires", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		assert.False(t, lot.IsExpired())
		assert.Equal(t, -1, lot.DaysUntilExpiry())
	})

	t.Run("past expiry is expired and not allocatable", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		lot := newTestLot(t, 100, &past)

		assert.True(t, lot.IsExpired())
		assert.False(t, lot.IsAllocatable())
	})

	t.Run("will expire within window", func(t *testing.T) {
		soon := time.Now().Add(48 * time.Hour)
		lot := newTestLot(t, 100, &soon)

		assert.True(t, lot.WillExpireWithin(72*time.Hour))
		assert.False(t, lot.WillExpireWithin(24*time.Hour))
	})
}

func TestLotRetire(t *testing.T) {
	t.Run("retire zeroes on-hand and blocks allocation", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)

		require.NoError(t, lot.Retire())
		assert.True(t, lot.Retired)
		assert.True(t, lot.QuantityOnHand.IsZero())
		assert.False(t, lot.IsAllocatable())
	})

	t.Run("retire with reserved stock fails", func(t *testing.T) {
		lot := newTestLot(t, 100, nil)
		require.NoError(t, lot.Reserve(decimal.NewFromInt(10)))

		require.Error(t, lot.Retire())
	})
}

func TestLotContainerConversion(t *testing.T) {
	lot := newTestLot(t, 100, nil)

	assert.True(t, lot.Containers().Equal(decimal.NewFromInt(10)))
	assert.True(t, lot.DosesForContainers(decimal.NewFromInt(3)).Equal(decimal.NewFromInt(30)))
}
