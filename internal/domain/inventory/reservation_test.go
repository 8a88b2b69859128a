package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

func newTestReservation(t *testing.T, qty int64) *Reservation {
	t.Helper()
	lotID := uuid.New()
	res, err := NewReservation(uuid.New(), uuid.New(), nil, &lotID, decimal.NewFromInt(qty))
	require.NoError(t, err)
	return res
}

func TestNewReservation(t *testing.T) {
	t.Run("starts active", func(t *testing.T) {
		res := newTestReservation(t, 10)
		assert.Equal(t, ReservationStateActive, res.State)
		assert.True(t, res.IsActive())
	})

	t.Run("rejects nil quote", func(t *testing.T) {
		_, err := NewReservation(uuid.Nil, uuid.New(), nil, nil, decimal.NewFromInt(1))
		require.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewReservation(uuid.New(), uuid.New(), nil, nil, decimal.Zero)
		require.Error(t, err)
	})
}

func TestReservationRelease(t *testing.T) {
	t.Run("active to released", func(t *testing.T) {
		res := newTestReservation(t, 10)

		changed, err := res.Release()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, ReservationStateReleased, res.State)
	})

	t.Run("release twice is a no-op", func(t *testing.T) {
		res := newTestReservation(t, 10)
		_, err := res.Release()
		require.NoError(t, err)

		changed, err := res.Release()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("release after use fails", func(t *testing.T) {
		res := newTestReservation(t, 10)
		require.NoError(t, res.MarkUsed())

		_, err := res.Release()
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}

func TestReservationMarkUsed(t *testing.T) {
	t.Run("active to used", func(t *testing.T) {
		res := newTestReservation(t, 10)
		require.NoError(t, res.MarkUsed())
		assert.Equal(t, ReservationStateUsed, res.State)
	})

	t.Run("released cannot be used", func(t *testing.T) {
		res := newTestReservation(t, 10)
		_, err := res.Release()
		require.NoError(t, err)

		assert.ErrorIs(t, res.MarkUsed(), shared.ErrInvalidTransition)
	})
}

func TestReservationSplit(t *testing.T) {
	t.Run("split conserves total quantity", func(t *testing.T) {
		res := newTestReservation(t, 10)

		sibling, err := res.Split(decimal.NewFromInt(4))
		require.NoError(t, err)

		assert.True(t, res.Quantity.Equal(decimal.NewFromInt(6)))
		assert.True(t, sibling.Quantity.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, res.QuoteID, sibling.QuoteID)
		assert.Equal(t, res.LotID, sibling.LotID)
		assert.True(t, sibling.IsActive())
	})

	t.Run("split of full quantity fails", func(t *testing.T) {
		res := newTestReservation(t, 10)
		_, err := res.Split(decimal.NewFromInt(10))
		assert.ErrorIs(t, err, shared.ErrInvalidSplitQuantity)
	})

	t.Run("split of released reservation fails", func(t *testing.T) {
		res := newTestReservation(t, 10)
		_, err := res.Release()
		require.NoError(t, err)

		_, err = res.Split(decimal.NewFromInt(4))
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}
