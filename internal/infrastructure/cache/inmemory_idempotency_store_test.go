package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		claimed, _, err := store.Claim(ctx, "quote-1", "result-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, existing, err := store.Claim(ctx, "quote-1", "result-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Equal(t, "result-a", existing)
	})

	t.Run("released key can be claimed again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		claimed, _, err := store.Claim(ctx, "quote-1", "result-a", time.Minute)
		require.NoError(t, err)
		require.True(t, claimed)

		require.NoError(t, store.Release(ctx, "quote-1"))

		claimed, _, err = store.Claim(ctx, "quote-1", "result-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("expired entry is claimable", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		claimed, _, err := store.Claim(ctx, "quote-1", "result-a", time.Millisecond)
		require.NoError(t, err)
		require.True(t, claimed)

		time.Sleep(5 * time.Millisecond)

		claimed, _, err = store.Claim(ctx, "quote-1", "result-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}
