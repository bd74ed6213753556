package idempotency

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RememberAndExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	_, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, "k1", 7))
	// first writer wins
	require.NoError(t, s.Remember(ctx, "k1", 8))
	id, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	now = now.Add(time.Hour)
	_, ok, _ = s.Lookup(ctx, "k1")
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, "k1", 9))
	id, _, _ = s.Lookup(ctx, "k1")
	assert.Equal(t, int64(9), id)
}

func TestMemoryStore_Forget(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Remember(ctx, "k", 1))
	require.NoError(t, s.Forget(ctx, "k"))
	_, ok, _ := s.Lookup(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, "k", 2))
	id, _, _ := s.Lookup(ctx, "k")
	assert.Equal(t, int64(2), id)
	require.NoError(t, s.Forget(ctx, "missing"))
}

func TestNormalizeKey(t *testing.T) {
	k, err := NormalizeKey("  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", k)

	_, err = NormalizeKey("   ")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NormalizeKey(strings.Repeat("x", MaxKeyLength+1))
	assert.Error(t, err)
}
