package memoize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleSlotStoreIgnoresKeys(t *testing.T) {
	ctx := context.Background()
	s := NewSingleSlotStore()

	_, found, err := s.Get(ctx, "anything")
	assert.NoError(t, err)
	assert.False(t, found)

	ts, err := s.Set(ctx, "a", []any{1, "two"})
	assert.NoError(t, err)
	assert.False(t, ts.IsZero())

	// Any key reads the one slot.
	entry, found, err := s.Get(ctx, "b")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []any{1, "two"}, entry.Values)
	assert.Equal(t, ts, entry.StoredAt)

	// A second write overwrites the slot.
	_, err = s.Set(ctx, "c", []any{3})
	assert.NoError(t, err)
	entry, found, _ = s.Get(ctx, "a")
	assert.True(t, found)
	assert.Equal(t, []any{3}, entry.Values)

	assert.NoError(t, s.Clear(ctx, "ignored"))
	_, found, _ = s.Get(ctx, "a")
	assert.False(t, found)
	assert.NoError(t, s.Close())
}

func TestSingleSlotStoreDeleteResetsSlot(t *testing.T) {
	ctx := context.Background()
	s := NewSingleSlotStore()
	_, err := s.Set(ctx, "", []any{42})
	assert.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, "whatever"))
	_, found, _ := s.Get(ctx, "")
	assert.False(t, found)
}

func TestMapStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

	_, found, err := s.Get(ctx, "k1")
	assert.NoError(t, err)
	assert.False(t, found)

	_, err = s.Set(ctx, "k1", []any{"v1"})
	assert.NoError(t, err)
	_, err = s.Set(ctx, "k2", []any{"v2"})
	assert.NoError(t, err)

	entry, found, _ := s.Get(ctx, "k1")
	assert.True(t, found)
	assert.Equal(t, []any{"v1"}, entry.Values)

	// Deleting an absent key is a no-op, not an error.
	assert.NoError(t, s.Delete(ctx, "missing"))

	assert.NoError(t, s.Delete(ctx, "k1"))
	_, found, _ = s.Get(ctx, "k1")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, "k2")
	assert.True(t, found)
}

func TestMapStoreClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()
	s.Set(ctx, "a", []any{1})
	s.Set(ctx, "b", []any{2})

	assert.NoError(t, s.Clear(ctx, ""))
	_, found, _ := s.Get(ctx, "a")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, "b")
	assert.False(t, found)
}

func TestMapStoreClearPrefixLeavesCoResidents(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()
	s.Set(ctx, "alpha:1", []any{1})
	s.Set(ctx, "alpha:2", []any{2})
	s.Set(ctx, "beta:1", []any{3})

	assert.NoError(t, s.Clear(ctx, "alpha:"))
	_, found, _ := s.Get(ctx, "alpha:1")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, "alpha:2")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, "beta:1")
	assert.True(t, found)
}

func TestMapStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				s.Set(ctx, "shared", []any{n, j})
				s.Get(ctx, "shared")
				if j%10 == 0 {
					s.Delete(ctx, "shared")
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
