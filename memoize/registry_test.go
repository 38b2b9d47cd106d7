package memoize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNewValidation(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.New("nil-fn", nil)
	assert.ErrorIs(t, err, ErrNilFunc)

	_, err = reg.New("bad-kind", countingFunc(new(int)), WithStorage(StorageKind(42)))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = reg.New("bad-timeout", countingFunc(new(int)), WithTimeoutString("not a duration"))
	assert.Error(t, err)

	_, err = reg.New("shared-slot", countingFunc(new(int)),
		WithStorage(KindSingleSlot), WithSharedStore(NewMapStore()))
	assert.Error(t, err)

	_, err = reg.New("dup", countingFunc(new(int)))
	require.NoError(t, err)
	_, err = reg.New("dup", countingFunc(new(int)))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestRegistryGeneratedName(t *testing.T) {
	reg := newTestRegistry()
	c, err := reg.New("", countingFunc(new(int)))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Name())

	looked, ok := reg.Lookup(c.Name())
	assert.True(t, ok)
	assert.Same(t, c, looked)
}

func TestRegistryCachesSnapshot(t *testing.T) {
	reg := newTestRegistry()
	a, _ := reg.New("a", countingFunc(new(int)))
	b, _ := reg.New("b", countingFunc(new(int)))

	caches := reg.Caches()
	require.Len(t, caches, 2)
	assert.Same(t, a, caches[0])
	assert.Same(t, b, caches[1])

	_, ok := reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryTimeoutString(t *testing.T) {
	reg := newTestRegistry()
	c, err := reg.New("ttl", countingFunc(new(int)), WithTimeoutString("1d12h"))
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, c.Timeout())
}

func TestClearAllEveryCache(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	callsA, callsB := 0, 0
	a, _ := reg.New("users.byID", countingFunc(&callsA))
	b, _ := reg.New("orders.byID", countingFunc(&callsB))

	a.Invoke(ctx, 1, 2)
	b.Invoke(ctx, 1, 2)
	require.NoError(t, reg.ClearAll(ctx, ""))

	a.Invoke(ctx, 1, 2)
	b.Invoke(ctx, 1, 2)
	assert.Equal(t, 2, callsA)
	assert.Equal(t, 2, callsB)
}

func TestClearAllNamespaceFilter(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	callsUsers, callsUserscore, callsOrders := 0, 0, 0
	users, _ := reg.New("users.byID", countingFunc(&callsUsers))
	userscore, _ := reg.New("userscore", countingFunc(&callsUserscore))
	orders, _ := reg.New("orders.byID", countingFunc(&callsOrders))

	users.Invoke(ctx, 1, 2)
	userscore.Invoke(ctx, 1, 2)
	orders.Invoke(ctx, 1, 2)

	// "users" covers "users.byID" but not the lookalike "userscore".
	require.NoError(t, reg.ClearAll(ctx, "users"))

	users.Invoke(ctx, 1, 2)
	userscore.Invoke(ctx, 1, 2)
	orders.Invoke(ctx, 1, 2)
	assert.Equal(t, 2, callsUsers)
	assert.Equal(t, 1, callsUserscore)
	assert.Equal(t, 1, callsOrders)
}

func TestClearAllExactName(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	calls := 0
	c, _ := reg.New("standalone", countingFunc(&calls))
	c.Invoke(ctx, 1, 1)
	require.NoError(t, reg.ClearAll(ctx, "standalone"))
	c.Invoke(ctx, 1, 1)
	assert.Equal(t, 2, calls)
}
