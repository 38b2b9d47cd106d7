package memoize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
caches:
  - name: users.byID
    timeout: 5m
  - name: config.load
    storage: single-slot
  - name: geo.lookup
    timeout: 1h
    shared: true
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]byte(testConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Caches, 3)
	assert.Equal(t, "users.byID", cfg.Caches[0].Name)
	assert.Equal(t, "5m", cfg.Caches[0].Timeout)
	assert.Equal(t, "single-slot", cfg.Caches[1].Storage)
	assert.True(t, cfg.Caches[2].Shared)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := LoadConfig([]byte("caches: [not a mapping"))
	assert.Error(t, err)

	_, err = LoadConfig([]byte("caches:\n  - timeout: 5m\n"))
	assert.Error(t, err)

	_, err = LoadConfig([]byte("caches:\n  - name: x\n    storage: quantum\n"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestConfigApply(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadConfig([]byte(testConfig))
	require.NoError(t, err)

	reg := newTestRegistry()
	shared := NewMapStore()
	fns := map[string]ComputeFunc{
		"users.byID":  countingFunc(new(int)),
		"config.load": countingFunc(new(int)),
		"geo.lookup":  countingFunc(new(int)),
	}

	caches, err := cfg.Apply(reg, fns, shared)
	require.NoError(t, err)
	require.Len(t, caches, 3)

	users := caches[0]
	assert.Equal(t, "users.byID", users.Name())
	assert.Equal(t, 5*time.Minute, users.Timeout())
	assert.Equal(t, KindMap, users.Kind())

	assert.Equal(t, KindSingleSlot, caches[1].Kind())
	assert.True(t, caches[2].Shared())

	// The defined caches are registered and usable.
	_, ok := reg.Lookup("geo.lookup")
	assert.True(t, ok)
	_, err = users.Invoke(ctx, 1, 2)
	assert.NoError(t, err)
}

func TestConfigApplyValidation(t *testing.T) {
	cfg, err := LoadConfig([]byte(testConfig))
	require.NoError(t, err)
	reg := newTestRegistry()

	// Missing compute function binding.
	_, err = cfg.Apply(reg, map[string]ComputeFunc{}, NewMapStore())
	assert.Error(t, err)

	// Shared definition without a shared store.
	fns := map[string]ComputeFunc{
		"users.byID":  countingFunc(new(int)),
		"config.load": countingFunc(new(int)),
		"geo.lookup":  countingFunc(new(int)),
	}
	_, err = cfg.Apply(newTestRegistry(), fns, nil)
	assert.Error(t, err)
}
