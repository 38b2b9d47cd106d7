package memoize

import (
	"context"
	"time"
)

// Invoke runs the lookup/compute/store cycle for one argument tuple. On a
// hit the cached values are returned unchanged; a hit never refreshes its
// own expiry. On a miss or an expired entry the compute function runs, its
// result is stored and returned. A compute error propagates to the caller
// unmodified and nothing is written.
//
// Storage failures never surface here: a failing Get is treated as a miss
// and a failing Set is logged and skipped, so values are always computed
// even when they cannot be cached.
func (c *Cache) Invoke(ctx context.Context, args ...any) ([]any, error) {
	key, err := c.deriveKey(args)
	if err != nil {
		// Arguments that cannot be canonicalized cannot be cached.
		c.logger.Warn("cache %s: key derivation failed, invoking uncached: %s", c.name, err)
		c.metrics.addError(ctx)
		return c.fn(ctx, args...)
	}
	if c.flight != nil {
		result, err, _ := c.flight.Do(key, func() (any, error) {
			return c.invokeKey(ctx, key, args)
		})
		if err != nil {
			return nil, err
		}
		return result.([]any), nil
	}
	return c.invokeKey(ctx, key, args)
}

func (c *Cache) invokeKey(ctx context.Context, key string, args []any) ([]any, error) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache %s: lookup failed, treating as miss: %s", c.name, err)
		c.metrics.addError(ctx)
		ok = false
	}
	if ok && !stale(c.timeout, entry.StoredAt, time.Now()) {
		c.metrics.addHit(ctx)
		return entry.Values, nil
	}
	c.metrics.addMiss(ctx)
	values, err := c.fn(ctx, args...)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Set(ctx, key, values); err != nil {
		c.logger.Warn("cache %s: failed to store result: %s", c.name, err)
		c.metrics.addError(ctx)
	}
	return values, nil
}

// Clear invalidates entries. With arguments, only the entry for that tuple
// is removed. Without arguments the whole cache is invalidated: a
// single-slot cache resets its slot, a private map cache empties its store,
// and a cache on a shared store removes exactly the entries it owns,
// leaving co-resident caches untouched. Clearing entries that do not exist
// is a no-op.
func (c *Cache) Clear(ctx context.Context, args ...any) error {
	if c.kind == KindSingleSlot {
		return c.store.Clear(ctx, "")
	}
	if len(args) > 0 {
		key, err := c.deriveKey(args)
		if err != nil {
			return err
		}
		return c.store.Delete(ctx, key)
	}
	if c.shared {
		return c.store.Clear(ctx, c.name+":")
	}
	return c.store.Clear(ctx, "")
}
