// Package memoize caches the results of invoking a function on a given
// argument tuple, keyed by a canonicalized form of the arguments, with
// optional time-based expiration and optional sharing of one backing store
// across multiple logically distinct caches.
//
// # Creating Caches
//
// Caches are created through a [Registry], which is the process-wide,
// append-only collection of every cache. Construct one explicitly and pass
// it around; there is no package-level global:
//
//	reg := memoize.NewRegistry(logger.NewConsoleLogger())
//	sumOf, err := reg.New("sumOf", func(ctx context.Context, args ...any) ([]any, error) {
//	    return []any{args[0].(int) + args[1].(int)}, nil
//	}, memoize.WithTimeout(5*time.Minute))
//
//	values, err := sumOf.Invoke(ctx, 2, 3) // computes, stores [5]
//	values, err = sumOf.Invoke(ctx, 2, 3)  // returns cached [5]
//
// A compute function returns the full ordered sequence of its results, so
// multi-value returns survive caching intact.
//
// # Storage Backends
//
// Each cache has exactly one [Store], fixed at creation:
//
//   - [NewSingleSlotStore] — holds at most one entry and ignores arguments
//     entirely. The natural choice for zero-argument functions. Selected
//     with [WithStorage]([KindSingleSlot]).
//
//   - [NewMapStore] — an in-process mutex-guarded map from derived key to
//     entry. The default.
//
//   - [NewSQLiteStore] — a map backend on SQLite via [modernc.org/sqlite]
//     (pure Go, no CGO). Values are msgpack BLOBs; file-backed databases
//     survive process restarts.
//
//   - [NewRedisStore] — a map backend on Redis via
//     [github.com/redis/go-redis/v9], for caches shared across processes.
//     All keys live under a configurable keyspace.
//
// One map store may back several caches at once: inject it with
// [WithSharedStore] and every stored key is prefixed with the owning
// cache's name, so two caches invoked with identical arguments never
// collide, and clearing one cache leaves its co-residents untouched.
//
// # Key Derivation
//
// Arguments are canonicalized recursively — sequences keep their element
// order, maps are encoded in sorted key order — then msgpack-encoded and
// digested with xxhash. Keys are structural: two distinct slices with equal
// elements in equal order produce the same key, while a different order or
// a different leaf value produces a different one.
//
// # Expiration
//
// [WithTimeout] sets a TTL; zero means entries never expire.
// [WithTimeoutString] accepts expressions like "90s" or "1d12h". Staleness
// is evaluated on lookup against the entry's write timestamp. A hit does
// not refresh its own expiry, and stores perform no background eviction of
// their own.
//
// # Concurrency
//
// Stores are safe for concurrent use, but the check-then-compute-then-store
// cycle in [Cache.Invoke] is deliberately not atomic: two callers that both
// observe a miss for the same key both invoke the compute function, and the
// last write wins. [WithSingleFlight] opts in to collapsing such concurrent
// misses into a single computation via [golang.org/x/sync/singleflight];
// this changes the default behavior and is off unless requested.
//
// # Invalidation
//
// [Cache.Clear] with arguments removes one entry; without arguments it
// removes everything the cache owns (the slot, the whole private map, or
// exactly the name-prefixed subset of a shared store).
// [Registry.ClearAll] fully invalidates every cache, or only those under a
// dotted namespace ("users" matches "users.byID").
//
// # Error Handling
//
// Compute errors propagate to the caller unmodified and nothing is written.
// Storage failures never block computation: a failing lookup is treated as
// a miss and a failing write is logged and skipped, so values are always
// computed even when they cannot be cached. Misconfiguration — a nil
// compute function, an unknown storage kind, an invalid timeout expression
// or a duplicate name — fails at creation time, never at call time.
//
// # Declarative Configuration
//
// [LoadConfig] parses a YAML document of cache definitions and
// [Config.Apply] binds them to named compute functions, for callers that
// prefer declaring caches next to their deployment configuration.
package memoize
