package memoize

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/agentuity/go-memoize/logger"
)

// StorageKind selects the backend variant for a cache. The variant is fixed
// at creation and never migrates.
type StorageKind int

const (
	// KindMap maps a key derived from the argument tuple to an entry.
	KindMap StorageKind = iota
	// KindSingleSlot holds at most one entry and ignores arguments.
	KindSingleSlot
)

// ComputeFunc produces the values to memoize. The returned slice is stored
// as-is so multi-value results survive intact.
type ComputeFunc func(ctx context.Context, args ...any) ([]any, error)

var (
	// ErrNilFunc is returned when a cache is created without a compute function.
	ErrNilFunc = errors.New("memoize: compute function is nil")
	// ErrUnknownKind is returned when a cache is created with a storage kind
	// this package does not know about.
	ErrUnknownKind = errors.New("memoize: unknown storage kind")
	// ErrDuplicateName is returned when a cache name is already registered.
	ErrDuplicateName = errors.New("memoize: cache name already registered")
)

// Cache memoizes one compute function. Create instances through
// Registry.New; the zero value is not usable.
type Cache struct {
	name    string
	timeout time.Duration
	kind    StorageKind
	shared  bool
	fn      ComputeFunc
	store   Store
	logger  logger.Logger
	flight  *singleflight.Group
	metrics *cacheMetrics
}

// Name returns the cache's registered name.
func (c *Cache) Name() string {
	return c.name
}

// Timeout returns the configured TTL. Zero means entries never expire.
func (c *Cache) Timeout() time.Duration {
	return c.timeout
}

// Kind returns the storage variant fixed at creation.
func (c *Cache) Kind() StorageKind {
	return c.kind
}

// Shared reports whether this cache's store is shared with other caches.
func (c *Cache) Shared() bool {
	return c.shared
}

// stale decides whether an entry written at storedAt is expired. A zero
// timeout never expires. Pure; takes no lock.
func stale(timeout time.Duration, storedAt time.Time, now time.Time) bool {
	if timeout <= 0 {
		return false
	}
	return now.After(storedAt.Add(timeout))
}

type config struct {
	timeout       time.Duration
	kind          StorageKind
	store         Store
	shared        bool
	logger        logger.Logger
	singleFlight  bool
	meterProvider metric.MeterProvider
	err           error
}

// Option configures a cache at creation time.
type Option func(*config)

// WithTimeout sets the TTL for cached entries. Zero (the default) means
// entries never expire.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTimeoutString sets the TTL from a duration expression such as "90s",
// "5m" or "1d12h". An unparsable expression fails cache creation.
func WithTimeoutString(s string) Option {
	return func(c *config) {
		d, err := str2duration.ParseDuration(s)
		if err != nil {
			c.err = errors.Wrapf(err, "memoize: invalid timeout %q", s)
			return
		}
		c.timeout = d
	}
}

// WithStorage selects the backend variant. Defaults to KindMap.
func WithStorage(kind StorageKind) Option {
	return func(c *config) { c.kind = kind }
}

// WithStore injects a custom backend owned exclusively by this cache.
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
		c.shared = false
	}
}

// WithSharedStore injects a backend that is (or may be) shared with other
// caches. Stored keys are prefixed with the cache's name so entries from
// different caches never collide, and a full Clear removes only this cache's
// entries.
func WithSharedStore(store Store) Option {
	return func(c *config) {
		c.store = store
		c.shared = true
	}
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.logger = log }
}

// WithSingleFlight collapses concurrent misses for the same key into one
// computation. This deviates from the default last-write-wins behavior where
// every concurrent miss computes independently; see the package
// documentation.
func WithSingleFlight() Option {
	return func(c *config) { c.singleFlight = true }
}

// WithMeterProvider enables hit/miss/error counters on the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.meterProvider = mp }
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
