package memoize

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/agentuity/go-memoize/logger"
)

// Registry is the process-wide collection of caches. It is append-only:
// caches are registered at creation and never removed. Construct one
// explicitly with NewRegistry and hand it to whoever creates caches; there
// is no ambient global.
type Registry struct {
	mutex  sync.RWMutex
	caches []*Cache
	byName map[string]*Cache
	logger logger.Logger
}

// NewRegistry returns an empty Registry. A nil log disables logging.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewConsoleLogger(logger.LevelNone)
	}
	return &Registry{
		byName: make(map[string]*Cache),
		logger: log,
	}
}

// New creates a cache for fn, registers it under name and returns it.
// An empty name gets a generated one. Misconfiguration — a nil fn, an
// unknown storage kind, an invalid timeout expression, or a duplicate
// name — fails here rather than at call time.
func (r *Registry) New(name string, fn ComputeFunc, opts ...Option) (*Cache, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	cfg := applyOptions(opts)
	if cfg.err != nil {
		return nil, cfg.err
	}
	if name == "" {
		name = "cache-" + uuid.NewString()
	}

	store := cfg.store
	if store == nil {
		switch cfg.kind {
		case KindMap:
			store = NewMapStore()
		case KindSingleSlot:
			store = NewSingleSlotStore()
		default:
			return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(cfg.kind))
		}
	} else if cfg.shared && cfg.kind == KindSingleSlot {
		return nil, errors.New("memoize: single-slot caches cannot share a store")
	}

	log := cfg.logger
	if log == nil {
		log = r.logger
	}

	c := &Cache{
		name:    name,
		timeout: cfg.timeout,
		kind:    cfg.kind,
		shared:  cfg.shared,
		fn:      fn,
		store:   store,
		logger:  log,
	}
	if cfg.singleFlight {
		c.flight = new(singleflight.Group)
	}
	if cfg.meterProvider != nil {
		m, err := newCacheMetrics(cfg.meterProvider, name)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.byName[name]; exists {
		return nil, errors.Wrapf(ErrDuplicateName, "%s", name)
	}
	r.caches = append(r.caches, c)
	r.byName[name] = c
	r.logger.Debug("registered cache %s (kind=%d, timeout=%s, shared=%t)", name, int(c.kind), c.timeout, c.shared)
	return c, nil
}

// Lookup returns the cache registered under name.
func (r *Registry) Lookup(name string) (*Cache, bool) {
	r.mutex.RLock()
	c, ok := r.byName[name]
	r.mutex.RUnlock()
	return c, ok
}

// Caches returns the registered caches in creation order.
func (r *Registry) Caches() []*Cache {
	r.mutex.RLock()
	out := make([]*Cache, len(r.caches))
	copy(out, r.caches)
	r.mutex.RUnlock()
	return out
}

// ClearAll fully invalidates every cache whose name matches namespaceFilter.
// An empty filter matches every cache; otherwise a cache matches when its
// name equals the filter or lives under it using dotted-name convention
// ("users" matches "users" and "users.byID" but not "userscore"). Returns
// the first error encountered after attempting every match.
func (r *Registry) ClearAll(ctx context.Context, namespaceFilter string) error {
	var firstErr error
	for _, c := range r.Caches() {
		if !matchNamespace(c.name, namespaceFilter) {
			continue
		}
		if err := c.Clear(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func matchNamespace(name string, filter string) bool {
	if filter == "" {
		return true
	}
	return name == filter || strings.HasPrefix(name, filter+".")
}
