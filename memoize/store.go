package memoize

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entry is one memoized result: the full ordered sequence of values the
// compute function returned, plus the time it was written.
type Entry struct {
	Values   []any     `msgpack:"values"`
	StoredAt time.Time `msgpack:"stored_at"`
}

// Store is the storage backend for a cache. Implementations must be safe for
// concurrent use; multiple callers may race Get/Set/Delete on the same key
// (see the package documentation on last-write-wins).
type Store interface {
	// Get retrieves the entry for key. A single-slot store ignores key.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set writes a new entry for key stamped with the current time and
	// returns that timestamp. A single-slot store ignores key.
	Set(ctx context.Context, key string, values []any) (time.Time, error)

	// Delete removes the entry for key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Clear removes entries. An empty ownerPrefix removes everything;
	// otherwise only keys beginning with ownerPrefix are removed, leaving
	// entries owned by co-resident caches in a shared store untouched.
	Clear(ctx context.Context, ownerPrefix string) error

	// Close releases any resources held by the store.
	Close() error
}

type singleSlotStore struct {
	mutex sync.Mutex
	entry *Entry
}

var _ Store = (*singleSlotStore)(nil)

// NewSingleSlotStore returns a Store holding at most one entry. Keys are
// ignored entirely, which suits zero-argument or argument-insensitive
// functions.
func NewSingleSlotStore() Store {
	return &singleSlotStore{}
}

func (s *singleSlotStore) Get(_ context.Context, _ string) (Entry, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.entry == nil {
		return Entry{}, false, nil
	}
	return *s.entry, true, nil
}

func (s *singleSlotStore) Set(_ context.Context, _ string, values []any) (time.Time, error) {
	now := time.Now()
	s.mutex.Lock()
	s.entry = &Entry{Values: values, StoredAt: now}
	s.mutex.Unlock()
	return now, nil
}

func (s *singleSlotStore) Delete(_ context.Context, _ string) error {
	s.mutex.Lock()
	s.entry = nil
	s.mutex.Unlock()
	return nil
}

func (s *singleSlotStore) Clear(_ context.Context, _ string) error {
	s.mutex.Lock()
	s.entry = nil
	s.mutex.Unlock()
	return nil
}

func (s *singleSlotStore) Close() error {
	return nil
}

type mapStore struct {
	mutex   sync.Mutex
	entries map[string]Entry
}

var _ Store = (*mapStore)(nil)

// NewMapStore returns an in-memory Store mapping derived keys to entries.
// A single map store may back several caches at once; see Cache for how
// shared keys are disambiguated by owner name.
func NewMapStore() Store {
	return &mapStore{entries: make(map[string]Entry)}
}

func (s *mapStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mutex.Lock()
	entry, ok := s.entries[key]
	s.mutex.Unlock()
	return entry, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, values []any) (time.Time, error) {
	now := time.Now()
	s.mutex.Lock()
	s.entries[key] = Entry{Values: values, StoredAt: now}
	s.mutex.Unlock()
	return now, nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.entries, key)
	s.mutex.Unlock()
	return nil
}

func (s *mapStore) Clear(_ context.Context, ownerPrefix string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if ownerPrefix == "" {
		s.entries = make(map[string]Entry)
		return nil
	}
	// Collect first, then delete. Keeps the iteration independent of the
	// mutation even if the map implementation changes.
	var matched []string
	for key := range s.entries {
		if strings.HasPrefix(key, ownerPrefix) {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		delete(s.entries, key)
	}
	return nil
}

func (s *mapStore) Close() error {
	return nil
}
