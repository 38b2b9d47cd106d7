package memoize

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultQueryTimeout is the per-operation timeout for stores that perform
// I/O (Redis, SQLite). Prevents indefinite hangs on slow or unresponsive
// storage.
const DefaultQueryTimeout = 5 * time.Second

type redisStore struct {
	client       *redis.Client
	keyspace     string
	queryTimeout time.Duration
}

var _ Store = (*redisStore)(nil)

// NewRedisStore returns a Store backed by Redis. Every key lives under
// keyspace so several stores (and unrelated application data) can coexist in
// one database. The caller owns the redis.Client lifecycle — Close is a
// no-op on the client.
func NewRedisStore(client *redis.Client, keyspace string) Store {
	if keyspace == "" {
		keyspace = "memoize"
	}
	return &redisStore{
		client:       client,
		keyspace:     keyspace,
		queryTimeout: DefaultQueryTimeout,
	}
}

func (s *redisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.queryTimeout)
}

func (s *redisStore) redisKey(key string) string {
	return s.keyspace + ":" + key
}

func (s *redisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	data, err := s.client.Get(qctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, values []any) (time.Time, error) {
	now := time.Now()
	data, err := msgpack.Marshal(Entry{Values: values, StoredAt: now})
	if err != nil {
		return time.Time{}, err
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	// No native TTL — expiry is decided by the controller so a stale entry
	// can still satisfy a shared-store scan before it is overwritten.
	if err := s.client.Set(qctx, s.redisKey(key), data, 0).Err(); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	return s.client.Del(qctx, s.redisKey(key)).Err()
}

func (s *redisStore) Clear(ctx context.Context, ownerPrefix string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	match := s.redisKey(ownerPrefix) + "*"
	// Collect matching keys first, then delete, so the scan never races
	// its own removals.
	var keys []string
	iter := s.client.Scan(qctx, 0, match, 100).Iterator()
	for iter.Next(qctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(qctx, keys...).Err()
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (s *redisStore) Close() error {
	return nil
}
