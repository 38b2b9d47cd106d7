package memoize

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

var _ Store = (*sqliteStore)(nil)

// NewSQLiteStore returns a Store backed by SQLite (pure Go, no CGO). If
// dbPath is empty or ":memory:", an in-memory database is used; a file path
// makes entries survive process restarts. Values are serialized to msgpack
// and stored as BLOBs.
func NewSQLiteStore(dbPath string) (Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrent performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS memoize (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		stored_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:           db,
		queryTimeout: DefaultQueryTimeout,
	}, nil
}

func (s *sqliteStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.queryTimeout)
}

func (s *sqliteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	var data []byte
	var storedAt int64
	err := s.db.QueryRowContext(qctx,
		`SELECT data, stored_at FROM memoize WHERE key = ?`, key,
	).Scan(&data, &storedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var values []any
	if err := msgpack.Unmarshal(data, &values); err != nil {
		return Entry{}, false, err
	}
	return Entry{Values: values, StoredAt: time.Unix(0, storedAt)}, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, values []any) (time.Time, error) {
	data, err := msgpack.Marshal(values)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now()
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	_, err = s.db.ExecContext(qctx,
		`INSERT INTO memoize (key, data, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`,
		key, data, now.UnixNano(),
	)
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	_, err := s.db.ExecContext(qctx, `DELETE FROM memoize WHERE key = ?`, key)
	return err
}

func (s *sqliteStore) Clear(ctx context.Context, ownerPrefix string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	if ownerPrefix == "" {
		_, err := s.db.ExecContext(qctx, `DELETE FROM memoize`)
		return err
	}
	_, err := s.db.ExecContext(qctx,
		`DELETE FROM memoize WHERE key LIKE ? ESCAPE '\'`,
		escapeLike(ownerPrefix)+"%",
	)
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// escapeLike escapes LIKE wildcards so a prefix containing % or _ matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
