package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

const tableName = `_hb_pg_persist`

// farFuture is the expires sentinel used for entries that never expire,
// so the column can stay NOT NULL and every read compares against "now".
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Store is a generic key-value store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
	opts *options
	sf   singleflight.Group
}

// New creates a Store bound to pool. Call Migrations and Apply them before
// using the store.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Store{pool: pool, opts: o}
}

// resolveExpiry applies this module's TTL convention: positive duration
// expires after ttl, zero uses the store's default TTL, negative never
// expires.
func resolveExpiry(ttl, defaultTTL time.Duration) time.Time {
	if ttl == 0 {
		ttl = defaultTTL
	}
	if ttl < 0 {
		return farFuture
	}
	if ttl == 0 {
		return farFuture
	}
	return time.Now().Add(ttl)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

// Create inserts a new entry, failing with ErrDuplicate if key already
// exists (regardless of expiration).
func (s *Store) Create(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return err
	}
	expiresAt := resolveExpiry(ttl, s.opts.defaultTTL)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+tableName+` (id, data, expires) VALUES ($1, $2, $3)
	`, key, data, expiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Set stores a value, overwriting any existing entry for key. Per this
// store's pinned TTL convention, a zero ttl on an overwrite still resets
// expires to the store's default (or the never-expire sentinel), it
// does not preserve the previous expiration.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return err
	}
	expiresAt := resolveExpiry(ttl, s.opts.defaultTTL)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+tableName+` (id, data, expires) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires = EXCLUDED.expires
	`, key, data, expiresAt)
	return err
}

// Remove deletes key. It is not an error if key does not exist.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+tableName+` WHERE id = $1`, key)
	return err
}

type rawEntry struct {
	data      []byte
	expiresAt time.Time
}

// fetch reads the raw row for key, deduplicating concurrent lookups of the
// same key through singleflight so a burst of readers after a miss doesn't
// hit the database once per caller.
func (s *Store) fetch(ctx context.Context, key string) (rawEntry, error) {
	v, err, _ := s.sf.Do(key, func() (any, error) {
		row := s.pool.QueryRow(ctx, `
			SELECT data, expires FROM `+tableName+` WHERE id = $1
		`, key)

		var entry rawEntry
		if err := row.Scan(&entry.data, &entry.expiresAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return rawEntry{}, ErrNotFound
			}
			return rawEntry{}, err
		}
		return entry, nil
	})
	if err != nil {
		return rawEntry{}, err
	}
	return v.(rawEntry), nil
}

// Get retrieves and unmarshals the value stored under key. Returns
// ErrNotFound if key does not exist or has expired.
//
// Get is a free function rather than a method because Go does not allow
// type parameters on methods.
func Get[T any](ctx context.Context, s *Store, key string) (T, error) {
	var zero T

	entry, err := s.fetch(ctx, key)
	if err != nil {
		return zero, err
	}

	if !time.Now().Before(entry.expiresAt) {
		return zero, ErrNotFound
	}

	var v T
	if err := json.Unmarshal(entry.data, &v); err != nil {
		return zero, errors.Join(ErrInvalidConversion, err)
	}
	return v, nil
}
