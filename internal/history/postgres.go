package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the seen_places table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS seen_places (
    id      TEXT PRIMARY KEY,
    seen_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_seen_places_seen_at ON seen_places(seen_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Compile-time assertion that PostgresStore satisfies the Store interface.
var _ Store = (*PostgresStore)(nil)

// PostgresStore is a [Store] backed by PostgreSQL, so history survives
// daemon restarts mid-trip.
type PostgresStore struct {
	db  DB
	ttl time.Duration
}

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

// Connect dials dsn, verifies the connection, and returns a migrated store
// together with the pool (the caller owns closing it).
func Connect(ctx context.Context, dsn string, ttl time.Duration) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("history: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("history: ping: %w", err)
	}
	store := NewPostgresStore(pool, ttl)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// Migrate executes the [Schema] DDL, creating the seen_places table if it
// does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Seen implements [Store.Seen].
func (s *PostgresStore) Seen(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `SELECT seen_at FROM seen_places WHERE id = $1`

	var at time.Time
	err := s.db.QueryRow(ctx, query, id).Scan(&at)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: seen %q: %w", id, err)
	}
	return now.Sub(at) <= s.ttl, nil
}

// Record implements [Store.Record].
func (s *PostgresStore) Record(ctx context.Context, id string, now time.Time) error {
	const query = `
		INSERT INTO seen_places (id, seen_at) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET seen_at = EXCLUDED.seen_at`

	if _, err := s.db.Exec(ctx, query, id, now); err != nil {
		return fmt.Errorf("history: record %q: %w", id, err)
	}
	return nil
}

// PurgeExpired implements [Store.PurgeExpired].
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) error {
	const query = `DELETE FROM seen_places WHERE seen_at < $1`

	if _, err := s.db.Exec(ctx, query, now.Add(-s.ttl)); err != nil {
		return fmt.Errorf("history: purge expired: %w", err)
	}
	return nil
}
