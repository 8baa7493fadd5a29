package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides Postgres persistence for the entity graph. Entities live
// in one table keyed by (kind, key); every save is an independent upsert.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the entities table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			kind text NOT NULL,
			key text NOT NULL,
			data jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Get reads one entity.
func (s *Store) Get(ctx context.Context, kind, key string) ([]byte, bool, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT data FROM entities WHERE kind=$1 AND key=$2`, kind, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Put upserts one entity, last write wins.
func (s *Store) Put(ctx context.Context, kind, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entities (kind, key, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, key) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()
	`, kind, key, value)
	return err
}
