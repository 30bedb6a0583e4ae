package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds shared dependencies for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// CreateConnectionPool creates a new pgx connection pool and verifies the
// connection with a ping.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the nodes table and its indexes if they don't exist.
// Safe to run on every startup.
//
// Sibling uniqueness uses a COALESCE expression index because Postgres treats
// NULL parent_id values as distinct in a plain unique constraint, which would
// let two root-level nodes share a name.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			parent_id UUID REFERENCES nodes(id),
			name TEXT NOT NULL,
			is_folder BOOLEAN NOT NULL DEFAULT FALSE,
			path TEXT,
			mime_type TEXT,
			size BIGINT NOT NULL DEFAULT 0,
			extracted_text TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK ((is_folder AND path IS NULL) OR (NOT is_folder AND path IS NOT NULL))
		)`,
		`CREATE INDEX IF NOT EXISTS nodes_parent_id_idx ON nodes (parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS nodes_sibling_name_idx
			ON nodes (COALESCE(parent_id, '00000000-0000-0000-0000-000000000000'::uuid), name, is_folder)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// isValidID reports whether id can be cast to the UUID column type. Ids come
// straight from URL paths; passing a malformed one through to Postgres would
// raise 22P02 instead of scanning zero rows, so callers reject it up front
// and map it to ErrNotFound.
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isPgDuplicateError checks if error is a unique constraint violation
func isPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// isPgNoRowsError checks if error is a "no rows" error
func isPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
