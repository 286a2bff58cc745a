// Package postgres implements the C2 persistence ports (internal/ports)
// over PostgreSQL via pgx, adapting the teacher's pool/transaction
// helpers in internal/storage/db_context.go from a generated-sqlc
// caller to hand-rolled queries (spec §4.2; SPEC_FULL.md notes the
// teacher's internal/storage/db package was never retrieved with the
// pack, so this layer writes its own SQL instead of depending on
// missing generated code).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the common method surface of *pgxpool.Pool and pgx.Tx that
// every repository needs. Repositories depend on this instead of either
// concrete type so the same method works inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool opens a pgx connection pool, grounded on
// internal/storage/storage.go's NewPostgres, generalized to drop the
// sqlc db.Queries wrapper this module does not carry forward.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

type txKey struct{}

// db resolves the querier to use for this call: the ambient transaction
// set by Transactor.WithinTransaction, when present, else the pool
// itself (spec §4.7(d)'s single-transactional-scope requirement without
// forcing every read to take a transaction).
func db(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
