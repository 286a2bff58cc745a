package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// Transactor implements ports.Transactor over a pgx pool, adapted from
// internal/storage/db_context.go's WithTenantContext/WithoutRLS: a
// single Begin/Commit/Rollback scope, with the transaction handed down
// through the context so repository calls inside fn transparently join
// it (spec §4.7(d), §5 "use-case write -> outbox insert is atomic").
type Transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) *domain.MappedError) *domain.MappedError {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return domain.ExecutionErr("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if mErr := fn(txCtx); mErr != nil {
		return mErr
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ExecutionErr("failed to commit transaction: %v", err)
	}
	return nil
}
