package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// TxRunner executes a function against a transaction-scoped Registry.
// An error from fn rolls the whole transaction back, so a failed
// landlord in a batch run leaves no partial state behind.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(reg *Registry) error) error
}

type pgxTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner backed by the given pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgxTxRunner{pool: pool}
}

func (r *pgxTxRunner) WithinTx(ctx context.Context, fn func(reg *Registry) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	if err := fn(NewRegistry(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
