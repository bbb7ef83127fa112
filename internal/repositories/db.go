package repositories

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is the minimal query surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories are cheap structs constructed over either one, so the
// same repository code runs pooled or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Registry bundles one repository per aggregate over a single DB handle.
// Services receive a Registry for pooled reads and a transaction-scoped
// Registry inside WithinTx for multi-statement invariants.
type Registry struct {
	Leases      LeaseRepository
	Payments    PaymentRepository
	Charges     ChargeRepository
	Recaps      RecapRepository
	Withdrawals WithdrawalRepository
}

// NewRegistry wires every repository over the given handle.
func NewRegistry(db DB) *Registry {
	return &Registry{
		Leases:      NewLeaseRepository(db),
		Payments:    NewPaymentRepository(db),
		Charges:     NewChargeRepository(db),
		Recaps:      NewRecapRepository(db),
		Withdrawals: NewWithdrawalRepository(db),
	}
}
