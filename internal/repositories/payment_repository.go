package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lokapro/ledger-service/internal/models"
)

// PaymentRepository provides ordered read access to the payment events
// of a lease. Payments are created by payment intake; the ledger engine
// only reads them.
type PaymentRepository interface {
	// Create exists for seeding local environments.
	Create(ctx context.Context, p *models.Payment) error
	// ValidatedPaymentsFor returns every validated payment of the lease
	// in ascending date order. Chronological order is a correctness
	// requirement of the coverage simulation, not a preference.
	ValidatedPaymentsFor(ctx context.Context, leaseID uuid.UUID) ([]*models.Payment, error)
	// PaymentsInMonth returns validated payments of the lease dated
	// inside the given normalized month.
	PaymentsInMonth(ctx context.Context, leaseID uuid.UUID, month time.Time) ([]*models.Payment, error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func baseSelectPayment() string {
	return `
		SELECT id, lease_id, amount, paid_at, kind, status, reference, created_at
		FROM payments
	`
}

func (r *paymentRepo) scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.LeaseID, &p.Amount, &p.PaidAt, &p.Kind, &p.Status, &p.Reference, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) collect(rows pgx.Rows) ([]*models.Payment, error) {
	defer rows.Close()
	var payments []*models.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	q := `
		INSERT INTO payments (id, lease_id, amount, paid_at, kind, status, reference, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := r.db.Exec(ctx, q, p.ID, p.LeaseID, p.Amount, p.PaidAt, p.Kind, p.Status, p.Reference, p.CreatedAt)
	return err
}

func (r *paymentRepo) ValidatedPaymentsFor(ctx context.Context, leaseID uuid.UUID) ([]*models.Payment, error) {
	q := baseSelectPayment() + `
		WHERE lease_id = $1 AND status = 'VALIDATED'
		ORDER BY paid_at, created_at
	`
	rows, err := r.db.Query(ctx, q, leaseID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *paymentRepo) PaymentsInMonth(ctx context.Context, leaseID uuid.UUID, month time.Time) ([]*models.Payment, error) {
	next := month.AddDate(0, 1, 0)
	q := baseSelectPayment() + `
		WHERE lease_id = $1 AND status = 'VALIDATED'
		  AND paid_at >= $2 AND paid_at < $3
		ORDER BY paid_at, created_at
	`
	rows, err := r.db.Query(ctx, q, leaseID, month, next)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
