package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lokapro/ledger-service/internal/models"
)

// LeaseRepository provides access to leases. Leases are created and
// edited by contract management; the ledger engine only reads them,
// except for Create which exists for seeding local environments.
type LeaseRepository interface {
	Create(ctx context.Context, l *models.Lease) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	// ActiveLeases returns the landlord's active leases whose contract
	// window covers the given normalized month.
	ActiveLeases(ctx context.Context, landlordID uuid.UUID, month time.Time) ([]*models.Lease, error)
	// LandlordIDsWithActiveLeases lists every landlord that has at least
	// one active lease covering the month. Used by the batch entry point.
	LandlordIDsWithActiveLeases(ctx context.Context, month time.Time) ([]uuid.UUID, error)
}

type leaseRepo struct {
	db DB
}

func NewLeaseRepository(db DB) LeaseRepository {
	return &leaseRepo{db: db}
}

func baseSelectLease() string {
	return `
		SELECT
			id, property_id, landlord_id, tenant_id, rent_amount, monthly_charges,
			required_deposit, required_advance, start_month, end_month, active, created_at
		FROM leases
	`
}

func (r *leaseRepo) scanLease(row pgx.Row) (*models.Lease, error) {
	var l models.Lease
	err := row.Scan(
		&l.ID, &l.PropertyID, &l.LandlordID, &l.TenantID, &l.RentAmount, &l.MonthlyCharges,
		&l.RequiredDeposit, &l.RequiredAdvance, &l.StartMonth, &l.EndMonth, &l.Active, &l.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *leaseRepo) Create(ctx context.Context, l *models.Lease) error {
	q := `
		INSERT INTO leases (
			id, property_id, landlord_id, tenant_id, rent_amount, monthly_charges,
			required_deposit, required_advance, start_month, end_month, active, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err := r.db.Exec(ctx, q,
		l.ID, l.PropertyID, l.LandlordID, l.TenantID, l.RentAmount, l.MonthlyCharges,
		l.RequiredDeposit, l.RequiredAdvance, l.StartMonth, l.EndMonth, l.Active, l.CreatedAt,
	)
	return err
}

func (r *leaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	row := r.db.QueryRow(ctx, baseSelectLease()+" WHERE id = $1", id)
	return r.scanLease(row)
}

func (r *leaseRepo) ActiveLeases(ctx context.Context, landlordID uuid.UUID, month time.Time) ([]*models.Lease, error) {
	q := baseSelectLease() + `
		WHERE landlord_id = $1
		  AND active = TRUE
		  AND start_month <= $2
		  AND (end_month IS NULL OR end_month >= $2)
		ORDER BY start_month, id
	`
	rows, err := r.db.Query(ctx, q, landlordID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l, err := r.scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

func (r *leaseRepo) LandlordIDsWithActiveLeases(ctx context.Context, month time.Time) ([]uuid.UUID, error) {
	q := `
		SELECT DISTINCT landlord_id
		FROM leases
		WHERE active = TRUE
		  AND start_month <= $1
		  AND (end_month IS NULL OR end_month >= $1)
		ORDER BY landlord_id
	`
	rows, err := r.db.Query(ctx, q, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
