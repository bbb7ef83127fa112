package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lokapro/ledger-service/internal/models"
)

// RecapRepository persists monthly recaps with upsert-by-unique-key
// semantics on (landlord_id, period_month). Rows are soft-deleted only;
// the audit trail is never hard-deleted.
type RecapRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlyRecap, error)
	GetByLandlordAndMonth(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.MonthlyRecap, error)
	// Upsert inserts the recap or, when a non-deleted row already exists
	// for (landlord, month), updates that row's totals in place. The
	// recap's ID is rewritten to the surviving row's ID.
	Upsert(ctx context.Context, recap *models.MonthlyRecap) error
	UpdateIfVersion(ctx context.Context, recap *models.MonthlyRecap, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.MonthlyRecap) error) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type recapRepo struct {
	*BaseVersionedRepo[*models.MonthlyRecap]
	db DB
}

func NewRecapRepository(db DB) RecapRepository {
	r := &recapRepo{db: db}
	selectStmt := baseSelectRecap() + " WHERE id = $1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanRecap)
	return r
}

func (r *recapRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlyRecap, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func baseSelectRecap() string {
	return `
		SELECT
			id, landlord_id, period_month, gross_rent_total, deductible_total,
			landlord_charge_total, net_payable, property_count, active_lease_count,
			payments_received, guarantees_sufficient, status, deleted_at,
			created_at, updated_at, row_version
		FROM monthly_recaps
	`
}

func (r *recapRepo) scanRecap(row pgx.Row) (*models.MonthlyRecap, error) {
	var m models.MonthlyRecap
	err := row.Scan(
		&m.ID, &m.LandlordID, &m.PeriodMonth, &m.GrossRentTotal, &m.DeductibleTotal,
		&m.LandlordChargeTotal, &m.NetPayable, &m.PropertyCount, &m.ActiveLeaseCount,
		&m.PaymentsReceived, &m.GuaranteesSufficient, &m.Status, &m.DeletedAt,
		&m.CreatedAt, &m.UpdatedAt, &m.RowVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *recapRepo) GetByLandlordAndMonth(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.MonthlyRecap, error) {
	q := baseSelectRecap() + " WHERE landlord_id = $1 AND period_month = $2 AND deleted_at IS NULL"
	row := r.db.QueryRow(ctx, q, landlordID, month)
	return r.scanRecap(row)
}

func (r *recapRepo) Upsert(ctx context.Context, m *models.MonthlyRecap) error {
	// The partial unique index on (landlord_id, period_month) WHERE
	// deleted_at IS NULL backs the conflict target, so re-invocation
	// never creates a second row for the same key.
	q := `
		INSERT INTO monthly_recaps (
			id, landlord_id, period_month, gross_rent_total, deductible_total,
			landlord_charge_total, net_payable, property_count, active_lease_count,
			payments_received, guarantees_sufficient, status, created_at, updated_at, row_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW(), 1)
		ON CONFLICT (landlord_id, period_month) WHERE deleted_at IS NULL DO UPDATE SET
			gross_rent_total = EXCLUDED.gross_rent_total,
			deductible_total = EXCLUDED.deductible_total,
			landlord_charge_total = EXCLUDED.landlord_charge_total,
			net_payable = EXCLUDED.net_payable,
			property_count = EXCLUDED.property_count,
			active_lease_count = EXCLUDED.active_lease_count,
			payments_received = EXCLUDED.payments_received,
			guarantees_sufficient = EXCLUDED.guarantees_sufficient,
			updated_at = NOW(),
			row_version = monthly_recaps.row_version + 1
		RETURNING id, status, created_at, updated_at, row_version
	`
	row := r.db.QueryRow(ctx, q,
		m.ID, m.LandlordID, m.PeriodMonth, m.GrossRentTotal, m.DeductibleTotal,
		m.LandlordChargeTotal, m.NetPayable, m.PropertyCount, m.ActiveLeaseCount,
		m.PaymentsReceived, m.GuaranteesSufficient, m.Status,
	)
	return row.Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt, &m.RowVersion)
}

func (r *recapRepo) UpdateIfVersion(ctx context.Context, m *models.MonthlyRecap, expectedVersion int64) (pgconn.CommandTag, error) {
	q := `
		UPDATE monthly_recaps SET
			gross_rent_total = $1,
			deductible_total = $2,
			landlord_charge_total = $3,
			net_payable = $4,
			property_count = $5,
			active_lease_count = $6,
			payments_received = $7,
			guarantees_sufficient = $8,
			status = $9,
			updated_at = NOW(),
			row_version = row_version + 1
		WHERE id = $10 AND row_version = $11 AND deleted_at IS NULL
	`
	return r.db.Exec(ctx, q,
		m.GrossRentTotal, m.DeductibleTotal, m.LandlordChargeTotal, m.NetPayable,
		m.PropertyCount, m.ActiveLeaseCount, m.PaymentsReceived, m.GuaranteesSufficient,
		m.Status, m.ID, expectedVersion)
}

func (r *recapRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.MonthlyRecap) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *recapRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE monthly_recaps SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
