package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/models"
)

// ChargeRepository tracks tenant-side deductible charges and
// landlord-side charges. The deferral logic is the only writer of
// landlord-charge effective months.
type ChargeRepository interface {
	// CreateDeductibleCharge exists for seeding local environments.
	CreateDeductibleCharge(ctx context.Context, c *models.DeductibleCharge) error
	CreateLandlordCharge(ctx context.Context, c *models.LandlordCharge) error
	// ValidatedDeductibleCharges returns the lease's validated
	// deductible charges dated inside the given month.
	ValidatedDeductibleCharges(ctx context.Context, leaseID uuid.UUID, month time.Time) ([]*models.DeductibleCharge, error)

	GetLandlordCharge(ctx context.Context, id uuid.UUID) (*models.LandlordCharge, error)
	// LandlordCharges returns the landlord's charges effective in the
	// given month, filtered to the requested statuses.
	LandlordCharges(ctx context.Context, landlordID uuid.UUID, month time.Time, statusesIn []models.LandlordChargeStatusType) ([]*models.LandlordCharge, error)
	// UpdateChargeEffectiveMonth moves a charge to a new effective month
	// and marks it deferred.
	UpdateChargeEffectiveMonth(ctx context.Context, chargeID uuid.UUID, newMonth time.Time) error
	UpdateLandlordChargeAmount(ctx context.Context, chargeID uuid.UUID, amount decimal.Decimal) error
	DeleteLandlordCharge(ctx context.Context, chargeID uuid.UUID) error
	MarkLandlordChargesUsed(ctx context.Context, landlordID uuid.UUID, month time.Time) error
}

type chargeRepo struct {
	db DB
}

func NewChargeRepository(db DB) ChargeRepository {
	return &chargeRepo{db: db}
}

func (r *chargeRepo) CreateDeductibleCharge(ctx context.Context, c *models.DeductibleCharge) error {
	q := `
		INSERT INTO deductible_charges (id, lease_id, amount, label, incurred_at, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err := r.db.Exec(ctx, q, c.ID, c.LeaseID, c.Amount, c.Label, c.IncurredAt, c.Status, c.CreatedAt)
	return err
}

func (r *chargeRepo) CreateLandlordCharge(ctx context.Context, c *models.LandlordCharge) error {
	q := `
		INSERT INTO landlord_charges (id, landlord_id, amount, label, effective_month, status, deferral_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err := r.db.Exec(ctx, q, c.ID, c.LandlordID, c.Amount, c.Label, c.EffectiveMonth, c.Status, c.DeferralCount, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *chargeRepo) ValidatedDeductibleCharges(ctx context.Context, leaseID uuid.UUID, month time.Time) ([]*models.DeductibleCharge, error) {
	next := month.AddDate(0, 1, 0)
	q := `
		SELECT id, lease_id, amount, label, incurred_at, status, created_at
		FROM deductible_charges
		WHERE lease_id = $1 AND status = 'VALIDATED'
		  AND incurred_at >= $2 AND incurred_at < $3
		ORDER BY incurred_at, id
	`
	rows, err := r.db.Query(ctx, q, leaseID, month, next)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.DeductibleCharge
	for rows.Next() {
		var c models.DeductibleCharge
		if err := rows.Scan(&c.ID, &c.LeaseID, &c.Amount, &c.Label, &c.IncurredAt, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, &c)
	}
	return charges, rows.Err()
}

func baseSelectLandlordCharge() string {
	return `
		SELECT id, landlord_id, amount, label, effective_month, status, deferral_count, created_at, updated_at
		FROM landlord_charges
	`
}

func (r *chargeRepo) scanLandlordCharge(row pgx.Row) (*models.LandlordCharge, error) {
	var c models.LandlordCharge
	err := row.Scan(&c.ID, &c.LandlordID, &c.Amount, &c.Label, &c.EffectiveMonth, &c.Status, &c.DeferralCount, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chargeRepo) GetLandlordCharge(ctx context.Context, id uuid.UUID) (*models.LandlordCharge, error) {
	row := r.db.QueryRow(ctx, baseSelectLandlordCharge()+" WHERE id = $1", id)
	return r.scanLandlordCharge(row)
}

func (r *chargeRepo) LandlordCharges(ctx context.Context, landlordID uuid.UUID, month time.Time, statusesIn []models.LandlordChargeStatusType) ([]*models.LandlordCharge, error) {
	statuses := make([]string, len(statusesIn))
	for i, s := range statusesIn {
		statuses[i] = string(s)
	}
	q := baseSelectLandlordCharge() + `
		WHERE landlord_id = $1 AND effective_month = $2 AND status = ANY($3)
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, q, landlordID, month, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.LandlordCharge
	for rows.Next() {
		c, err := r.scanLandlordCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *chargeRepo) UpdateChargeEffectiveMonth(ctx context.Context, chargeID uuid.UUID, newMonth time.Time) error {
	q := `
		UPDATE landlord_charges SET
			effective_month = $1,
			status = 'DEFERRED',
			deferral_count = deferral_count + 1,
			updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, q, newMonth, chargeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chargeRepo) UpdateLandlordChargeAmount(ctx context.Context, chargeID uuid.UUID, amount decimal.Decimal) error {
	q := `UPDATE landlord_charges SET amount = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, q, amount, chargeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chargeRepo) DeleteLandlordCharge(ctx context.Context, chargeID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM landlord_charges WHERE id = $1`, chargeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chargeRepo) MarkLandlordChargesUsed(ctx context.Context, landlordID uuid.UUID, month time.Time) error {
	q := `
		UPDATE landlord_charges SET status = 'USED', updated_at = NOW()
		WHERE landlord_id = $1 AND effective_month = $2 AND status IN ('PENDING', 'DEFERRED')
	`
	_, err := r.db.Exec(ctx, q, landlordID, month)
	return err
}
