package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/utils"
)

// WithdrawalRepository persists landlord withdrawals. One non-deleted
// row per (landlord_id, period_month); the partial unique index is the
// last-resort safety net behind the service-level duplicate gate.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	GetByLandlordAndMonth(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error)
	// GetByLandlordAndMonthForUpdate takes a row-level lock so the
	// deferral path cannot race a concurrent validation of the row.
	// Only meaningful inside a transaction.
	GetByLandlordAndMonthForUpdate(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error)
	UpdateIfVersion(ctx context.Context, w *models.Withdrawal, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Withdrawal) error) error
	ListByMonth(ctx context.Context, month time.Time) ([]*models.Withdrawal, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type withdrawalRepo struct {
	*BaseVersionedRepo[*models.Withdrawal]
	db DB
}

func NewWithdrawalRepository(db DB) WithdrawalRepository {
	r := &withdrawalRepo{db: db}
	selectStmt := baseSelectWithdrawal() + " WHERE id = $1 AND deleted_at IS NULL"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanWithdrawal)
	return r
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func baseSelectWithdrawal() string {
	return `
		SELECT
			id, landlord_id, period_month, gross_rent_total, deductible_total,
			landlord_charge_total, net_amount, commission, net_paid, status,
			requested_by, deleted_at, created_at, updated_at, row_version
		FROM withdrawals
	`
}

func (r *withdrawalRepo) scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(
		&w.ID, &w.LandlordID, &w.PeriodMonth, &w.GrossRentTotal, &w.DeductibleTotal,
		&w.LandlordChargeTotal, &w.NetAmount, &w.Commission, &w.NetPaid, &w.Status,
		&w.RequestedBy, &w.DeletedAt, &w.CreatedAt, &w.UpdatedAt, &w.RowVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepo) Create(ctx context.Context, w *models.Withdrawal) error {
	q := `
		INSERT INTO withdrawals (
			id, landlord_id, period_month, gross_rent_total, deductible_total,
			landlord_charge_total, net_amount, commission, net_paid, status,
			requested_by, created_at, updated_at, row_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW(), 1)
	`
	_, err := r.db.Exec(ctx, q,
		w.ID, w.LandlordID, w.PeriodMonth, w.GrossRentTotal, w.DeductibleTotal,
		w.LandlordChargeTotal, w.NetAmount, w.Commission, w.NetPaid, w.Status, w.RequestedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on the (landlord_id, period_month) index.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &utils.DuplicateError{LandlordID: w.LandlordID, Month: w.PeriodMonth}
		}
		return err
	}
	return nil
}

func (r *withdrawalRepo) GetByLandlordAndMonth(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error) {
	q := baseSelectWithdrawal() + " WHERE landlord_id = $1 AND period_month = $2 AND deleted_at IS NULL"
	row := r.db.QueryRow(ctx, q, landlordID, month)
	return r.scanWithdrawal(row)
}

func (r *withdrawalRepo) GetByLandlordAndMonthForUpdate(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error) {
	q := baseSelectWithdrawal() + " WHERE landlord_id = $1 AND period_month = $2 AND deleted_at IS NULL FOR UPDATE"
	row := r.db.QueryRow(ctx, q, landlordID, month)
	return r.scanWithdrawal(row)
}

func (r *withdrawalRepo) UpdateIfVersion(ctx context.Context, w *models.Withdrawal, expectedVersion int64) (pgconn.CommandTag, error) {
	q := `
		UPDATE withdrawals SET
			gross_rent_total = $1,
			deductible_total = $2,
			landlord_charge_total = $3,
			net_amount = $4,
			commission = $5,
			net_paid = $6,
			status = $7,
			updated_at = NOW(),
			row_version = row_version + 1
		WHERE id = $8 AND row_version = $9 AND deleted_at IS NULL
	`
	return r.db.Exec(ctx, q,
		w.GrossRentTotal, w.DeductibleTotal, w.LandlordChargeTotal, w.NetAmount,
		w.Commission, w.NetPaid, w.Status, w.ID, expectedVersion)
}

func (r *withdrawalRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Withdrawal) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *withdrawalRepo) ListByMonth(ctx context.Context, month time.Time) ([]*models.Withdrawal, error) {
	q := baseSelectWithdrawal() + " WHERE period_month = $1 AND deleted_at IS NULL ORDER BY landlord_id"
	rows, err := r.db.Query(ctx, q, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		w, err := r.scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func (r *withdrawalRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE withdrawals SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
