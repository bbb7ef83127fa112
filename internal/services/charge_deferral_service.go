package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/constants"
	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

// ChargeMutation describes what just happened to a landlord charge.
type ChargeMutation string

const (
	ChargeCreated  ChargeMutation = "created"
	ChargeModified ChargeMutation = "modified"
	ChargeDeleted  ChargeMutation = "deleted"
)

// ChargeDeferralService reacts to landlord-charge mutations. A locked
// (validated or paid) withdrawal is never recomputed; the charge's
// effective month is pushed forward instead until it lands on a month
// whose withdrawal is still open. An open withdrawal is recomputed from
// scratch. This is an explicit, bounded call made right after the
// mutation completes, not an ambient event handler.
type ChargeDeferralService struct {
	reg      *repositories.Registry
	txr      repositories.TxRunner
	recapSvc *RecapService
}

func NewChargeDeferralService(reg *repositories.Registry, txr repositories.TxRunner, recapSvc *RecapService) *ChargeDeferralService {
	return &ChargeDeferralService{reg: reg, txr: txr, recapSvc: recapSvc}
}

// CreateCharge persists a new landlord charge and immediately runs the
// deferral check, so a charge aimed at an already-locked month lands on
// the first open month instead.
func (s *ChargeDeferralService) CreateCharge(ctx context.Context, charge *models.LandlordCharge) error {
	if !charge.Amount.IsPositive() {
		return &utils.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	charge.ID = uuid.New()
	charge.EffectiveMonth = utils.MonthStart(charge.EffectiveMonth)
	charge.Status = models.LandlordChargeStatusPending
	charge.DeferralCount = 0
	now := time.Now().UTC()
	charge.CreatedAt = now
	charge.UpdatedAt = now

	if err := s.reg.Charges.CreateLandlordCharge(ctx, charge); err != nil {
		return err
	}
	return s.OnChargeMutated(ctx, charge, ChargeCreated)
}

// UpdateChargeAmount edits a charge's amount and re-runs the deferral
// check against its effective month.
func (s *ChargeDeferralService) UpdateChargeAmount(ctx context.Context, chargeID uuid.UUID, amount decimal.Decimal) (*models.LandlordCharge, error) {
	if !amount.IsPositive() {
		return nil, &utils.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	charge, err := s.reg.Charges.GetLandlordCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, pgx.ErrNoRows
	}
	if err := s.reg.Charges.UpdateLandlordChargeAmount(ctx, chargeID, amount); err != nil {
		return nil, err
	}
	charge.Amount = amount
	if err := s.OnChargeMutated(ctx, charge, ChargeModified); err != nil {
		return nil, err
	}
	return charge, nil
}

// DeleteCharge removes a charge. The row is gone either way; whether
// any totals change depends on the deferral check against its month.
func (s *ChargeDeferralService) DeleteCharge(ctx context.Context, chargeID uuid.UUID) error {
	charge, err := s.reg.Charges.GetLandlordCharge(ctx, chargeID)
	if err != nil {
		return err
	}
	if charge == nil {
		return pgx.ErrNoRows
	}
	if err := s.reg.Charges.DeleteLandlordCharge(ctx, chargeID); err != nil {
		return err
	}
	return s.OnChargeMutated(ctx, charge, ChargeDeleted)
}

// OnChargeMutated runs the deferral check in its own transaction. The
// withdrawal row is read under a row-level lock so its status cannot
// flip to locked between the read and the write.
func (s *ChargeDeferralService) OnChargeMutated(ctx context.Context, charge *models.LandlordCharge, mutation ChargeMutation) error {
	return s.txr.WithinTx(ctx, func(reg *repositories.Registry) error {
		month := utils.MonthStart(charge.EffectiveMonth)

		for step := 0; step < constants.MaxChargeDeferralSteps; step++ {
			w, err := reg.Withdrawals.GetByLandlordAndMonthForUpdate(ctx, charge.LandlordID, month)
			if err != nil {
				return err
			}

			if w != nil && w.Locked() {
				if mutation == ChargeDeleted {
					// A locked payout is never retroactively altered by a
					// later charge deletion.
					utils.Logger.Infof("Charge %s deleted but withdrawal %s for %s is %s; totals left untouched",
						charge.ID, w.ID, utils.MonthLabel(month), w.Status)
					return nil
				}
				next := utils.NextMonth(month)
				utils.Logger.Infof("Withdrawal for landlord %s in %s is %s; deferring charge %s to %s",
					charge.LandlordID, utils.MonthLabel(month), w.Status, charge.ID, utils.MonthLabel(next))
				if err := reg.Charges.UpdateChargeEffectiveMonth(ctx, charge.ID, next); err != nil {
					return err
				}
				// The update bumps deferral_count in the row; refresh the
				// caller's copy from it rather than mirroring by hand.
				stored, err := reg.Charges.GetLandlordCharge(ctx, charge.ID)
				if err != nil {
					return err
				}
				if stored != nil {
					*charge = *stored
				}
				month = next
				// Re-check the new month: it may be locked too. Each pass
				// strictly advances the month, so the loop terminates.
				continue
			}

			return s.recomputeOpenMonth(ctx, reg, charge, w, month, mutation)
		}
		return fmt.Errorf("charge %s deferred %d times without finding an open month", charge.ID, constants.MaxChargeDeferralSteps)
	})
}

// recomputeOpenMonth rebuilds the month's recap and, when a pending
// withdrawal exists, refreshes its totals from the same aggregation.
func (s *ChargeDeferralService) recomputeOpenMonth(ctx context.Context, reg *repositories.Registry, charge *models.LandlordCharge, w *models.Withdrawal, month time.Time, mutation ChargeMutation) error {
	fig, err := s.recapSvc.Aggregate(ctx, reg, charge.LandlordID, month)
	if err != nil {
		return err
	}
	if _, err := s.recapSvc.BuildRecap(ctx, reg, charge.LandlordID, month); err != nil {
		return err
	}

	if w == nil {
		// No withdrawal generated yet for this month; the refreshed recap
		// is all there is to persist.
		utils.Logger.Debugf("Charge %s %s; no withdrawal exists for landlord %s in %s, recap refreshed",
			charge.ID, mutation, charge.LandlordID, utils.MonthLabel(month))
		return nil
	}

	return reg.Withdrawals.UpdateWithRetry(ctx, w.ID, func(upd *models.Withdrawal) error {
		if upd.Locked() {
			// Lost a race despite the row lock (e.g. retry after version
			// conflict). Leave the locked totals alone.
			return nil
		}
		upd.GrossRentTotal = fig.GrossRentTotal
		upd.DeductibleTotal = fig.DeductibleTotal
		upd.LandlordChargeTotal = fig.LandlordChargeTotal
		upd.NetAmount = fig.NetPayable
		upd.Commission = fig.NetPayable.Mul(commissionRate).Round(constants.CommissionPrecision)
		upd.NetPaid = upd.NetAmount.Sub(upd.Commission)
		return nil
	})
}
