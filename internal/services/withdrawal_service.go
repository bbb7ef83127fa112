package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/constants"
	"github.com/lokapro/ledger-service/internal/dtos"
	"github.com/lokapro/ledger-service/internal/events"
	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

var commissionRate = decimal.RequireFromString(constants.CommissionRate)

// WithdrawalService computes and persists landlord withdrawals. All
// writes for one landlord happen inside a single transaction; the
// partial unique index on (landlord_id, period_month) backs the
// duplicate gate against concurrent callers.
type WithdrawalService struct {
	reg       *repositories.Registry
	txr       repositories.TxRunner
	recapSvc  *RecapService
	publisher events.Publisher

	// nowFunc is swapped in tests to simulate the day of month.
	nowFunc func() time.Time
}

func NewWithdrawalService(reg *repositories.Registry, txr repositories.TxRunner, recapSvc *RecapService, publisher events.Publisher) *WithdrawalService {
	return &WithdrawalService{
		reg:       reg,
		txr:       txr,
		recapSvc:  recapSvc,
		publisher: publisher,
		nowFunc:   time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (s *WithdrawalService) SetNowFunc(f func() time.Time) {
	s.nowFunc = f
}

// insideGenerationWindow applies the temporal gate: day >= 25 or day <= 5.
func (s *WithdrawalService) insideGenerationWindow() bool {
	day := s.nowFunc().Day()
	return day >= constants.WindowOpenDay || day <= constants.WindowCloseDay
}

// CreateWithdrawal is the automatic entry point: temporal gate, then
// duplicate gate, then precondition gate, then computation. Used by the
// scheduler-driven batch run.
func (s *WithdrawalService) CreateWithdrawal(ctx context.Context, landlordID uuid.UUID, month time.Time, requestedBy string) (*models.Withdrawal, error) {
	if !s.insideGenerationWindow() {
		err := &utils.EligibilityError{Kind: utils.EligibilityOutsideWindow}
		s.publisher.WithdrawalRejected(landlordID, utils.MonthStart(month), constants.ReasonOutsideWindow)
		return nil, err
	}
	return s.createWithdrawal(ctx, landlordID, month, requestedBy)
}

// CreateWithdrawalManual is the administrator entry point. It bypasses
// the temporal gate but keeps the duplicate and precondition gates.
func (s *WithdrawalService) CreateWithdrawalManual(ctx context.Context, landlordID uuid.UUID, month time.Time, requestedBy string) (*models.Withdrawal, error) {
	return s.createWithdrawal(ctx, landlordID, month, requestedBy)
}

func (s *WithdrawalService) createWithdrawal(ctx context.Context, landlordID uuid.UUID, month time.Time, requestedBy string) (*models.Withdrawal, error) {
	month = utils.MonthStart(month)

	var created *models.Withdrawal
	err := s.txr.WithinTx(ctx, func(reg *repositories.Registry) error {
		// Duplicate gate. Re-checked inside the transaction so two
		// concurrent callers cannot both pass; the unique index catches
		// whatever slips through at insert time.
		existing, err := reg.Withdrawals.GetByLandlordAndMonth(ctx, landlordID, month)
		if err != nil {
			return err
		}
		if existing != nil {
			return &utils.DuplicateError{LandlordID: landlordID, Month: month}
		}

		fig, err := s.recapSvc.Aggregate(ctx, reg, landlordID, month)
		if err != nil {
			return err
		}

		// Precondition gate: every guarantee received, OR every current
		// month's rent settled. Either one clears the landlord.
		if !fig.GuaranteesSufficient && !fig.RentsAllSettled {
			return &utils.EligibilityError{
				Kind:    utils.EligibilityMissingGuaranteeOrRent,
				Missing: fig.MissingItems,
			}
		}

		// Persist the recap alongside the withdrawal so both reflect the
		// same aggregation read.
		if _, err := s.recapSvc.BuildRecap(ctx, reg, landlordID, month); err != nil {
			return err
		}

		commission := fig.NetPayable.Mul(commissionRate).Round(constants.CommissionPrecision)
		netPaid := fig.NetPayable.Sub(commission)

		w := &models.Withdrawal{
			ID:                  uuid.New(),
			LandlordID:          landlordID,
			PeriodMonth:         month,
			GrossRentTotal:      fig.GrossRentTotal,
			DeductibleTotal:     fig.DeductibleTotal,
			LandlordChargeTotal: fig.LandlordChargeTotal,
			NetAmount:           fig.NetPayable,
			Commission:          commission,
			NetPaid:             netPaid,
			Status:              models.WithdrawalStatusPending,
			RequestedBy:         requestedBy,
		}
		if err := reg.Withdrawals.Create(ctx, w); err != nil {
			return err
		}
		if err := reg.Charges.MarkLandlordChargesUsed(ctx, landlordID, month); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		var elig *utils.EligibilityError
		if errors.As(err, &elig) {
			s.publisher.WithdrawalRejected(landlordID, month, string(elig.Kind))
		}
		return nil, err
	}

	s.publisher.WithdrawalCreated(landlordID, month, created.NetPaid)
	utils.Logger.Infof("Created PENDING withdrawal %s for landlord %s (%s): net=%s commission=%s",
		created.ID, landlordID, utils.MonthLabel(month), created.NetAmount, created.Commission)
	return created, nil
}

// GenerateMonthlyWithdrawals runs the automatic entry point for every
// landlord with an active lease in the month. One landlord's failure is
// recorded in the summary and never aborts the loop; its transaction is
// rolled back so no partial state survives.
func (s *WithdrawalService) GenerateMonthlyWithdrawals(ctx context.Context, month, year int, triggeredBy string) (*dtos.BatchSummaryResponse, error) {
	if month < 1 || month > 12 {
		return nil, &utils.ValidationError{Field: "month", Reason: fmt.Sprintf("must be 1-12, got %d", month)}
	}
	if year < 2000 || year > 2100 {
		return nil, &utils.ValidationError{Field: "year", Reason: fmt.Sprintf("implausible year %d", year)}
	}

	period := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	summary := &dtos.BatchSummaryResponse{
		Month:  period.Format("2006-01"),
		Errors: []dtos.LandlordFailure{},
	}

	landlordIDs, err := s.reg.Leases.LandlordIDsWithActiveLeases(ctx, period)
	if err != nil {
		return nil, err
	}
	utils.Logger.Infof("Generating withdrawals for %s: %d landlords (triggered by %s)", summary.Month, len(landlordIDs), triggeredBy)

	for _, landlordID := range landlordIDs {
		_, err := s.CreateWithdrawal(ctx, landlordID, period, triggeredBy)
		if err == nil {
			summary.CreatedCount++
			continue
		}

		var dup *utils.DuplicateError
		var elig *utils.EligibilityError
		var comp *utils.ComputationError
		switch {
		case errors.As(err, &dup):
			summary.DuplicateCount++
			summary.Errors = append(summary.Errors, dtos.LandlordFailure{
				LandlordID: landlordID,
				Code:       constants.ReasonAlreadyExists,
				Reason:     dup.Error(),
			})
		case errors.As(err, &elig):
			summary.RejectedCount++
			code := constants.ReasonMissingPrereqs
			if elig.Kind == utils.EligibilityOutsideWindow {
				code = constants.ReasonOutsideWindow
			}
			summary.Errors = append(summary.Errors, dtos.LandlordFailure{
				LandlordID: landlordID,
				Code:       code,
				Reason:     elig.Error(),
				Details:    elig.Missing,
			})
		case errors.As(err, &comp):
			summary.RejectedCount++
			summary.Errors = append(summary.Errors, dtos.LandlordFailure{
				LandlordID: landlordID,
				Code:       constants.ReasonComputationFailed,
				Reason:     comp.Error(),
			})
		default:
			// Unexpected failure (DB down, etc). Recorded, loop continues.
			utils.Logger.WithError(err).Errorf("Withdrawal generation failed for landlord %s", landlordID)
			summary.RejectedCount++
			summary.Errors = append(summary.Errors, dtos.LandlordFailure{
				LandlordID: landlordID,
				Code:       utils.ErrCodeInternal,
				Reason:     err.Error(),
			})
		}
	}

	utils.Logger.Infof("Withdrawal batch for %s done: created=%d duplicates=%d rejected=%d",
		summary.Month, summary.CreatedCount, summary.DuplicateCount, summary.RejectedCount)
	return summary, nil
}

// ValidateWithdrawal locks a pending withdrawal. From this point on no
// charge mutation may alter its totals.
func (s *WithdrawalService) ValidateWithdrawal(ctx context.Context, withdrawalID uuid.UUID) error {
	return s.reg.Withdrawals.UpdateWithRetry(ctx, withdrawalID, func(w *models.Withdrawal) error {
		if w.Status != models.WithdrawalStatusPending {
			return &utils.ValidationError{Field: "status", Reason: "only pending withdrawals can be validated"}
		}
		w.Status = models.WithdrawalStatusValidated
		return nil
	})
}

// MarkWithdrawalPaid records that the payout physically went out.
func (s *WithdrawalService) MarkWithdrawalPaid(ctx context.Context, withdrawalID uuid.UUID) error {
	return s.reg.Withdrawals.UpdateWithRetry(ctx, withdrawalID, func(w *models.Withdrawal) error {
		if w.Status != models.WithdrawalStatusValidated {
			return &utils.ValidationError{Field: "status", Reason: "only validated withdrawals can be marked paid"}
		}
		w.Status = models.WithdrawalStatusPaid
		return nil
	})
}
