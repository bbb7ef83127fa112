package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/events"
	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

// landlordChargeStatuses are the landlord-charge states that count
// toward a month's totals. DEFERRED is included so a charge pushed out
// of a locked month still lands on the books of its new month.
var landlordChargeStatuses = []models.LandlordChargeStatusType{
	models.LandlordChargeStatusPending,
	models.LandlordChargeStatusUsed,
	models.LandlordChargeStatusDeferred,
}

// RecapService aggregates a landlord's leases, payments and charges
// into the persisted monthly recap.
type RecapService struct {
	coverageSvc *CoverageService
	publisher   events.Publisher
}

func NewRecapService(coverageSvc *CoverageService, publisher events.Publisher) *RecapService {
	return &RecapService{coverageSvc: coverageSvc, publisher: publisher}
}

// MonthlyFigures are the aggregation results shared by recap building
// and withdrawal calculation.
type MonthlyFigures struct {
	GrossRentTotal       decimal.Decimal
	DeductibleTotal      decimal.Decimal
	LandlordChargeTotal  decimal.Decimal
	NetPayable           decimal.Decimal
	PropertyCount        int
	ActiveLeaseCount     int
	PaymentsReceived     int
	GuaranteesSufficient bool
	MissingItems         []utils.MissingItem
	RentsAllSettled      bool
}

// Aggregate computes the month's figures over the landlord's active
// leases using the given registry (pooled or transaction-scoped).
func (s *RecapService) Aggregate(ctx context.Context, reg *repositories.Registry, landlordID uuid.UUID, month time.Time) (*MonthlyFigures, error) {
	month = utils.MonthStart(month)

	leases, err := reg.Leases.ActiveLeases(ctx, landlordID, month)
	if err != nil {
		return nil, err
	}

	fig := &MonthlyFigures{
		GrossRentTotal:       decimal.Zero,
		DeductibleTotal:      decimal.Zero,
		LandlordChargeTotal:  decimal.Zero,
		NetPayable:           decimal.Zero,
		GuaranteesSufficient: true,
		RentsAllSettled:      true,
	}

	properties := make(map[uuid.UUID]struct{})
	for _, lease := range leases {
		if !lease.RentAmount.IsPositive() {
			return nil, &utils.ComputationError{LeaseID: lease.ID, Reason: "non-positive rent amount"}
		}

		fig.ActiveLeaseCount++
		properties[lease.PropertyID] = struct{}{}
		fig.GrossRentTotal = fig.GrossRentTotal.Add(lease.RentAmount).Add(lease.MonthlyCharges)

		deductibles, err := reg.Charges.ValidatedDeductibleCharges(ctx, lease.ID, month)
		if err != nil {
			return nil, err
		}
		for _, c := range deductibles {
			fig.DeductibleTotal = fig.DeductibleTotal.Add(c.Amount)
		}

		monthPayments, err := reg.Payments.PaymentsInMonth(ctx, lease.ID, month)
		if err != nil {
			return nil, err
		}
		fig.PaymentsReceived += len(monthPayments)

		// Guarantee sufficiency: deposits and advances actually received
		// must reach what the contract requires.
		payments, err := reg.Payments.ValidatedPaymentsFor(ctx, lease.ID)
		if err != nil {
			return nil, err
		}
		depositGot, advanceGot := guaranteeTotals(payments)
		if depositGot.LessThan(lease.RequiredDeposit) {
			fig.GuaranteesSufficient = false
			fig.MissingItems = append(fig.MissingItems, utils.MissingItem{
				LeaseID: lease.ID,
				Reason:  "missing deposit",
				Amount:  lease.RequiredDeposit.Sub(depositGot),
			})
		}
		if advanceGot.LessThan(lease.RequiredAdvance) {
			fig.GuaranteesSufficient = false
			fig.MissingItems = append(fig.MissingItems, utils.MissingItem{
				LeaseID: lease.ID,
				Reason:  "missing advance",
				Amount:  lease.RequiredAdvance.Sub(advanceGot),
			})
		}

		cov := resolveCoverage(lease, payments, month)
		if cov.Status != CoverageSettled {
			fig.RentsAllSettled = false
			fig.MissingItems = append(fig.MissingItems, utils.MissingItem{
				LeaseID: lease.ID,
				Reason:  "unpaid rent for " + utils.MonthLabel(month),
				Amount:  cov.AmountMissing,
			})
		}
	}
	fig.PropertyCount = len(properties)

	landlordCharges, err := reg.Charges.LandlordCharges(ctx, landlordID, month, landlordChargeStatuses)
	if err != nil {
		return nil, err
	}
	for _, c := range landlordCharges {
		fig.LandlordChargeTotal = fig.LandlordChargeTotal.Add(c.Amount)
	}

	net := fig.GrossRentTotal.Sub(fig.DeductibleTotal).Sub(fig.LandlordChargeTotal)
	if net.IsNegative() {
		net = decimal.Zero
	}
	fig.NetPayable = net
	return fig, nil
}

// BuildRecap aggregates the landlord's month and upserts the unique
// (landlord, month) recap row. Re-invocation with unchanged inputs
// updates the same row in place with identical totals.
func (s *RecapService) BuildRecap(ctx context.Context, reg *repositories.Registry, landlordID uuid.UUID, month time.Time) (*models.MonthlyRecap, error) {
	month = utils.MonthStart(month)

	fig, err := s.Aggregate(ctx, reg, landlordID, month)
	if err != nil {
		return nil, err
	}

	recap := &models.MonthlyRecap{
		ID:                   uuid.New(),
		LandlordID:           landlordID,
		PeriodMonth:          month,
		GrossRentTotal:       fig.GrossRentTotal,
		DeductibleTotal:      fig.DeductibleTotal,
		LandlordChargeTotal:  fig.LandlordChargeTotal,
		NetPayable:           fig.NetPayable,
		PropertyCount:        fig.PropertyCount,
		ActiveLeaseCount:     fig.ActiveLeaseCount,
		PaymentsReceived:     fig.PaymentsReceived,
		GuaranteesSufficient: fig.GuaranteesSufficient,
		Status:               models.RecapStatusDraft,
	}
	if err := reg.Recaps.Upsert(ctx, recap); err != nil {
		return nil, err
	}

	s.publisher.RecapUpdated(landlordID, month)
	return recap, nil
}

// ValidateRecap moves a draft recap to VALIDATED.
func (s *RecapService) ValidateRecap(ctx context.Context, reg *repositories.Registry, recapID uuid.UUID) error {
	return reg.Recaps.UpdateWithRetry(ctx, recapID, func(r *models.MonthlyRecap) error {
		if r.Status != models.RecapStatusDraft {
			return &utils.ValidationError{Field: "status", Reason: "only draft recaps can be validated"}
		}
		r.Status = models.RecapStatusValidated
		return nil
	})
}

// guaranteeTotals sums a lease's validated deposit and advance payments.
func guaranteeTotals(payments []*models.Payment) (deposit, advance decimal.Decimal) {
	deposit, advance = decimal.Zero, decimal.Zero
	for _, p := range payments {
		switch p.Kind {
		case models.PaymentKindDeposit:
			deposit = deposit.Add(p.Amount)
		case models.PaymentKindAdvance:
			advance = advance.Add(p.Amount)
		}
	}
	return deposit, advance
}
