package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

// SentinelLeaseID is used to check if seeding has already occurred.
const SentinelLeaseID = "dddddddd-dddd-4ddd-dddd-ddddddddddd1"

const (
	DemoLandlordID = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa1"
	DemoPropertyID = "bbbbbbbb-bbbb-4bbb-bbbb-bbbbbbbbbbb1"
	DemoTenantID   = "cccccccc-cccc-4ccc-cccc-ccccccccccc1"
)

// SeedDemoData seeds one landlord with a lease, a few months of
// validated payments (including a multi-month advance), a deductible
// charge and a landlord charge. Idempotent: skipped when the sentinel
// lease is already present.
func SeedDemoData(ctx context.Context, reg *repositories.Registry) error {
	sentinelID := uuid.MustParse(SentinelLeaseID)

	if existing, err := reg.Leases.GetByID(ctx, sentinelID); err != nil {
		return fmt.Errorf("failed to check for sentinel lease: %w", err)
	} else if existing != nil {
		utils.Logger.Info("ledger-service: Seed data already present; skipping seeding.")
		return nil
	}

	now := time.Now().UTC()
	thisMonth := utils.MonthStart(now)
	startMonth := thisMonth.AddDate(0, -4, 0)

	rent := decimal.NewFromInt(100000)
	charges := decimal.NewFromInt(5000)

	lease := &models.Lease{
		ID:              sentinelID,
		PropertyID:      uuid.MustParse(DemoPropertyID),
		LandlordID:      uuid.MustParse(DemoLandlordID),
		TenantID:        uuid.MustParse(DemoTenantID),
		RentAmount:      rent,
		MonthlyCharges:  charges,
		RequiredDeposit: rent,
		RequiredAdvance: rent,
		StartMonth:      startMonth,
		EndMonth:        nil,
		Active:          true,
		CreatedAt:       now,
	}
	if err := reg.Leases.Create(ctx, lease); err != nil {
		return fmt.Errorf("failed to create seed lease: %w", err)
	}

	payments := []*models.Payment{
		// Deposit and advance guarantees at move-in.
		seedPayment(lease.ID, rent, startMonth.AddDate(0, 0, 2), models.PaymentKindDeposit),
		// A lump sum covering the first three months of rent.
		seedPayment(lease.ID, rent.Mul(decimal.NewFromInt(3)), startMonth.AddDate(0, 0, 2), models.PaymentKindAdvance),
		// A regular rent payment for month four.
		seedPayment(lease.ID, rent, startMonth.AddDate(0, 3, 5), models.PaymentKindRent),
	}
	for _, p := range payments {
		if err := reg.Payments.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create seed payment: %w", err)
		}
	}

	deductible := &models.DeductibleCharge{
		ID:         uuid.New(),
		LeaseID:    lease.ID,
		Amount:     decimal.NewFromInt(15000),
		Label:      "Plumbing repair",
		IncurredAt: startMonth.AddDate(0, 3, 10),
		Status:     models.DeductibleChargeStatusValidated,
		CreatedAt:  now,
	}
	if err := reg.Charges.CreateDeductibleCharge(ctx, deductible); err != nil {
		return fmt.Errorf("failed to create seed deductible charge: %w", err)
	}

	landlordCharge := &models.LandlordCharge{
		ID:             uuid.New(),
		LandlordID:     lease.LandlordID,
		Amount:         decimal.NewFromInt(8000),
		Label:          "Annual property tax advance",
		EffectiveMonth: thisMonth,
		Status:         models.LandlordChargeStatusPending,
		DeferralCount:  0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := reg.Charges.CreateLandlordCharge(ctx, landlordCharge); err != nil {
		return fmt.Errorf("failed to create seed landlord charge: %w", err)
	}

	utils.Logger.Info("ledger-service: Seeding completed successfully.")
	return nil
}

func seedPayment(leaseID uuid.UUID, amount decimal.Decimal, paidAt time.Time, kind models.PaymentKindType) *models.Payment {
	return &models.Payment{
		ID:        uuid.New(),
		LeaseID:   leaseID,
		Amount:    amount,
		PaidAt:    paidAt,
		Kind:      kind,
		Status:    models.PaymentStatusValidated,
		Reference: utils.Ptr(fmt.Sprintf("seed_%s", uuid.NewString()[:8])),
		CreatedAt: paidAt,
	}
}
