package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/utils"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestResolve_AdvanceCoversThreeMonthsThenLate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	landlordID := uuid.New()

	start := month(2026, time.January)
	lease := f.addLease(landlordID, 100000, start)
	// One lump sum of three rents paid early in January.
	advance := f.addPayment(lease.ID, 300000, start.AddDate(0, 0, 2), models.PaymentKindAdvance)

	for _, m := range []time.Month{time.January, time.February, time.March} {
		res, err := f.coverageSvc.Resolve(ctx, lease, month(2026, m))
		require.NoError(t, err)
		require.Equal(t, CoverageSettled, res.Status, "month %s should be settled by the advance", m)
		require.True(t, res.AmountPaid.Equal(decimal.NewFromInt(100000)))
		require.NotNil(t, res.CoveredByPaymentID)
		require.Equal(t, advance.ID, *res.CoveredByPaymentID)
		require.Equal(t, 3, res.AdvanceMonthsCovered)
	}

	// April has no funds left.
	res, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.April))
	require.NoError(t, err)
	require.Equal(t, CoverageLate, res.Status)
	require.Equal(t, 1, res.LateMonths)
	require.True(t, res.AmountMissing.Equal(decimal.NewFromInt(100000)))
	require.Equal(t, []string{"April 2026"}, res.LateMonthLabels)
}

func TestResolve_NoPaymentsCountsArrearsFromLeaseStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lease := f.addLease(uuid.New(), 80000, month(2026, time.January))

	res, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.April))
	require.NoError(t, err)
	require.Equal(t, CoverageLate, res.Status)
	require.Equal(t, 4, res.LateMonths, "January through April inclusive")
	require.Nil(t, res.LastPaymentDate)
	require.True(t, res.AmountPaid.IsZero())
	require.True(t, res.AmountMissing.Equal(decimal.NewFromInt(80000)))
}

func TestResolve_PartialPaymentsAccumulateAcrossMonths(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	start := month(2026, time.January)
	lease := f.addLease(uuid.New(), 100000, start)

	// 60k in January, 60k in February. The carry from January finishes
	// January mid-February; February itself stays 20k short.
	f.addPayment(lease.ID, 60000, start.AddDate(0, 0, 5), models.PaymentKindPartial)
	finisher := f.addPayment(lease.ID, 60000, start.AddDate(0, 1, 5), models.PaymentKindPartial)

	jan, err := f.coverageSvc.Resolve(ctx, lease, start)
	require.NoError(t, err)
	require.Equal(t, CoverageSettled, jan.Status)
	require.Equal(t, finisher.ID, *jan.CoveredByPaymentID, "the February payment supplied January's last 40k")

	feb, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.February))
	require.NoError(t, err)
	require.Equal(t, CoverageLate, feb.Status)
	require.Equal(t, 1, feb.LateMonths)
	require.True(t, feb.AmountPaid.Equal(decimal.NewFromInt(20000)), "February's unconsumed remainder, got %s", feb.AmountPaid)
	require.True(t, feb.AmountMissing.Equal(decimal.NewFromInt(80000)))
}

func TestResolve_DepositAndChargePaymentsDoNotCountTowardRent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	start := month(2026, time.January)
	lease := f.addLease(uuid.New(), 100000, start)
	f.addPayment(lease.ID, 100000, start.AddDate(0, 0, 1), models.PaymentKindDeposit)
	f.addPayment(lease.ID, 100000, start.AddDate(0, 0, 1), models.PaymentKindCharge)

	res, err := f.coverageSvc.Resolve(ctx, lease, start)
	require.NoError(t, err)
	require.Equal(t, CoverageLate, res.Status)
	require.True(t, res.AmountMissing.Equal(decimal.NewFromInt(100000)))
}

func TestResolve_NotApplicableOutsideContractWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lease := f.addLease(uuid.New(), 100000, month(2026, time.March))
	end := month(2026, time.June)
	lease.EndMonth = &end

	before, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.February))
	require.NoError(t, err)
	require.Equal(t, CoverageNotApplicable, before.Status)

	after, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.July))
	require.NoError(t, err)
	require.Equal(t, CoverageNotApplicable, after.Status)
}

func TestResolve_ZeroRentIsNotApplicable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lease := f.addLease(uuid.New(), 0, month(2026, time.January))

	res, err := f.coverageSvc.Resolve(ctx, lease, month(2026, time.January))
	require.NoError(t, err)
	require.Equal(t, CoverageNotApplicable, res.Status)
}

func TestLedgerForLease_ClampsToContractWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	start := month(2026, time.March)
	lease := f.addLease(uuid.New(), 50000, start)
	end := month(2026, time.May)
	lease.EndMonth = &end
	f.addPayment(lease.ID, 150000, start.AddDate(0, 0, 3), models.PaymentKindAdvance)

	rows, err := f.coverageSvc.LedgerForLease(ctx, lease, month(2026, time.January), month(2026, time.December))
	require.NoError(t, err)
	require.Len(t, rows, 3, "March, April, May only")
	require.Equal(t, "March 2026", rows[0].Label)
	for _, row := range rows {
		require.Equal(t, CoverageSettled, row.Result.Status)
	}
}

func TestLedgerForLease_EmptyRangeFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lease := f.addLease(uuid.New(), 50000, month(2026, time.March))

	_, err := f.coverageSvc.LedgerForLease(ctx, lease, month(2026, time.January), month(2026, time.February))
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
}
