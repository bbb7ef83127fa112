package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

// CoverageStatus is the outcome of resolving one lease month.
type CoverageStatus string

const (
	CoverageSettled       CoverageStatus = "SETTLED"
	CoverageLate          CoverageStatus = "LATE"
	CoverageNotApplicable CoverageStatus = "NOT_APPLICABLE"
)

// CoverageResult reports whether rent is settled for a queried month
// and, if not, how deep the arrears run.
type CoverageResult struct {
	Status          CoverageStatus  `json:"status"`
	AmountExpected  decimal.Decimal `json:"amount_expected"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountMissing   decimal.Decimal `json:"amount_missing"`
	LateMonths      int             `json:"late_months"`
	LateMonthLabels []string        `json:"late_month_labels,omitempty"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
	// CoveredByPaymentID identifies the payment whose funds settled the
	// queried month. AdvanceMonthsCovered is > 1 when that payment was a
	// lump-sum advance pre-paying several months at once.
	CoveredByPaymentID   *uuid.UUID `json:"covered_by_payment_id,omitempty"`
	AdvanceMonthsCovered int        `json:"advance_months_covered,omitempty"`
}

// MonthCoverage is one row of a lease's rent ledger view.
type MonthCoverage struct {
	Month  time.Time      `json:"month"`
	Label  string         `json:"label"`
	Result CoverageResult `json:"result"`
}

// CoverageService determines month-by-month rent coverage for a lease
// by replaying its validated payments in strict chronological order.
type CoverageService struct {
	paymentRepo repositories.PaymentRepository
}

func NewCoverageService(paymentRepo repositories.PaymentRepository) *CoverageService {
	return &CoverageService{paymentRepo: paymentRepo}
}

// Resolve fetches the lease's validated payments and resolves coverage
// for the queried month.
func (s *CoverageService) Resolve(ctx context.Context, lease *models.Lease, queryMonth time.Time) (*CoverageResult, error) {
	queryMonth = utils.MonthStart(queryMonth)

	if !lease.RentAmount.IsPositive() || !lease.CoversMonth(queryMonth) {
		return &CoverageResult{
			Status:         CoverageNotApplicable,
			AmountExpected: lease.RentAmount,
			AmountPaid:     decimal.Zero,
			AmountMissing:  decimal.Zero,
		}, nil
	}

	payments, err := s.paymentRepo.ValidatedPaymentsFor(ctx, lease.ID)
	if err != nil {
		return nil, err
	}
	return resolveCoverage(lease, payments, queryMonth), nil
}

// LedgerForLease resolves every month of the lease between from and to
// (inclusive), clamped to the lease's contract window.
func (s *CoverageService) LedgerForLease(ctx context.Context, lease *models.Lease, from, to time.Time) ([]MonthCoverage, error) {
	from, to = utils.MonthStart(from), utils.MonthStart(to)
	if from.Before(lease.StartMonth) {
		from = lease.StartMonth
	}
	if lease.EndMonth != nil && to.After(*lease.EndMonth) {
		to = *lease.EndMonth
	}
	if to.Before(from) {
		return nil, &utils.ValidationError{Field: "range", Reason: "empty month range for lease"}
	}

	payments, err := s.paymentRepo.ValidatedPaymentsFor(ctx, lease.ID)
	if err != nil {
		return nil, err
	}

	var rows []MonthCoverage
	for m := from; !m.After(to); m = utils.NextMonth(m) {
		rows = append(rows, MonthCoverage{
			Month:  m,
			Label:  utils.MonthLabel(m),
			Result: *resolveCoverage(lease, payments, m),
		})
	}
	return rows, nil
}

// contribution is the not-yet-consumed remainder of one payment during
// the forward pass.
type contribution struct {
	payment   *models.Payment
	remaining decimal.Decimal
}

// monthCover records which payment's funds completed a month.
type monthCover struct {
	month   time.Time
	payment *models.Payment
}

// resolveCoverage is the single forward pass over the lease's payment
// history. Payments must already be in ascending date order. The carry
// (money left over after covering whole months) flows from payment to
// payment, which is what lets one lump-sum advance settle months dated
// after the payment itself.
func resolveCoverage(lease *models.Lease, payments []*models.Payment, queryMonth time.Time) *CoverageResult {
	rent := lease.RentAmount
	currentMonth := utils.MonthStart(lease.StartMonth)

	var (
		pending     []contribution // FIFO remainders, oldest first
		carry       = decimal.Zero
		covers      []monthCover
		lastPaidAt  *time.Time
		countedAny  bool
		coversByPmt = map[uuid.UUID]int{}
	)

	for _, p := range payments {
		if !p.CountsTowardRent() {
			continue
		}
		countedAny = true
		paidAt := p.PaidAt
		lastPaidAt = &paidAt

		pending = append(pending, contribution{payment: p, remaining: p.Amount})
		carry = carry.Add(p.Amount)

		// A month is covered every time the accumulated total reaches one
		// rent. The payment providing the final unit of that rent is the
		// one credited with covering the month.
		for carry.GreaterThanOrEqual(rent) {
			need := rent
			var finisher *models.Payment
			for len(pending) > 0 && need.IsPositive() {
				head := &pending[0]
				take := head.remaining
				if take.GreaterThan(need) {
					take = need
				}
				head.remaining = head.remaining.Sub(take)
				need = need.Sub(take)
				finisher = head.payment
				if head.remaining.IsZero() {
					pending = pending[1:]
				}
			}
			carry = carry.Sub(rent)
			covers = append(covers, monthCover{month: currentMonth, payment: finisher})
			if finisher != nil {
				coversByPmt[finisher.ID]++
			}
			currentMonth = utils.NextMonth(currentMonth)
		}
	}

	res := &CoverageResult{
		AmountExpected:  rent,
		AmountPaid:      decimal.Zero,
		AmountMissing:   decimal.Zero,
		LastPaymentDate: lastPaidAt,
	}

	// No rent-bearing payment at all: every month from the lease start to
	// the queried month is in arrears.
	if !countedAny {
		res.Status = CoverageLate
		res.LateMonths = utils.MonthsBetween(lease.StartMonth, queryMonth) + 1
		res.LateMonthLabels = monthLabels(lease.StartMonth, queryMonth)
		res.AmountMissing = rent
		return res
	}

	for _, c := range covers {
		if c.month.Equal(queryMonth) {
			res.Status = CoverageSettled
			res.AmountPaid = rent
			if c.payment != nil {
				id := c.payment.ID
				res.CoveredByPaymentID = &id
				res.AdvanceMonthsCovered = coversByPmt[c.payment.ID]
			}
			return res
		}
	}

	// Late: count months strictly after the last covered month up to and
	// including the queried month.
	res.Status = CoverageLate
	firstLate := utils.MonthStart(lease.StartMonth)
	if len(covers) > 0 {
		firstLate = utils.NextMonth(covers[len(covers)-1].month)
	}
	res.LateMonths = utils.MonthsBetween(firstLate, queryMonth) + 1
	res.LateMonthLabels = monthLabels(firstLate, queryMonth)

	// Partial amount already received for the queried month: remainders
	// of payments dated inside that month which the pass did not consume.
	for _, c := range pending {
		if utils.SameMonth(c.payment.PaidAt, queryMonth) {
			res.AmountPaid = res.AmountPaid.Add(c.remaining)
		}
	}
	res.AmountMissing = rent.Sub(res.AmountPaid)
	if res.AmountMissing.IsNegative() {
		res.AmountMissing = decimal.Zero
	}
	return res
}

func monthLabels(from, to time.Time) []string {
	var labels []string
	for m := utils.MonthStart(from); !m.After(utils.MonthStart(to)); m = utils.NextMonth(m) {
		labels = append(labels, utils.MonthLabel(m))
	}
	return labels
}
