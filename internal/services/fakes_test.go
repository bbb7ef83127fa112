package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/models"
	"github.com/lokapro/ledger-service/internal/repositories"
	"github.com/lokapro/ledger-service/internal/utils"
)

// In-memory repository fakes. They honor the same contracts as the pg
// implementations (ordering, status filters, duplicate detection) so
// the services can be exercised without a database.

type fakeLeaseRepo struct {
	leases map[uuid.UUID]*models.Lease
}

func newFakeLeaseRepo() *fakeLeaseRepo {
	return &fakeLeaseRepo{leases: map[uuid.UUID]*models.Lease{}}
}

func (r *fakeLeaseRepo) Create(_ context.Context, l *models.Lease) error {
	r.leases[l.ID] = l
	return nil
}

func (r *fakeLeaseRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Lease, error) {
	return r.leases[id], nil
}

func (r *fakeLeaseRepo) ActiveLeases(_ context.Context, landlordID uuid.UUID, month time.Time) ([]*models.Lease, error) {
	var out []*models.Lease
	for _, l := range r.leases {
		if l.LandlordID == landlordID && l.Active && l.CoversMonth(month) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMonth.Before(out[j].StartMonth) })
	return out, nil
}

func (r *fakeLeaseRepo) LandlordIDsWithActiveLeases(_ context.Context, month time.Time) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, l := range r.leases {
		if !l.Active || !l.CoversMonth(month) {
			continue
		}
		if _, ok := seen[l.LandlordID]; !ok {
			seen[l.LandlordID] = struct{}{}
			ids = append(ids, l.LandlordID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type fakePaymentRepo struct {
	payments []*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakePaymentRepo) ValidatedPaymentsFor(_ context.Context, leaseID uuid.UUID) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range r.payments {
		if p.LeaseID == leaseID && p.Status == models.PaymentStatusValidated {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (r *fakePaymentRepo) PaymentsInMonth(ctx context.Context, leaseID uuid.UUID, month time.Time) ([]*models.Payment, error) {
	all, _ := r.ValidatedPaymentsFor(ctx, leaseID)
	var out []*models.Payment
	for _, p := range all {
		if utils.SameMonth(p.PaidAt, month) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeChargeRepo struct {
	deductibles     []*models.DeductibleCharge
	landlordCharges map[uuid.UUID]*models.LandlordCharge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{landlordCharges: map[uuid.UUID]*models.LandlordCharge{}}
}

func (r *fakeChargeRepo) CreateDeductibleCharge(_ context.Context, c *models.DeductibleCharge) error {
	r.deductibles = append(r.deductibles, c)
	return nil
}

func (r *fakeChargeRepo) CreateLandlordCharge(_ context.Context, c *models.LandlordCharge) error {
	r.landlordCharges[c.ID] = c
	return nil
}

func (r *fakeChargeRepo) ValidatedDeductibleCharges(_ context.Context, leaseID uuid.UUID, month time.Time) ([]*models.DeductibleCharge, error) {
	var out []*models.DeductibleCharge
	for _, c := range r.deductibles {
		if c.LeaseID == leaseID && c.Status == models.DeductibleChargeStatusValidated && utils.SameMonth(c.IncurredAt, month) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChargeRepo) GetLandlordCharge(_ context.Context, id uuid.UUID) (*models.LandlordCharge, error) {
	return r.landlordCharges[id], nil
}

func (r *fakeChargeRepo) LandlordCharges(_ context.Context, landlordID uuid.UUID, month time.Time, statusesIn []models.LandlordChargeStatusType) ([]*models.LandlordCharge, error) {
	allowed := map[models.LandlordChargeStatusType]struct{}{}
	for _, s := range statusesIn {
		allowed[s] = struct{}{}
	}
	var out []*models.LandlordCharge
	for _, c := range r.landlordCharges {
		if c.LandlordID != landlordID || !c.EffectiveMonth.Equal(utils.MonthStart(month)) {
			continue
		}
		if _, ok := allowed[c.Status]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeChargeRepo) UpdateChargeEffectiveMonth(_ context.Context, chargeID uuid.UUID, newMonth time.Time) error {
	c, ok := r.landlordCharges[chargeID]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	c.EffectiveMonth = utils.MonthStart(newMonth)
	c.Status = models.LandlordChargeStatusDeferred
	c.DeferralCount++
	return nil
}

func (r *fakeChargeRepo) UpdateLandlordChargeAmount(_ context.Context, chargeID uuid.UUID, amount decimal.Decimal) error {
	c, ok := r.landlordCharges[chargeID]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	c.Amount = amount
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeChargeRepo) DeleteLandlordCharge(_ context.Context, chargeID uuid.UUID) error {
	if _, ok := r.landlordCharges[chargeID]; !ok {
		return utils.ErrNoRowsUpdated
	}
	delete(r.landlordCharges, chargeID)
	return nil
}

func (r *fakeChargeRepo) MarkLandlordChargesUsed(_ context.Context, landlordID uuid.UUID, month time.Time) error {
	for _, c := range r.landlordCharges {
		if c.LandlordID == landlordID && c.EffectiveMonth.Equal(utils.MonthStart(month)) &&
			(c.Status == models.LandlordChargeStatusPending || c.Status == models.LandlordChargeStatusDeferred) {
			c.Status = models.LandlordChargeStatusUsed
		}
	}
	return nil
}

type fakeRecapRepo struct {
	recaps []*models.MonthlyRecap
	// upserts counts write calls so idempotency tests can tell an
	// in-place update apart from a second insert.
	upserts int
}

func newFakeRecapRepo() *fakeRecapRepo {
	return &fakeRecapRepo{}
}

func (r *fakeRecapRepo) GetByID(_ context.Context, id uuid.UUID) (*models.MonthlyRecap, error) {
	for _, m := range r.recaps {
		if m.ID == id && m.DeletedAt == nil {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeRecapRepo) GetByLandlordAndMonth(_ context.Context, landlordID uuid.UUID, month time.Time) (*models.MonthlyRecap, error) {
	for _, m := range r.recaps {
		if m.LandlordID == landlordID && m.PeriodMonth.Equal(utils.MonthStart(month)) && m.DeletedAt == nil {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeRecapRepo) Upsert(ctx context.Context, recap *models.MonthlyRecap) error {
	r.upserts++
	existing, _ := r.GetByLandlordAndMonth(ctx, recap.LandlordID, recap.PeriodMonth)
	if existing == nil {
		recap.RowVersion = 1
		recap.CreatedAt = time.Now().UTC()
		recap.UpdatedAt = recap.CreatedAt
		r.recaps = append(r.recaps, recap)
		return nil
	}
	existing.GrossRentTotal = recap.GrossRentTotal
	existing.DeductibleTotal = recap.DeductibleTotal
	existing.LandlordChargeTotal = recap.LandlordChargeTotal
	existing.NetPayable = recap.NetPayable
	existing.PropertyCount = recap.PropertyCount
	existing.ActiveLeaseCount = recap.ActiveLeaseCount
	existing.PaymentsReceived = recap.PaymentsReceived
	existing.GuaranteesSufficient = recap.GuaranteesSufficient
	existing.UpdatedAt = time.Now().UTC()
	existing.RowVersion++
	*recap = *existing
	return nil
}

func (r *fakeRecapRepo) UpdateIfVersion(_ context.Context, recap *models.MonthlyRecap, expectedVersion int64) (pgconn.CommandTag, error) {
	for _, m := range r.recaps {
		if m.ID == recap.ID && m.RowVersion == expectedVersion && m.DeletedAt == nil {
			*m = *recap
			m.RowVersion = expectedVersion + 1
			return pgconn.CommandTag("UPDATE 1"), nil
		}
	}
	return pgconn.CommandTag("UPDATE 0"), nil
}

func (r *fakeRecapRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.MonthlyRecap) error) error {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return utils.ErrNoRowsUpdated
	}
	return mutate(m)
}

func (r *fakeRecapRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return utils.ErrNoRowsUpdated
	}
	now := time.Now().UTC()
	m.DeletedAt = &now
	return nil
}

type fakeWithdrawalRepo struct {
	withdrawals []*models.Withdrawal
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, w *models.Withdrawal) error {
	existing, _ := r.GetByLandlordAndMonth(ctx, w.LandlordID, w.PeriodMonth)
	if existing != nil {
		return &utils.DuplicateError{LandlordID: w.LandlordID, Month: w.PeriodMonth}
	}
	w.RowVersion = 1
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	r.withdrawals = append(r.withdrawals, w)
	return nil
}

func (r *fakeWithdrawalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	for _, w := range r.withdrawals {
		if w.ID == id && w.DeletedAt == nil {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWithdrawalRepo) GetByLandlordAndMonth(_ context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error) {
	for _, w := range r.withdrawals {
		if w.LandlordID == landlordID && w.PeriodMonth.Equal(utils.MonthStart(month)) && w.DeletedAt == nil {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWithdrawalRepo) GetByLandlordAndMonthForUpdate(ctx context.Context, landlordID uuid.UUID, month time.Time) (*models.Withdrawal, error) {
	return r.GetByLandlordAndMonth(ctx, landlordID, month)
}

func (r *fakeWithdrawalRepo) UpdateIfVersion(_ context.Context, w *models.Withdrawal, expectedVersion int64) (pgconn.CommandTag, error) {
	for _, existing := range r.withdrawals {
		if existing.ID == w.ID && existing.RowVersion == expectedVersion && existing.DeletedAt == nil {
			*existing = *w
			existing.RowVersion = expectedVersion + 1
			return pgconn.CommandTag("UPDATE 1"), nil
		}
	}
	return pgconn.CommandTag("UPDATE 0"), nil
}

func (r *fakeWithdrawalRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Withdrawal) error) error {
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return utils.ErrNoRowsUpdated
	}
	return mutate(w)
}

func (r *fakeWithdrawalRepo) ListByMonth(_ context.Context, month time.Time) ([]*models.Withdrawal, error) {
	var out []*models.Withdrawal
	for _, w := range r.withdrawals {
		if w.PeriodMonth.Equal(utils.MonthStart(month)) && w.DeletedAt == nil {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return utils.ErrNoRowsUpdated
	}
	now := time.Now().UTC()
	w.DeletedAt = &now
	return nil
}

// fakeTxRunner hands the same registry back, so "transactional" writes
// hit the shared in-memory state directly. Rollback is not simulated;
// tests asserting rollback behavior check observable state instead.
type fakeTxRunner struct {
	reg *repositories.Registry
}

func (r *fakeTxRunner) WithinTx(_ context.Context, fn func(reg *repositories.Registry) error) error {
	return fn(r.reg)
}

// fixture bundles the fakes with a wired service stack.
type fixture struct {
	leases      *fakeLeaseRepo
	payments    *fakePaymentRepo
	charges     *fakeChargeRepo
	recaps      *fakeRecapRepo
	withdrawals *fakeWithdrawalRepo

	reg *repositories.Registry
	txr *fakeTxRunner

	coverageSvc   *CoverageService
	recapSvc      *RecapService
	withdrawalSvc *WithdrawalService
	deferralSvc   *ChargeDeferralService
}

func newFixture() *fixture {
	f := &fixture{
		leases:      newFakeLeaseRepo(),
		payments:    newFakePaymentRepo(),
		charges:     newFakeChargeRepo(),
		recaps:      newFakeRecapRepo(),
		withdrawals: newFakeWithdrawalRepo(),
	}
	f.reg = &repositories.Registry{
		Leases:      f.leases,
		Payments:    f.payments,
		Charges:     f.charges,
		Recaps:      f.recaps,
		Withdrawals: f.withdrawals,
	}
	f.txr = &fakeTxRunner{reg: f.reg}

	publisher := &nopPublisher{}
	f.coverageSvc = NewCoverageService(f.payments)
	f.recapSvc = NewRecapService(f.coverageSvc, publisher)
	f.withdrawalSvc = NewWithdrawalService(f.reg, f.txr, f.recapSvc, publisher)
	f.deferralSvc = NewChargeDeferralService(f.reg, f.txr, f.recapSvc)
	return f
}

type nopPublisher struct{}

func (*nopPublisher) WithdrawalCreated(uuid.UUID, time.Time, decimal.Decimal) {}
func (*nopPublisher) WithdrawalRejected(uuid.UUID, time.Time, string)         {}
func (*nopPublisher) RecapUpdated(uuid.UUID, time.Time)                       {}

func (f *fixture) addLease(landlordID uuid.UUID, rent int64, start time.Time) *models.Lease {
	l := &models.Lease{
		ID:              uuid.New(),
		PropertyID:      uuid.New(),
		LandlordID:      landlordID,
		TenantID:        uuid.New(),
		RentAmount:      decimal.NewFromInt(rent),
		MonthlyCharges:  decimal.Zero,
		RequiredDeposit: decimal.Zero,
		RequiredAdvance: decimal.Zero,
		StartMonth:      utils.MonthStart(start),
		Active:          true,
		CreatedAt:       start,
	}
	f.leases.leases[l.ID] = l
	return l
}

func (f *fixture) addPayment(leaseID uuid.UUID, amount int64, paidAt time.Time, kind models.PaymentKindType) *models.Payment {
	p := &models.Payment{
		ID:        uuid.New(),
		LeaseID:   leaseID,
		Amount:    decimal.NewFromInt(amount),
		PaidAt:    paidAt,
		Kind:      kind,
		Status:    models.PaymentStatusValidated,
		CreatedAt: paidAt,
	}
	f.payments.payments = append(f.payments.payments, p)
	return p
}

func (f *fixture) addLandlordCharge(landlordID uuid.UUID, amount int64, month time.Time) *models.LandlordCharge {
	c := &models.LandlordCharge{
		ID:             uuid.New(),
		LandlordID:     landlordID,
		Amount:         decimal.NewFromInt(amount),
		Label:          "test charge",
		EffectiveMonth: utils.MonthStart(month),
		Status:         models.LandlordChargeStatusPending,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	f.charges.landlordCharges[c.ID] = c
	return c
}

func (f *fixture) addDeductible(leaseID uuid.UUID, amount int64, incurredAt time.Time) *models.DeductibleCharge {
	c := &models.DeductibleCharge{
		ID:         uuid.New(),
		LeaseID:    leaseID,
		Amount:     decimal.NewFromInt(amount),
		Label:      "repair",
		IncurredAt: incurredAt,
		Status:     models.DeductibleChargeStatusValidated,
		CreatedAt:  incurredAt,
	}
	f.charges.deductibles = append(f.charges.deductibles, c)
	return c
}

// onDay pins the service clock to a given day of a fixed month.
func (f *fixture) onDay(day int) {
	f.withdrawalSvc.SetNowFunc(func() time.Time {
		return time.Date(2026, time.March, day, 12, 0, 0, 0, time.UTC)
	})
}
