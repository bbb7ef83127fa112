package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatusType defines the possible states of a landlord withdrawal.
type WithdrawalStatusType string

const (
	WithdrawalStatusPending   WithdrawalStatusType = "PENDING"
	WithdrawalStatusValidated WithdrawalStatusType = "VALIDATED"
	WithdrawalStatusPaid      WithdrawalStatusType = "PAID"
)

// Withdrawal is the monthly net payout computed for a landlord. One
// non-deleted row per (landlord, month). Once VALIDATED or PAID the
// row is locked: no charge mutation may alter its totals.
type Withdrawal struct {
	Versioned
	ID                  uuid.UUID            `json:"id"`
	LandlordID          uuid.UUID            `json:"landlord_id"`
	PeriodMonth         time.Time            `json:"period_month"` // first of month, UTC
	GrossRentTotal      decimal.Decimal      `json:"gross_rent_total"`
	DeductibleTotal     decimal.Decimal      `json:"deductible_total"`
	LandlordChargeTotal decimal.Decimal      `json:"landlord_charge_total"`
	NetAmount           decimal.Decimal      `json:"net_amount"`
	Commission          decimal.Decimal      `json:"commission"`
	NetPaid             decimal.Decimal      `json:"net_paid"`
	Status              WithdrawalStatusType `json:"status"`
	RequestedBy         string               `json:"requested_by"`
	DeletedAt           *time.Time           `json:"deleted_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func (w *Withdrawal) GetID() string {
	return w.ID.String()
}

// Locked reports whether the withdrawal may no longer be recomputed.
func (w *Withdrawal) Locked() bool {
	return w.Status == WithdrawalStatusValidated || w.Status == WithdrawalStatusPaid
}
