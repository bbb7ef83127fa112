package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeductibleChargeStatusType defines the validation state of a
// tenant-advanced charge.
type DeductibleChargeStatusType string

const (
	DeductibleChargeStatusPending   DeductibleChargeStatusType = "PENDING"
	DeductibleChargeStatusValidated DeductibleChargeStatusType = "VALIDATED"
)

// DeductibleCharge is a tenant-side expense reimbursed by deducting it
// from the rent owed to the landlord. Only VALIDATED charges reduce a
// landlord's gross rent.
type DeductibleCharge struct {
	ID         uuid.UUID                  `json:"id"`
	LeaseID    uuid.UUID                  `json:"lease_id"`
	Amount     decimal.Decimal            `json:"amount"`
	Label      string                     `json:"label"`
	IncurredAt time.Time                  `json:"incurred_at"`
	Status     DeductibleChargeStatusType `json:"status"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// LandlordChargeStatusType defines the lifecycle of a landlord-side charge.
type LandlordChargeStatusType string

const (
	LandlordChargeStatusPending  LandlordChargeStatusType = "PENDING"
	LandlordChargeStatusUsed     LandlordChargeStatusType = "USED"
	LandlordChargeStatusDeferred LandlordChargeStatusType = "DEFERRED"
)

// LandlordCharge is an expense deducted directly from a landlord's
// monthly withdrawal. Its effective month is advanced by the deferral
// logic when the owning withdrawal is already locked.
type LandlordCharge struct {
	ID             uuid.UUID                `json:"id"`
	LandlordID     uuid.UUID                `json:"landlord_id"`
	Amount         decimal.Decimal          `json:"amount"`
	Label          string                   `json:"label"`
	EffectiveMonth time.Time                `json:"effective_month"` // first of month, UTC
	Status         LandlordChargeStatusType `json:"status"`
	DeferralCount  int                      `json:"deferral_count"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}
