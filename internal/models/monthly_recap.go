package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecapStatusType defines the lifecycle of a monthly recap.
type RecapStatusType string

const (
	RecapStatusDraft     RecapStatusType = "DRAFT"
	RecapStatusValidated RecapStatusType = "VALIDATED"
	RecapStatusSent      RecapStatusType = "SENT"
	RecapStatusPaid      RecapStatusType = "PAID"
)

// MonthlyRecap is the aggregated monthly summary of a landlord's rents,
// charges and net position. One non-deleted row per (landlord, month);
// re-building a recap updates the existing row in place. Rows are
// tombstoned, never hard-deleted, to preserve the audit trail.
type MonthlyRecap struct {
	Versioned
	ID                   uuid.UUID       `json:"id"`
	LandlordID           uuid.UUID       `json:"landlord_id"`
	PeriodMonth          time.Time       `json:"period_month"` // first of month, UTC
	GrossRentTotal       decimal.Decimal `json:"gross_rent_total"`
	DeductibleTotal      decimal.Decimal `json:"deductible_total"`
	LandlordChargeTotal  decimal.Decimal `json:"landlord_charge_total"`
	NetPayable           decimal.Decimal `json:"net_payable"`
	PropertyCount        int             `json:"property_count"`
	ActiveLeaseCount     int             `json:"active_lease_count"`
	PaymentsReceived     int             `json:"payments_received"`
	GuaranteesSufficient bool            `json:"guarantees_sufficient"`
	Status               RecapStatusType `json:"status"`
	DeletedAt            *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (r *MonthlyRecap) GetID() string {
	return r.ID.String()
}
