package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lease represents a rental agreement between a landlord and a tenant.
// Leases are created by contract management and are read-only to the
// ledger engine.
type Lease struct {
	ID              uuid.UUID       `json:"id"`
	PropertyID      uuid.UUID       `json:"property_id"`
	LandlordID      uuid.UUID       `json:"landlord_id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	RentAmount      decimal.Decimal `json:"rent_amount"`
	MonthlyCharges  decimal.Decimal `json:"monthly_charges"`
	RequiredDeposit decimal.Decimal `json:"required_deposit"`
	RequiredAdvance decimal.Decimal `json:"required_advance"`
	StartMonth      time.Time       `json:"start_month"`         // first of month, UTC
	EndMonth        *time.Time      `json:"end_month,omitempty"` // nil = open-ended
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CoversMonth reports whether the lease's contract window includes the
// given normalized month.
func (l *Lease) CoversMonth(month time.Time) bool {
	if month.Before(l.StartMonth) {
		return false
	}
	if l.EndMonth != nil && month.After(*l.EndMonth) {
		return false
	}
	return true
}
