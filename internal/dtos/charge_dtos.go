package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLandlordChargeRequest records a new landlord-side charge
// against a target month.
type CreateLandlordChargeRequest struct {
	LandlordID uuid.UUID       `json:"landlord_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Label      string          `json:"label" validate:"required"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	Year       int             `json:"year" validate:"required,min=2000,max=2100"`
}

// UpdateLandlordChargeRequest edits an existing charge's amount.
type UpdateLandlordChargeRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// LandlordChargeDTO is the JSON view of a landlord charge. The
// effective month may differ from the requested one when the charge was
// deferred past locked withdrawals.
type LandlordChargeDTO struct {
	ID             uuid.UUID `json:"id"`
	LandlordID     uuid.UUID `json:"landlord_id"`
	Amount         string    `json:"amount"`
	Label          string    `json:"label"`
	EffectiveMonth string    `json:"effective_month"` // YYYY-MM
	Status         string    `json:"status"`
	DeferralCount  int       `json:"deferral_count"`
	CreatedAt      time.Time `json:"created_at"`
}
