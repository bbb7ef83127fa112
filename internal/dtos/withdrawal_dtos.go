package dtos

import (
	"time"

	"github.com/google/uuid"
)

// GenerateWithdrawalsRequest triggers batch generation for one month.
type GenerateWithdrawalsRequest struct {
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	Year        int    `json:"year" validate:"required,min=2000,max=2100"`
	TriggeredBy string `json:"triggered_by" validate:"required"`
}

// CreateWithdrawalRequest triggers a single landlord's withdrawal via
// the manual (administrator) entry point.
type CreateWithdrawalRequest struct {
	LandlordID  uuid.UUID `json:"landlord_id" validate:"required"`
	Month       int       `json:"month" validate:"required,min=1,max=12"`
	Year        int       `json:"year" validate:"required,min=2000,max=2100"`
	RequestedBy string    `json:"requested_by" validate:"required"`
}

// LandlordFailure is one landlord's recorded failure in a batch run.
type LandlordFailure struct {
	LandlordID uuid.UUID `json:"landlord_id"`
	Code       string    `json:"code"`
	Reason     string    `json:"reason"`
	Details    any       `json:"details,omitempty"`
}

// BatchSummaryResponse is the sole surface of a batch run. It always
// comes back whole: per-landlord failures are recorded, never raised.
type BatchSummaryResponse struct {
	Month          string            `json:"month"`
	CreatedCount   int               `json:"created_count"`
	DuplicateCount int               `json:"duplicate_count"`
	RejectedCount  int               `json:"rejected_count"`
	Errors         []LandlordFailure `json:"errors"`
}

// WithdrawalDTO is the JSON view of a withdrawal row.
type WithdrawalDTO struct {
	ID                  uuid.UUID `json:"id"`
	LandlordID          uuid.UUID `json:"landlord_id"`
	PeriodMonth         string    `json:"period_month"` // YYYY-MM
	GrossRentTotal      string    `json:"gross_rent_total"`
	DeductibleTotal     string    `json:"deductible_total"`
	LandlordChargeTotal string    `json:"landlord_charge_total"`
	NetAmount           string    `json:"net_amount"`
	Commission          string    `json:"commission"`
	NetPaid             string    `json:"net_paid"`
	Status              string    `json:"status"`
	RequestedBy         string    `json:"requested_by"`
	CreatedAt           time.Time `json:"created_at"`
}
