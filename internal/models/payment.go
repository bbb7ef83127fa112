package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentKindType defines what a payment was made for.
type PaymentKindType string

const (
	PaymentKindRent    PaymentKindType = "RENT"
	PaymentKindPartial PaymentKindType = "PARTIAL"
	PaymentKindAdvance PaymentKindType = "ADVANCE"
	PaymentKindDeposit PaymentKindType = "DEPOSIT"
	PaymentKindCharge  PaymentKindType = "CHARGE"
)

// PaymentStatusType defines the validation state of a payment.
type PaymentStatusType string

const (
	PaymentStatusPending   PaymentStatusType = "PENDING"
	PaymentStatusValidated PaymentStatusType = "VALIDATED"
	PaymentStatusRefused   PaymentStatusType = "REFUSED"
	PaymentStatusCancelled PaymentStatusType = "CANCELLED"
)

// Payment is a single payment event recorded against a lease. Only
// VALIDATED payments participate in coverage computation.
type Payment struct {
	ID        uuid.UUID         `json:"id"`
	LeaseID   uuid.UUID         `json:"lease_id"`
	Amount    decimal.Decimal   `json:"amount"`
	PaidAt    time.Time         `json:"paid_at"`
	Kind      PaymentKindType   `json:"kind"`
	Status    PaymentStatusType `json:"status"`
	Reference *string           `json:"reference,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// CountsTowardRent reports whether the payment's kind participates in
// month-coverage simulation.
func (p *Payment) CountsTowardRent() bool {
	switch p.Kind {
	case PaymentKindRent, PaymentKindPartial, PaymentKindAdvance:
		return true
	}
	return false
}
