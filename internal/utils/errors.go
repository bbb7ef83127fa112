package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrNoRowsUpdated      = errors.New("no_rows_updated")
)

// EligibilityKind categorizes why a withdrawal could not be generated.
type EligibilityKind string

const (
	EligibilityOutsideWindow          EligibilityKind = "outside_window"
	EligibilityMissingGuaranteeOrRent EligibilityKind = "missing_guarantee_or_rent"
)

// MissingItem identifies one lease-level precondition failure, with
// enough detail to be user-actionable.
type MissingItem struct {
	LeaseID uuid.UUID       `json:"lease_id"`
	Reason  string          `json:"reason"`
	Amount  decimal.Decimal `json:"amount"`
}

// EligibilityError is returned when withdrawal generation is attempted
// outside the allowed window or when landlord preconditions are unmet.
type EligibilityError struct {
	Kind    EligibilityKind
	Missing []MissingItem
}

func (e *EligibilityError) Error() string {
	if len(e.Missing) == 0 {
		return string(e.Kind)
	}
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("lease %s: %s", m.LeaseID, m.Reason))
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
}

// DuplicateError is returned when a non-deleted withdrawal already
// exists for the requested (landlord, month).
type DuplicateError struct {
	LandlordID uuid.UUID
	Month      time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("withdrawal already exists for landlord %s in %s", e.LandlordID, MonthLabel(e.Month))
}

// ValidationError flags malformed input parameters, e.g. a bad
// month/year on the batch call or a non-positive rent amount.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ComputationError indicates corrupt input data encountered
// mid-calculation rather than a business-rule outcome.
type ComputationError struct {
	LeaseID uuid.UUID
	Reason  string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed for lease %s: %s", e.LeaseID, e.Reason)
}
