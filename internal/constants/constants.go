package constants

import "time"

// Withdrawal generation window. The automatic entry point only runs
// when the current day of month is inside [WindowOpenDay, end of month]
// or [1, WindowCloseDay]; the manual entry point bypasses this gate.
const (
	WindowOpenDay  = 25
	WindowCloseDay = 5
)

// CommissionRate is the agency's fee on the net withdrawal amount,
// expressed as a decimal string so services parse it once at start.
const CommissionRate = "0.10"

// CommissionPrecision is the rounding scale applied to the commission.
const CommissionPrecision = 2

// MaxChargeDeferralSteps bounds the month-advancing deferral loop.
// Each step strictly advances the month, so hitting this cap means
// locked withdrawals stretch five years ahead, which is corrupt data.
const MaxChargeDeferralSteps = 60

// Batch scheduling. The cron fires daily; the temporal gate decides
// whether the day qualifies for automatic generation.
const (
	WithdrawalGenerationCronSpec = "0 6 * * *" // 06:00 UTC daily
	WithdrawalGenerationTimeout  = 15 * time.Minute
	BatchTriggeredBySystem       = "scheduler"
)

// Reasons recorded in batch summaries and rejection events.
const (
	ReasonOutsideWindow     = "outside_window"
	ReasonMissingPrereqs    = "missing_guarantee_or_rent"
	ReasonAlreadyExists     = "withdrawal_already_exists"
	ReasonComputationFailed = "computation_failed"
)
