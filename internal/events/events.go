package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lokapro/ledger-service/internal/utils"
)

// Publisher emits outbound domain events consumed by the notification
// subsystem. Emission is fire-and-forget: the ledger engine has no
// dependency on delivery success.
type Publisher interface {
	WithdrawalCreated(landlordID uuid.UUID, month time.Time, netPaid decimal.Decimal)
	WithdrawalRejected(landlordID uuid.UUID, month time.Time, reason string)
	RecapUpdated(landlordID uuid.UUID, month time.Time)
}

// LogPublisher writes events to the application log. Delivery to the
// actual notification channels happens out of process.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) WithdrawalCreated(landlordID uuid.UUID, month time.Time, netPaid decimal.Decimal) {
	utils.Logger.Infof("event: withdrawal_created landlord=%s month=%s net_paid=%s", landlordID, utils.MonthLabel(month), netPaid)
}

func (p *LogPublisher) WithdrawalRejected(landlordID uuid.UUID, month time.Time, reason string) {
	utils.Logger.Infof("event: withdrawal_rejected landlord=%s month=%s reason=%s", landlordID, utils.MonthLabel(month), reason)
}

func (p *LogPublisher) RecapUpdated(landlordID uuid.UUID, month time.Time) {
	utils.Logger.Infof("event: recap_updated landlord=%s month=%s", landlordID, utils.MonthLabel(month))
}
