package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusActive   PaymentStatus = "active"
	PaymentStatusReversed PaymentStatus = "reversed"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCheck    PaymentMethod = "check"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodTransfer:
		return true
	default:
		return false
	}
}

// Payment is an immutable record of a payment applied to a loan. The balance
// snapshots are taken at application time and never recomputed; reversal
// fields transition exactly once from unset to set.
type Payment struct {
	ID             uuid.UUID
	PaymentCode    string
	LoanID         uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	PaymentDate    time.Time
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	DaysLate       int
	LateFee        decimal.Decimal
	IsLate         bool
	// CreditScoreDelta is the score drop this payment actually caused (zero
	// unless late, and less than the configured penalty when the score
	// floored at zero). Reversal restores exactly this amount.
	CreditScoreDelta int
	Method         PaymentMethod
	Reference      *string
	CollectorID    *uuid.UUID
	CollectedBy    *string
	Status         PaymentStatus
	ReversalReason *string
	ReversedBy     *string
	ReversedAt     *time.Time
	CreatedAt      time.Time
}

// AppliedDelta is the amount the payment actually removed from the loan
// balance. It differs from Amount when an overpayment floored the balance
// at zero.
func (p *Payment) AppliedDelta() decimal.Decimal {
	return p.BalanceBefore.Sub(p.BalanceAfter)
}
