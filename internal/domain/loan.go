package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusGood         LoanStatus = "good"
	LoanStatusPastDue      LoanStatus = "past_due"
	LoanStatusFullPaid     LoanStatus = "full_paid"
	LoanStatusReversed     LoanStatus = "reversed"
	LoanStatusRestructured LoanStatus = "restructured"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusGood, LoanStatusPastDue, LoanStatusFullPaid, LoanStatusReversed, LoanStatusRestructured:
		return true
	default:
		return false
	}
}

// Payable reports whether the ledger accepts payments against a loan in this
// status. Reversed and restructured loans are frozen; settlement is checked
// separately against the balance.
func (s LoanStatus) Payable() bool {
	return s == LoanStatusGood || s == LoanStatusPastDue
}

type Loan struct {
	ID                uuid.UUID
	Code              string
	CustomerID        uuid.UUID
	Principal         decimal.Decimal
	InterestRate      decimal.Decimal
	InterestAmount    decimal.Decimal
	TotalAmortization decimal.Decimal
	CurrentBalance    decimal.Decimal
	ReleaseDate       time.Time
	MaturityDate      time.Time
	TermDays          int
	Status            LoanStatus
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
