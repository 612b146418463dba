package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ScheduleEntryStatus string

const (
	ScheduleEntryStatusPending ScheduleEntryStatus = "pending"
	ScheduleEntryStatusPaid    ScheduleEntryStatus = "paid"
)

// ScheduleEntry is the single balloon installment of a loan. The due date
// mirrors the loan's maturity date, which stays authoritative for lateness.
type ScheduleEntry struct {
	ID        uuid.UUID
	LoanID    uuid.UUID
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Total     decimal.Decimal
	Status    ScheduleEntryStatus
}
