package term

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assessment is the lateness verdict for a payment against a due date.
type Assessment struct {
	DaysLate int
	IsLate   bool
	LateFee  decimal.Decimal
}

// Assessor measures lateness in business days (Sundays excluded, mirroring
// the maturity-date rule) and prices it with a flat fee per started week.
type Assessor struct {
	weeklyFee decimal.Decimal
}

func NewAssessor(weeklyFee decimal.Decimal) *Assessor {
	return &Assessor{weeklyFee: weeklyFee}
}

// Assess counts the non-Sunday days in (dueDate, paymentDate]. A payment on
// or before the due date is never late. The fee is weeklyFee per started
// week of lateness; it is flat, not interest-bearing.
func (a *Assessor) Assess(dueDate, paymentDate time.Time) Assessment {
	due := truncateToDay(dueDate)
	paid := truncateToDay(paymentDate)

	if !paid.After(due) {
		return Assessment{LateFee: decimal.Zero}
	}

	daysLate := 0
	for d := due.AddDate(0, 0, 1); !d.After(paid); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			daysLate++
		}
	}

	if daysLate == 0 {
		// The only days between due and payment were Sundays.
		return Assessment{LateFee: decimal.Zero}
	}

	weeksStarted := (daysLate + 6) / 7
	return Assessment{
		DaysLate: daysLate,
		IsLate:   true,
		LateFee:  a.weeklyFee.Mul(decimal.NewFromInt(int64(weeksStarted))),
	}
}
