// Package term holds the pure loan-term arithmetic: flat-rate interest,
// total obligation, and the business-day date walks used for both maturity
// and lateness. A business day is any calendar day that is not a Sunday;
// the term is granted in that unit and lateness is measured in it too.
package term

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Interest computes flat-rate interest: principal × rate / 100. No currency
// rounding is applied here; callers own the rounding policy.
func Interest(principal, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("Interest: %w", domain.ErrInvalidPrincipal)
	}
	if ratePercent.IsNegative() {
		return decimal.Zero, fmt.Errorf("Interest: %w", domain.ErrInvalidRate)
	}
	return principal.Mul(ratePercent).Div(oneHundred), nil
}

// TotalObligation is principal plus interest, the loan's balloon amount.
func TotalObligation(principal, interest decimal.Decimal) decimal.Decimal {
	return principal.Add(interest)
}

// MaturityDate walks forward one calendar day at a time from releaseDate,
// counting only non-Sundays toward termDays, and returns the last counted
// day. The result is never a Sunday.
func MaturityDate(releaseDate time.Time, termDays int) (time.Time, error) {
	if termDays < 1 {
		return time.Time{}, fmt.Errorf("MaturityDate: %w", domain.ErrInvalidTermDays)
	}

	d := truncateToDay(releaseDate)
	counted := 0
	for counted < termDays {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() != time.Sunday {
			counted++
		}
	}
	return d, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
