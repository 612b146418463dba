// Package portfolio folds a loan collection into the summary counts and
// totals the dashboard screens consume.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
)

type Summary struct {
	TotalLoans          int             `json:"total_loans"`
	TotalPrincipal      decimal.Decimal `json:"total_principal"`
	TotalCurrentBalance decimal.Decimal `json:"total_current_balance"`
	ActiveLoans         int             `json:"active_loans"`
	PastDueLoans        int             `json:"past_due_loans"`
	FullyPaidLoans      int             `json:"fully_paid_loans"`
}

// Summarize is a pure fold; empty input yields an all-zero summary.
func Summarize(loans []domain.Loan) Summary {
	s := Summary{
		TotalPrincipal:      decimal.Zero,
		TotalCurrentBalance: decimal.Zero,
	}

	for i := range loans {
		l := &loans[i]
		s.TotalLoans++
		s.TotalPrincipal = s.TotalPrincipal.Add(l.Principal)
		s.TotalCurrentBalance = s.TotalCurrentBalance.Add(l.CurrentBalance)

		switch l.Status {
		case domain.LoanStatusGood:
			s.ActiveLoans++
		case domain.LoanStatusPastDue:
			s.PastDueLoans++
		case domain.LoanStatusFullPaid:
			s.FullyPaidLoans++
		}
	}

	return s
}
