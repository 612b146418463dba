package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/term"
)

func SeedCustomer(t *testing.T, db *sql.DB, name string) *domain.Customer {
	t.Helper()

	c := &domain.Customer{
		ID:          uuid.New(),
		Name:        name,
		CreditScore: domain.MaxCreditScore,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO customers (id, name, credit_score, late_payment_count, late_payment_points, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.CreditScore, c.LatePaymentCount, c.LatePaymentPoints, c.Version, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed customer %s: %v", name, err)
	}
	return c
}

// SeedLoan inserts a loan with its terms derived the same way origination
// derives them, plus the single balloon schedule entry.
func SeedLoan(t *testing.T, db *sql.DB, customerID uuid.UUID, code, principal, ratePercent string, releaseDate time.Time, termDays int) *domain.Loan {
	t.Helper()

	p := decimal.RequireFromString(principal)
	rate := decimal.RequireFromString(ratePercent)

	interest, err := term.Interest(p, rate)
	if err != nil {
		t.Fatalf("seed loan %s: interest: %v", code, err)
	}
	maturity, err := term.MaturityDate(releaseDate, termDays)
	if err != nil {
		t.Fatalf("seed loan %s: maturity: %v", code, err)
	}
	total := term.TotalObligation(p, interest)

	now := time.Now().UTC()
	l := &domain.Loan{
		ID:                uuid.New(),
		Code:              code,
		CustomerID:        customerID,
		Principal:         p,
		InterestRate:      rate,
		InterestAmount:    interest,
		TotalAmortization: total,
		CurrentBalance:    total,
		ReleaseDate:       releaseDate,
		MaturityDate:      maturity,
		TermDays:          termDays,
		Status:            domain.LoanStatusGood,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = db.Exec(
		`INSERT INTO loans (
			id, code, customer_id, principal, interest_rate, interest_amount,
			total_amortization, current_balance, release_date, maturity_date, term_days,
			status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		l.ID, l.Code, l.CustomerID, l.Principal, l.InterestRate, l.InterestAmount,
		l.TotalAmortization, l.CurrentBalance, l.ReleaseDate, l.MaturityDate, l.TermDays,
		l.Status, l.Version, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed loan %s: %v", code, err)
	}

	_, err = db.Exec(
		`INSERT INTO schedule_entries (id, loan_id, due_date, principal, interest, total, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), l.ID, maturity, p, interest, total, domain.ScheduleEntryStatusPending,
	)
	if err != nil {
		t.Fatalf("seed schedule entry for loan %s: %v", code, err)
	}

	return l
}

func SetLoanStatus(t *testing.T, db *sql.DB, loanID uuid.UUID, status domain.LoanStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE loans SET status = $1 WHERE id = $2`, status, loanID); err != nil {
		t.Fatalf("set loan %s status: %v", loanID, err)
	}
}

func GetLoanState(t *testing.T, db *sql.DB, loanID uuid.UUID) (decimal.Decimal, domain.LoanStatus) {
	t.Helper()

	var balance decimal.Decimal
	var status domain.LoanStatus
	err := db.QueryRow(`SELECT current_balance, status FROM loans WHERE id = $1`, loanID).Scan(&balance, &status)
	if err != nil {
		t.Fatalf("get loan state %s: %v", loanID, err)
	}
	return balance, status
}

func SetCustomerCredit(t *testing.T, db *sql.DB, customerID uuid.UUID, score, lateCount, latePoints int) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE customers SET credit_score = $1, late_payment_count = $2, late_payment_points = $3 WHERE id = $4`,
		score, lateCount, latePoints, customerID,
	)
	if err != nil {
		t.Fatalf("set customer credit %s: %v", customerID, err)
	}
}

func GetCustomerCredit(t *testing.T, db *sql.DB, customerID uuid.UUID) (score, lateCount, latePoints int) {
	t.Helper()

	err := db.QueryRow(
		`SELECT credit_score, late_payment_count, late_payment_points FROM customers WHERE id = $1`,
		customerID,
	).Scan(&score, &lateCount, &latePoints)
	if err != nil {
		t.Fatalf("get customer credit %s: %v", customerID, err)
	}
	return score, lateCount, latePoints
}

func GetScheduleStatus(t *testing.T, db *sql.DB, loanID uuid.UUID) domain.ScheduleEntryStatus {
	t.Helper()

	var status domain.ScheduleEntryStatus
	err := db.QueryRow(`SELECT status FROM schedule_entries WHERE loan_id = $1`, loanID).Scan(&status)
	if err != nil {
		t.Fatalf("get schedule status for loan %s: %v", loanID, err)
	}
	return status
}

func CountPayments(t *testing.T, db *sql.DB, loanID uuid.UUID, status domain.PaymentStatus) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payments WHERE loan_id = $1 AND status = $2`, loanID, status).Scan(&count)
	if err != nil {
		t.Fatalf("count payments for loan %s: %v", loanID, err)
	}
	return count
}
