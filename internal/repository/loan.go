package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
)

const loanColumns = `id, code, customer_id, principal, interest_rate, interest_amount,
	total_amortization, current_balance, release_date, maturity_date, term_days,
	status, version, created_at, updated_at`

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loans (
			id, code, customer_id, principal, interest_rate, interest_amount,
			total_amortization, current_balance, release_date, maturity_date, term_days,
			status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		loan.ID, loan.Code, loan.CustomerID, loan.Principal, loan.InterestRate, loan.InterestAmount,
		loan.TotalAmortization, loan.CurrentBalance, loan.ReleaseDate, loan.MaturityDate, loan.TermDays,
		loan.Status, loan.Version, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) UpdateState(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal, status domain.LoanStatus, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET current_balance = $1, status = $2, version = $3, updated_at = now()
		WHERE id = $4 AND version = $5`,
		balance, status, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateState: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateState: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateState: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *LoanRepository) ListAll(ctx context.Context) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows, "ListAll")
}

// ListMaturedUnpaid returns loans still in good standing whose maturity date
// has passed with a balance outstanding, the sweeper's work set.
func (r *LoanRepository) ListMaturedUnpaid(ctx context.Context, asOf time.Time) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		WHERE status = $1 AND current_balance > 0 AND maturity_date < $2
		ORDER BY maturity_date`,
		domain.LoanStatusGood, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListMaturedUnpaid: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows, "ListMaturedUnpaid")
}

func collectLoans(rows *sql.Rows, op string) ([]domain.Loan, error) {
	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return loans, nil
}

func scanLoan(s scanner) (*domain.Loan, error) {
	var l domain.Loan
	err := s.Scan(
		&l.ID, &l.Code, &l.CustomerID, &l.Principal, &l.InterestRate, &l.InterestAmount,
		&l.TotalAmortization, &l.CurrentBalance, &l.ReleaseDate, &l.MaturityDate, &l.TermDays,
		&l.Status, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
