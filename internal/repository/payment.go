package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/microcred/lendbook/internal/domain"
)

const paymentColumns = `id, payment_code, loan_id, customer_id, amount, payment_date,
	balance_before, balance_after, days_late, late_fee, is_late, credit_score_delta,
	method, reference, collector_id, collected_by,
	status, reversal_reason, reversed_by, reversed_at, created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			id, payment_code, loan_id, customer_id, amount, payment_date,
			balance_before, balance_after, days_late, late_fee, is_late, credit_score_delta,
			method, reference, collector_id, collected_by,
			status, reversal_reason, reversed_by, reversed_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)`,
		p.ID, p.PaymentCode, p.LoanID, p.CustomerID, p.Amount, p.PaymentDate,
		p.BalanceBefore, p.BalanceAfter, p.DaysLate, p.LateFee, p.IsLate, p.CreditScoreDelta,
		p.Method, p.Reference, p.CollectorID, p.CollectedBy,
		p.Status, p.ReversalReason, p.ReversedBy, p.ReversedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row; the reversal handler relies on this to
// make the active-to-reversed transition happen at most once.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY created_at`, loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByLoan: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows, "ListByLoan")
}

func (r *PaymentRepository) ListActiveByLoan(ctx context.Context, tx *sql.Tx, loanID uuid.UUID) ([]domain.Payment, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE loan_id = $1 AND status = $2 ORDER BY created_at`,
		loanID, domain.PaymentStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveByLoan: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows, "ListActiveByLoan")
}

// MarkReversed flips an active payment to reversed and stamps the reversal
// fields. The status guard in the WHERE clause makes the transition terminal.
func (r *PaymentRepository) MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason, reversedBy string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, reversal_reason = $2, reversed_by = $3, reversed_at = $4
		WHERE id = $5 AND status = $6`,
		domain.PaymentStatusReversed, reason, reversedBy, at, id, domain.PaymentStatusActive,
	)
	if err != nil {
		return fmt.Errorf("MarkReversed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkReversed: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkReversed: %w", domain.ErrPaymentNotReversible)
	}
	return nil
}

func collectPayments(rows *sql.Rows, op string) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return payments, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	var collectorID uuid.NullUUID

	err := s.Scan(
		&p.ID, &p.PaymentCode, &p.LoanID, &p.CustomerID, &p.Amount, &p.PaymentDate,
		&p.BalanceBefore, &p.BalanceAfter, &p.DaysLate, &p.LateFee, &p.IsLate, &p.CreditScoreDelta,
		&p.Method, &p.Reference, &collectorID, &p.CollectedBy,
		&p.Status, &p.ReversalReason, &p.ReversedBy, &p.ReversedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if collectorID.Valid {
		p.CollectorID = &collectorID.UUID
	}

	return &p, nil
}
