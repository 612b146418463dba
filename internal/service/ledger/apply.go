package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
)

type ApplyPaymentRequest struct {
	LoanID      uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      domain.PaymentMethod
	Reference   *string
	CollectorID *uuid.UUID
	CollectedBy *string
}

type ApplyPaymentResult struct {
	Payment *domain.Payment
	Loan    *domain.Loan
}

// ApplyPayment applies a payment to a loan: assesses lateness against the
// maturity date, floors the new balance at zero, derives the new status, and
// commits the payment record, the loan mutation, the schedule update, and
// any credit penalty as one unit. The loan row is locked for the whole
// transition, so payments against the same loan serialize while different
// loans proceed in parallel.
func (s *Service) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	log := logging.FromContext(ctx)

	if err := validateApply(req); err != nil {
		return nil, fmt.Errorf("ApplyPayment: loan %s: %w", req.LoanID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ApplyPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	loan, err := s.loans.GetForUpdate(ctx, tx, req.LoanID)
	if err != nil {
		return nil, fmt.Errorf("ApplyPayment: loan %s: %w", req.LoanID, err)
	}

	if err := validatePayable(loan); err != nil {
		return nil, fmt.Errorf("ApplyPayment: loan %s: %w", req.LoanID, err)
	}

	assessment := s.assessor.Assess(loan.MaturityDate, req.PaymentDate)

	newBalance := loan.CurrentBalance.Sub(req.Amount)
	if newBalance.IsNegative() {
		// Overpayment is absorbed, not rejected; the snapshots below keep
		// the actually-applied delta recoverable.
		newBalance = decimal.Zero
	}

	newStatus := domain.LoanStatusGood
	switch {
	case newBalance.IsZero():
		newStatus = domain.LoanStatusFullPaid
	case assessment.IsLate:
		newStatus = domain.LoanStatusPastDue
	}

	// Penalize before inserting the payment so the score delta the penalty
	// actually applied (less than the configured amount once the score
	// floors at zero) is snapshotted on the record for exact reversal.
	scoreDelta := 0
	if assessment.IsLate {
		scoreDelta, err = s.penalizeCustomer(ctx, tx, loan.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("ApplyPayment: %w", err)
		}
	}

	now := s.now()
	p := &domain.Payment{
		ID:               uuid.New(),
		PaymentCode:      newPaymentCode(now),
		LoanID:           loan.ID,
		CustomerID:       loan.CustomerID,
		Amount:           req.Amount,
		PaymentDate:      req.PaymentDate,
		BalanceBefore:    loan.CurrentBalance,
		BalanceAfter:     newBalance,
		DaysLate:         assessment.DaysLate,
		LateFee:          assessment.LateFee,
		IsLate:           assessment.IsLate,
		CreditScoreDelta: scoreDelta,
		Method:           req.Method,
		Reference:        req.Reference,
		CollectorID:      req.CollectorID,
		CollectedBy:      req.CollectedBy,
		Status:           domain.PaymentStatusActive,
		CreatedAt:        now,
	}

	if err := s.payments.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("ApplyPayment: create payment: %w", err)
	}

	if err := s.loans.UpdateState(ctx, tx, loan.ID, newBalance, newStatus, loan.Version+1); err != nil {
		return nil, fmt.Errorf("ApplyPayment: update loan %s: %w", loan.ID, err)
	}

	if newStatus == domain.LoanStatusFullPaid {
		if err := s.schedule.SetStatusByLoan(ctx, tx, loan.ID, domain.ScheduleEntryStatusPaid); err != nil {
			return nil, fmt.Errorf("ApplyPayment: update schedule for loan %s: %w", loan.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ApplyPayment: loan %s: %w: %v", loan.ID, domain.ErrLedgerConsistency, err)
	}

	s.invalidateSummary(ctx)

	loan.CurrentBalance = newBalance
	loan.Status = newStatus
	loan.Version++
	loan.UpdatedAt = now

	log.Info("payment applied",
		"payment_id", p.ID,
		"payment_code", p.PaymentCode,
		"loan_id", loan.ID,
		"amount", req.Amount,
		"new_balance", newBalance,
		"new_status", newStatus,
		"days_late", assessment.DaysLate,
		"late_fee", assessment.LateFee,
	)

	return &ApplyPaymentResult{Payment: p, Loan: loan}, nil
}

func validateApply(req ApplyPaymentRequest) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("validateApply: %w", domain.ErrInvalidAmount)
	}
	if !req.Method.IsValid() {
		return fmt.Errorf("validateApply: method %q: %w", req.Method, domain.ErrInvalidRequest)
	}
	if req.PaymentDate.IsZero() {
		return fmt.Errorf("validateApply: payment date: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// A zero balance means the loan is settled regardless of status, so that
// check comes first: a full_paid loan reports ErrLoanSettled, and
// ErrLoanNotPayable is reserved for frozen (reversed/restructured) loans.
func validatePayable(loan *domain.Loan) error {
	if loan.CurrentBalance.IsZero() {
		return fmt.Errorf("validatePayable: %w", domain.ErrLoanSettled)
	}
	if !loan.Status.Payable() {
		return fmt.Errorf("validatePayable: status %s: %w", loan.Status, domain.ErrLoanNotPayable)
	}
	return nil
}

// penalizeCustomer locks the customer row and applies the late penalty, so
// concurrent late payments by one customer across different loans serialize
// on the customer record. It returns the score delta actually applied.
func (s *Service) penalizeCustomer(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (int, error) {
	cust, err := s.customers.GetForUpdate(ctx, tx, customerID)
	if err != nil {
		return 0, fmt.Errorf("penalizeCustomer: customer %s: %w", customerID, err)
	}
	delta := s.adjuster.OnLatePayment(cust)
	if err := s.customers.UpdateCredit(ctx, tx, cust, cust.Version+1); err != nil {
		return 0, fmt.Errorf("penalizeCustomer: customer %s: %w", customerID, err)
	}
	return delta, nil
}
