package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
)

// ReversePayment undoes a previously applied payment in full: the payment
// row is marked reversed (a terminal, once-only transition), the loan gets
// back the exact delta that payment removed, the loan status is recomputed
// from what remains, and a late payment's credit penalty is undone. The
// payment and loan rows are locked in the same order the ledger locks them,
// so reversals serialize against concurrent payments.
//
// Restoring the snapshot delta rather than the requested amount keeps the
// arithmetic correct when the original payment overpaid and floored the
// balance at zero. Reversing a payment on a fully paid loan reopens it.
func (s *Service) ReversePayment(ctx context.Context, paymentID uuid.UUID, reason, reversedBy string) error {
	log := logging.FromContext(ctx)

	if reason == "" || reversedBy == "" {
		return fmt.Errorf("ReversePayment: payment %s: reason and reverser required: %w", paymentID, domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReversePayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := s.payments.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return fmt.Errorf("ReversePayment: payment %s: %w", paymentID, err)
	}
	if p.Status != domain.PaymentStatusActive {
		return fmt.Errorf("ReversePayment: payment %s is %s: %w", paymentID, p.Status, domain.ErrPaymentNotReversible)
	}

	loan, err := s.loans.GetForUpdate(ctx, tx, p.LoanID)
	if err != nil {
		return fmt.Errorf("ReversePayment: loan %s: %w", p.LoanID, err)
	}

	now := s.now()
	if err := s.payments.MarkReversed(ctx, tx, p.ID, reason, reversedBy, now); err != nil {
		return fmt.Errorf("ReversePayment: mark payment %s: %w", p.ID, err)
	}

	restored := loan.CurrentBalance.Add(p.AppliedDelta())

	remaining, err := s.payments.ListActiveByLoan(ctx, tx, loan.ID)
	if err != nil {
		return fmt.Errorf("ReversePayment: list payments for loan %s: %w", loan.ID, err)
	}
	newStatus := statusAfterReversal(restored, remaining)

	if err := s.loans.UpdateState(ctx, tx, loan.ID, restored, newStatus, loan.Version+1); err != nil {
		return fmt.Errorf("ReversePayment: update loan %s: %w", loan.ID, err)
	}

	scheduleStatus := domain.ScheduleEntryStatusPending
	if restored.IsZero() {
		scheduleStatus = domain.ScheduleEntryStatusPaid
	}
	if err := s.schedule.SetStatusByLoan(ctx, tx, loan.ID, scheduleStatus); err != nil {
		return fmt.Errorf("ReversePayment: update schedule for loan %s: %w", loan.ID, err)
	}

	if p.IsLate {
		if err := s.restoreCustomerCredit(ctx, tx, p.CustomerID, p.CreditScoreDelta); err != nil {
			return fmt.Errorf("ReversePayment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReversePayment: payment %s: %w: %v", p.ID, domain.ErrLedgerConsistency, err)
	}

	s.invalidateSummary(ctx)

	log.Info("payment reversed",
		"payment_id", p.ID,
		"loan_id", loan.ID,
		"restored_balance", restored,
		"new_status", newStatus,
		"reversed_by", reversedBy,
		"reason", reason,
	)

	return nil
}

// statusAfterReversal derives the loan status as if the reversed payment had
// never been applied: settled loans stay full paid, a remaining late payment
// keeps the loan past due, otherwise standing is good.
func statusAfterReversal(balance decimal.Decimal, remaining []domain.Payment) domain.LoanStatus {
	if balance.IsZero() {
		return domain.LoanStatusFullPaid
	}
	for i := range remaining {
		if remaining[i].IsLate {
			return domain.LoanStatusPastDue
		}
	}
	return domain.LoanStatusGood
}

// restoreCustomerCredit undoes a late payment's penalty using the score delta
// snapshotted on the payment, so a penalty that was floored at zero is not
// over-restored.
func (s *Service) restoreCustomerCredit(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, scoreDelta int) error {
	cust, err := s.customers.GetForUpdate(ctx, tx, customerID)
	if err != nil {
		return fmt.Errorf("restoreCustomerCredit: customer %s: %w", customerID, err)
	}
	s.adjuster.UndoLatePayment(cust, scoreDelta)
	if err := s.customers.UpdateCredit(ctx, tx, cust, cust.Version+1); err != nil {
		return fmt.Errorf("restoreCustomerCredit: customer %s: %w", customerID, err)
	}
	return nil
}
