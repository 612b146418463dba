package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
	"github.com/microcred/lendbook/internal/term"
)

type OriginateLoanRequest struct {
	CustomerID  uuid.UUID
	Code        string
	Principal   decimal.Decimal
	RatePercent decimal.Decimal
	ReleaseDate time.Time
	TermDays    int
}

// OriginateLoan computes the loan's terms (flat interest, total obligation,
// business-day maturity date) and persists the loan together with its single
// balloon schedule entry. The loan opens in good standing with the full
// obligation outstanding.
func (s *Service) OriginateLoan(ctx context.Context, req OriginateLoanRequest) (*domain.Loan, error) {
	log := logging.FromContext(ctx)

	if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("OriginateLoan: customer %s: %w", req.CustomerID, err)
	}

	interest, err := term.Interest(req.Principal, req.RatePercent)
	if err != nil {
		return nil, fmt.Errorf("OriginateLoan: %w", err)
	}
	maturity, err := term.MaturityDate(req.ReleaseDate, req.TermDays)
	if err != nil {
		return nil, fmt.Errorf("OriginateLoan: %w", err)
	}
	total := term.TotalObligation(req.Principal, interest)

	now := s.now()
	code := req.Code
	if code == "" {
		code = newLoanCode(now)
	}

	loan := &domain.Loan{
		ID:                uuid.New(),
		Code:              code,
		CustomerID:        req.CustomerID,
		Principal:         req.Principal,
		InterestRate:      req.RatePercent,
		InterestAmount:    interest,
		TotalAmortization: total,
		CurrentBalance:    total,
		ReleaseDate:       req.ReleaseDate,
		MaturityDate:      maturity,
		TermDays:          req.TermDays,
		Status:            domain.LoanStatusGood,
		Version:           0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	entry := &domain.ScheduleEntry{
		ID:        uuid.New(),
		LoanID:    loan.ID,
		DueDate:   maturity,
		Principal: req.Principal,
		Interest:  interest,
		Total:     total,
		Status:    domain.ScheduleEntryStatusPending,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("OriginateLoan: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.loans.Create(ctx, tx, loan); err != nil {
		return nil, fmt.Errorf("OriginateLoan: create loan: %w", err)
	}
	if err := s.schedule.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("OriginateLoan: create schedule entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("OriginateLoan: %w: %v", domain.ErrLedgerConsistency, err)
	}

	s.invalidateSummary(ctx)

	log.Info("loan originated",
		"loan_id", loan.ID,
		"code", loan.Code,
		"customer_id", loan.CustomerID,
		"principal", loan.Principal,
		"interest", loan.InterestAmount,
		"total", loan.TotalAmortization,
		"maturity_date", loan.MaturityDate.Format("2006-01-02"),
	)

	return loan, nil
}
