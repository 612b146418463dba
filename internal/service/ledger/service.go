// Package ledger is the loan accounting core: it originates loans, applies
// payments, and reverses them. Every mutation of a loan, its payments, its
// schedule entry, and the customer's credit fields happens inside a single
// transaction with the loan row locked, so a payment's recorded effect and
// the derived loan state can never disagree.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
	"github.com/microcred/lendbook/internal/service/credit"
	"github.com/microcred/lendbook/internal/term"
)

type loanRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error)
	Create(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error
	UpdateState(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal, status domain.LoanStatus, newVersion int64) error
}

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.Payment, error)
	ListActiveByLoan(ctx context.Context, tx *sql.Tx, loanID uuid.UUID) ([]domain.Payment, error)
	MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason, reversedBy string, at time.Time) error
}

type customerRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Customer, error)
	UpdateCredit(ctx context.Context, tx *sql.Tx, c *domain.Customer, newVersion int64) error
}

type scheduleRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.ScheduleEntry) error
	SetStatusByLoan(ctx context.Context, tx *sql.Tx, loanID uuid.UUID, status domain.ScheduleEntryStatus) error
}

type summaryCache interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	loans     loanRepo
	payments  paymentRepo
	customers customerRepo
	schedule  scheduleRepo
	assessor  *term.Assessor
	adjuster  *credit.Adjuster
	cache     summaryCache
	db        *sql.DB
	now       func() time.Time
}

func NewService(
	loans loanRepo,
	payments paymentRepo,
	customers customerRepo,
	schedule scheduleRepo,
	assessor *term.Assessor,
	adjuster *credit.Adjuster,
	cache summaryCache,
	db *sql.DB,
) *Service {
	return &Service{
		loans:     loans,
		payments:  payments,
		customers: customers,
		schedule:  schedule,
		assessor:  assessor,
		adjuster:  adjuster,
		cache:     cache,
		db:        db,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, used by reversal timestamps and
// generated codes. Tests pin it for deterministic records.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	l, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("GetLoan: %w", err)
	}
	return l, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	return p, nil
}

func (s *Service) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]domain.Payment, error) {
	if _, err := s.loans.GetByID(ctx, loanID); err != nil {
		return nil, fmt.Errorf("ListLoanPayments: %w", err)
	}
	payments, err := s.payments.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("ListLoanPayments: %w", err)
	}
	return payments, nil
}

func (s *Service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		// Stale for at most one TTL; the cache is best-effort.
		logging.FromContext(ctx).Warn("portfolio summary invalidation failed", "error", err)
	}
}

func newLoanCode(now time.Time) string {
	return fmt.Sprintf("LN-%s-%s", now.Format("20060102"), shortID())
}

func newPaymentCode(now time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), shortID())
}

func shortID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
