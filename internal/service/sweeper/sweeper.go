// Package sweeper flags matured, unpaid loans as past due on a schedule, so
// dashboard statuses stay honest for loans that simply stopped paying.
package sweeper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
)

type loanRepo interface {
	ListMaturedUnpaid(ctx context.Context, asOf time.Time) ([]domain.Loan, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error)
	UpdateState(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal, status domain.LoanStatus, newVersion int64) error
}

type summaryCache interface {
	Invalidate(ctx context.Context) error
}

type Sweeper struct {
	loans    loanRepo
	cache    summaryCache
	db       *sql.DB
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
}

func New(loans loanRepo, cache summaryCache, db *sql.DB, logger *slog.Logger, schedule string) *Sweeper {
	return &Sweeper{
		loans:    loans,
		cache:    cache,
		db:       db,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(),
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		flagged, err := s.RunOnce(context.Background())
		if err != nil {
			s.logger.Error("past-due sweep failed", "error", err)
			return
		}
		if flagged > 0 {
			s.logger.Info("past-due sweep completed", "flagged", flagged)
		}
	})
	if err != nil {
		return fmt.Errorf("Start: schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("past-due sweeper started", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("past-due sweeper stopped")
}

// RunOnce flags every good-standing loan whose maturity has passed with a
// balance outstanding. Each loan is re-checked under its row lock, so a
// payment racing the sweep wins cleanly on one side or the other.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	candidates, err := s.loans.ListMaturedUnpaid(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("RunOnce: %w", err)
	}

	flagged := 0
	for i := range candidates {
		ok, err := s.flagLoan(ctx, candidates[i].ID, today)
		if err != nil {
			s.logger.Error("failed to flag loan past due", "loan_id", candidates[i].ID, "error", err)
			continue
		}
		if ok {
			flagged++
		}
	}

	if flagged > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("portfolio summary invalidation failed", "error", err)
		}
	}

	return flagged, nil
}

func (s *Sweeper) flagLoan(ctx context.Context, loanID uuid.UUID, today time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("flagLoan: begin tx: %w", err)
	}
	defer tx.Rollback()

	loan, err := s.loans.GetForUpdate(ctx, tx, loanID)
	if err != nil {
		return false, fmt.Errorf("flagLoan: %w", err)
	}

	// Re-check under the lock: a payment may have settled or flagged the
	// loan between the candidate query and here.
	if loan.Status != domain.LoanStatusGood || loan.CurrentBalance.IsZero() || !loan.MaturityDate.Before(today) {
		return false, nil
	}

	if err := s.loans.UpdateState(ctx, tx, loan.ID, loan.CurrentBalance, domain.LoanStatusPastDue, loan.Version+1); err != nil {
		return false, fmt.Errorf("flagLoan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("flagLoan: commit: %w", err)
	}
	return true, nil
}
