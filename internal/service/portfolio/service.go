package portfolio

import (
	"context"
	"fmt"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
)

type loanLister interface {
	ListAll(ctx context.Context) ([]domain.Loan, error)
}

// SummaryCache is a best-effort cache over the computed summary. A miss or a
// cache failure falls through to a direct read; the ledger invalidates after
// every committed mutation, so a hit can be at most one TTL stale.
type SummaryCache interface {
	Get(ctx context.Context) (*Summary, bool)
	Set(ctx context.Context, s Summary) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	loans loanLister
	cache SummaryCache
}

func NewService(loans loanLister, cache SummaryCache) *Service {
	return &Service{loans: loans, cache: cache}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	log := logging.FromContext(ctx)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx); ok {
			return *cached, nil
		}
	}

	loans, err := s.loans.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("Summary: %w", err)
	}

	summary := Summarize(loans)

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			log.Warn("portfolio summary cache write failed", "error", err)
		}
	}

	return summary, nil
}
