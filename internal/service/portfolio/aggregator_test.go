package portfolio

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcred/lendbook/internal/domain"
)

func loan(principal, balance string, status domain.LoanStatus) domain.Loan {
	return domain.Loan{
		Principal:      decimal.RequireFromString(principal),
		CurrentBalance: decimal.RequireFromString(balance),
		Status:         status,
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.TotalLoans)
	assert.Equal(t, 0, s.ActiveLoans)
	assert.Equal(t, 0, s.PastDueLoans)
	assert.Equal(t, 0, s.FullyPaidLoans)
	assert.True(t, s.TotalPrincipal.IsZero())
	assert.True(t, s.TotalCurrentBalance.IsZero())
}

func TestSummarize(t *testing.T) {
	loans := []domain.Loan{
		loan("10000", "10600", domain.LoanStatusGood),
		loan("5000", "2000", domain.LoanStatusPastDue),
		loan("8000", "0", domain.LoanStatusFullPaid),
		loan("3000", "3180", domain.LoanStatusGood),
		loan("1000", "1060", domain.LoanStatusReversed),
	}

	s := Summarize(loans)

	assert.Equal(t, 5, s.TotalLoans)
	assert.Equal(t, 2, s.ActiveLoans)
	assert.Equal(t, 1, s.PastDueLoans)
	assert.Equal(t, 1, s.FullyPaidLoans)
	assert.True(t, s.TotalPrincipal.Equal(decimal.RequireFromString("27000")), "principal %s", s.TotalPrincipal)
	assert.True(t, s.TotalCurrentBalance.Equal(decimal.RequireFromString("16840")), "balance %s", s.TotalCurrentBalance)
}

type fakeLister struct {
	loans []domain.Loan
	calls int
}

func (f *fakeLister) ListAll(ctx context.Context) ([]domain.Loan, error) {
	f.calls++
	return f.loans, nil
}

type memoryCache struct {
	summary *Summary
}

func (m *memoryCache) Get(ctx context.Context) (*Summary, bool) {
	if m.summary == nil {
		return nil, false
	}
	return m.summary, true
}

func (m *memoryCache) Set(ctx context.Context, s Summary) error {
	m.summary = &s
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context) error {
	m.summary = nil
	return nil
}

func TestService_Summary_ReadThrough(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{loans: []domain.Loan{loan("10000", "10600", domain.LoanStatusGood)}}
	cache := &memoryCache{}
	svc := NewService(lister, cache)

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalLoans)
	assert.Equal(t, 1, lister.calls)

	// Second read is served from cache.
	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lister.calls)

	// Invalidation forces a recompute.
	require.NoError(t, cache.Invalidate(ctx))
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}
