package sweeper_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/repository"
	"github.com/microcred/lendbook/internal/service/sweeper"
	"github.com/microcred/lendbook/internal/testutil"
)

func TestRunOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweep := sweeper.New(repository.NewLoanRepository(db), nil, db, logger, "@daily")

	cust := testutil.SeedCustomer(t, db, "Overdue Borrower")

	pastRelease := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	futureRelease := time.Now().UTC().AddDate(0, 0, 1)

	matured := testutil.SeedLoan(t, db, cust.ID, "LN-SW-MATURED", "10000", "6", pastRelease, 25)
	current := testutil.SeedLoan(t, db, cust.ID, "LN-SW-CURRENT", "10000", "6", futureRelease, 25)
	settled := testutil.SeedLoan(t, db, cust.ID, "LN-SW-SETTLED", "10000", "6", pastRelease, 25)
	testutil.SetLoanStatus(t, db, settled.ID, domain.LoanStatusFullPaid)
	flaggedAlready := testutil.SeedLoan(t, db, cust.ID, "LN-SW-FLAGGED", "10000", "6", pastRelease, 25)
	testutil.SetLoanStatus(t, db, flaggedAlready.ID, domain.LoanStatusPastDue)

	flagged, err := sweep.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	_, status := testutil.GetLoanState(t, db, matured.ID)
	assert.Equal(t, domain.LoanStatusPastDue, status)

	_, status = testutil.GetLoanState(t, db, current.ID)
	assert.Equal(t, domain.LoanStatusGood, status)

	_, status = testutil.GetLoanState(t, db, settled.ID)
	assert.Equal(t, domain.LoanStatusFullPaid, status)

	// A second sweep finds nothing left to flag.
	flagged, err = sweep.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}
