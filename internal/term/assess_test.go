package term

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestAssessor() *Assessor {
	return NewAssessor(decimal.NewFromInt(50))
}

func TestAssess_OnTime(t *testing.T) {
	a := newTestAssessor()
	due := date(2025, time.January, 31)

	for _, paid := range []time.Time{
		due,
		due.AddDate(0, 0, -1),
		due.AddDate(0, 0, -30),
	} {
		got := a.Assess(due, paid)
		assert.Equal(t, 0, got.DaysLate)
		assert.False(t, got.IsLate)
		assert.True(t, got.LateFee.IsZero())
	}
}

func TestAssess_Late(t *testing.T) {
	tests := []struct {
		name     string
		due      time.Time
		paid     time.Time
		daysLate int
		fee      string
	}{
		{
			// Fri due, Mon paid: Sat counts, Sun skipped, Mon counts.
			name:     "weekend gap counts saturday only",
			due:      date(2025, time.January, 31),
			paid:     date(2025, time.February, 3),
			daysLate: 2,
			fee:      "50",
		},
		{
			name:     "one day late",
			due:      date(2025, time.January, 30),
			paid:     date(2025, time.January, 31),
			daysLate: 1,
			fee:      "50",
		},
		{
			// Mon Jan 6 due, paid Tue Jan 14: 7 business days, still one week.
			name:     "exactly one week",
			due:      date(2025, time.January, 6),
			paid:     date(2025, time.January, 14),
			daysLate: 7,
			fee:      "50",
		},
		{
			// One more business day starts a second fee week.
			name:     "second week started",
			due:      date(2025, time.January, 6),
			paid:     date(2025, time.January, 15),
			daysLate: 8,
			fee:      "100",
		},
		{
			// Mon Jan 6 due, paid Wed Jan 22: 14 business days across two Sundays.
			name:     "two full weeks",
			due:      date(2025, time.January, 6),
			paid:     date(2025, time.January, 22),
			daysLate: 14,
			fee:      "100",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := newTestAssessor().Assess(tc.due, tc.paid)
			assert.Equal(t, tc.daysLate, got.DaysLate)
			assert.True(t, got.IsLate)
			assert.True(t, got.LateFee.Equal(decimal.RequireFromString(tc.fee)), "fee %s", got.LateFee)
		})
	}
}

func TestAssess_SundayOnlyGapIsNotLate(t *testing.T) {
	// Due Sat Jan 4, paid Sun Jan 5: the only elapsed day is a Sunday.
	got := newTestAssessor().Assess(date(2025, time.January, 4), date(2025, time.January, 5))
	assert.Equal(t, 0, got.DaysLate)
	assert.False(t, got.IsLate)
	assert.True(t, got.LateFee.IsZero())
}
