// Package credit mutates a customer's risk fields in response to payment
// timeliness. It knows nothing about loans or the ledger beyond the late
// signal; invoking it at most once per late payment is the caller's job.
package credit

import "github.com/microcred/lendbook/internal/domain"

type Adjuster struct {
	penalty int
}

func NewAdjuster(penalty int) *Adjuster {
	return &Adjuster{penalty: penalty}
}

// OnLatePayment applies the configured penalty: the score drops (floored at
// zero) while the count and points climb. It returns the score delta it
// actually applied, which is less than the penalty when the floor kicked in;
// callers record it so a later undo restores exactly that amount.
func (a *Adjuster) OnLatePayment(c *domain.Customer) int {
	before := c.CreditScore
	c.CreditScore -= a.penalty
	if c.CreditScore < 0 {
		c.CreditScore = 0
	}
	c.LatePaymentCount++
	c.LatePaymentPoints += a.penalty
	return before - c.CreditScore
}

// UndoLatePayment is the inverse used when a late payment is reversed.
// scoreDelta is the value OnLatePayment returned for that payment; restoring
// it rather than the configured penalty keeps the undo exact when the score
// was floored at zero. The cap and counter floors guard against state the
// adjuster did not create.
func (a *Adjuster) UndoLatePayment(c *domain.Customer, scoreDelta int) {
	c.CreditScore += scoreDelta
	if c.CreditScore > domain.MaxCreditScore {
		c.CreditScore = domain.MaxCreditScore
	}
	if c.LatePaymentCount > 0 {
		c.LatePaymentCount--
	}
	c.LatePaymentPoints -= a.penalty
	if c.LatePaymentPoints < 0 {
		c.LatePaymentPoints = 0
	}
}
