package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microcred/lendbook/internal/domain"
)

func TestOnLatePayment(t *testing.T) {
	a := NewAdjuster(5)
	c := &domain.Customer{CreditScore: 100}

	delta := a.OnLatePayment(c)

	assert.Equal(t, 5, delta)
	assert.Equal(t, 95, c.CreditScore)
	assert.Equal(t, 1, c.LatePaymentCount)
	assert.Equal(t, 5, c.LatePaymentPoints)
}

func TestOnLatePayment_ScoreFloorsAtZero(t *testing.T) {
	a := NewAdjuster(5)
	c := &domain.Customer{CreditScore: 3, LatePaymentCount: 19, LatePaymentPoints: 97}

	delta := a.OnLatePayment(c)

	assert.Equal(t, 3, delta, "only the drop to the floor was applied")
	assert.Equal(t, 0, c.CreditScore)
	assert.Equal(t, 20, c.LatePaymentCount)
	assert.Equal(t, 102, c.LatePaymentPoints)
}

func TestUndoLatePayment(t *testing.T) {
	a := NewAdjuster(5)
	c := &domain.Customer{CreditScore: 95, LatePaymentCount: 1, LatePaymentPoints: 5}

	a.UndoLatePayment(c, 5)

	assert.Equal(t, 100, c.CreditScore)
	assert.Equal(t, 0, c.LatePaymentCount)
	assert.Equal(t, 0, c.LatePaymentPoints)
}

func TestUndoLatePayment_RestoresFlooredDelta(t *testing.T) {
	a := NewAdjuster(5)
	c := &domain.Customer{CreditScore: 3, LatePaymentCount: 19, LatePaymentPoints: 97}

	delta := a.OnLatePayment(c)
	a.UndoLatePayment(c, delta)

	assert.Equal(t, 3, c.CreditScore, "undo must not overshoot the pre-payment score")
	assert.Equal(t, 19, c.LatePaymentCount)
	assert.Equal(t, 97, c.LatePaymentPoints)
}

func TestUndoLatePayment_CapsAndFloors(t *testing.T) {
	a := NewAdjuster(5)
	c := &domain.Customer{CreditScore: 98, LatePaymentCount: 0, LatePaymentPoints: 2}

	a.UndoLatePayment(c, 5)

	assert.Equal(t, domain.MaxCreditScore, c.CreditScore)
	assert.Equal(t, 0, c.LatePaymentCount)
	assert.Equal(t, 0, c.LatePaymentPoints)
}
