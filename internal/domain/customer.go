package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCreditScore is the score a customer starts at and the ceiling a reversal
// can restore to.
const MaxCreditScore = 100

type Customer struct {
	ID                uuid.UUID
	Name              string
	CreditScore       int
	LatePaymentCount  int
	LatePaymentPoints int
	Version           int64
	CreatedAt         time.Time
}
