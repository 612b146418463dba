package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	ErrInvalidPrincipal = errors.New("principal must be greater than zero")
	ErrInvalidRate      = errors.New("interest rate must not be negative")
	ErrInvalidTermDays  = errors.New("term days must be at least 1")

	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrLoanSettled          = errors.New("loan is already fully settled")
	ErrLoanNotPayable       = errors.New("loan does not accept payments in its current status")
	ErrPaymentNotReversible = errors.New("payment is not reversible")

	ErrLedgerConsistency = errors.New("ledger commit failed, no partial state persisted")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrInvalidRequest    = errors.New("invalid request")
)
