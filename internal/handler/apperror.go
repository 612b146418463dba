package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidPrincipal = &AppError{http.StatusBadRequest, "INVALID_PRINCIPAL", "Principal must be greater than zero"}
	ErrInvalidRate      = &AppError{http.StatusBadRequest, "INVALID_RATE", "Interest rate must not be negative"}
	ErrInvalidTermDays  = &AppError{http.StatusBadRequest, "INVALID_TERM_DAYS", "Term days must be at least 1"}
	ErrInvalidAmount    = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}

	ErrLoanSettled          = &AppError{http.StatusUnprocessableEntity, "LOAN_ALREADY_SETTLED", "Loan is already fully settled"}
	ErrLoanNotPayable       = &AppError{http.StatusUnprocessableEntity, "LOAN_NOT_PAYABLE", "Loan does not accept payments in its current status"}
	ErrPaymentNotReversible = &AppError{http.StatusConflict, "PAYMENT_NOT_REVERSIBLE", "Payment is not reversible"}
	ErrVersionConflict      = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}

	// The commit rolled back atomically, so a retry is safe.
	ErrLedgerCommitFailed = &AppError{http.StatusServiceUnavailable, "LEDGER_COMMIT_FAILED", "Ledger commit failed, safe to retry"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
