package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/logging"
	"github.com/microcred/lendbook/internal/service/ledger"
)

type loanService interface {
	OriginateLoan(ctx context.Context, req ledger.OriginateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]domain.Payment, error)
}

type LoanHandler struct {
	loans loanService
}

func NewLoanHandler(loans loanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type originateLoanRequest struct {
	CustomerID  string `json:"customer_id"`
	Code        string `json:"code"`
	Principal   string `json:"principal"`
	RatePercent string `json:"rate_percent"`
	ReleaseDate string `json:"release_date"`
	TermDays    int    `json:"term_days"`
}

func (r originateLoanRequest) Validate() []FieldError {
	var errs []FieldError

	if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid uuid"})
	}
	if r.Principal == "" {
		errs = append(errs, FieldError{Field: "principal", Message: "required"})
	} else if _, err := decimal.NewFromString(r.Principal); err != nil {
		errs = append(errs, FieldError{Field: "principal", Message: "must be a decimal number"})
	}
	if r.RatePercent == "" {
		errs = append(errs, FieldError{Field: "rate_percent", Message: "required"})
	} else if _, err := decimal.NewFromString(r.RatePercent); err != nil {
		errs = append(errs, FieldError{Field: "rate_percent", Message: "must be a decimal number"})
	}
	if _, err := time.Parse("2006-01-02", r.ReleaseDate); err != nil {
		errs = append(errs, FieldError{Field: "release_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if r.TermDays < 1 {
		errs = append(errs, FieldError{Field: "term_days", Message: "must be at least 1"})
	}

	return errs
}

type loanDTO struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	Principal         decimal.Decimal `json:"principal"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	TotalAmortization decimal.Decimal `json:"total_amortization"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	ReleaseDate       string          `json:"release_date"`
	MaturityDate      string          `json:"maturity_date"`
	TermDays          int             `json:"term_days"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toLoanDTO(l *domain.Loan) loanDTO {
	return loanDTO{
		ID:                l.ID,
		Code:              l.Code,
		CustomerID:        l.CustomerID,
		Principal:         l.Principal,
		InterestRate:      l.InterestRate,
		InterestAmount:    l.InterestAmount,
		TotalAmortization: l.TotalAmortization,
		CurrentBalance:    l.CurrentBalance,
		ReleaseDate:       l.ReleaseDate.Format("2006-01-02"),
		MaturityDate:      l.MaturityDate.Format("2006-01-02"),
		TermDays:          l.TermDays,
		Status:            string(l.Status),
		CreatedAt:         l.CreatedAt,
	}
}

func (h *LoanHandler) Originate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req originateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	principal, _ := decimal.NewFromString(req.Principal)
	rate, _ := decimal.NewFromString(req.RatePercent)
	releaseDate, _ := time.Parse("2006-01-02", req.ReleaseDate)

	loan, err := h.loans.OriginateLoan(r.Context(), ledger.OriginateLoanRequest{
		CustomerID:  customerID,
		Code:        req.Code,
		Principal:   principal,
		RatePercent: rate,
		ReleaseDate: releaseDate,
		TermDays:    req.TermDays,
	})
	if err != nil {
		log.Warn("loan origination failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/loans/%s", loan.ID))
	RespondSuccess(w, http.StatusCreated, toLoanDTO(loan))
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLoanDTO(loan))
}

func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	payments, err := h.loans.ListLoanPayments(r.Context(), loanID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]paymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, toPaymentDTO(&payments[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
