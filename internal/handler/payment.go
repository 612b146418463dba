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

type paymentService interface {
	ApplyPayment(ctx context.Context, req ledger.ApplyPaymentRequest) (*ledger.ApplyPaymentResult, error)
	ReversePayment(ctx context.Context, paymentID uuid.UUID, reason, reversedBy string) error
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type applyPaymentRequest struct {
	Amount      string  `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	Method      string  `json:"method"`
	Reference   *string `json:"reference,omitempty"`
	CollectorID *string `json:"collector_id,omitempty"`
	CollectedBy *string `json:"collected_by,omitempty"`
}

func (r applyPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if amt, err := decimal.NewFromString(r.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a decimal number"})
	} else if amt.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if _, err := time.Parse("2006-01-02", r.PaymentDate); err != nil {
		errs = append(errs, FieldError{Field: "payment_date", Message: "must be a date in YYYY-MM-DD format"})
	}

	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "must be cash, check, or transfer"})
	}

	if r.CollectorID != nil {
		if _, err := uuid.Parse(*r.CollectorID); err != nil {
			errs = append(errs, FieldError{Field: "collector_id", Message: "must be a valid uuid"})
		}
	}

	return errs
}

type reversePaymentRequest struct {
	Reason     string `json:"reason"`
	ReversedBy string `json:"reversed_by"`
}

func (r reversePaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "required"})
	}
	if r.ReversedBy == "" {
		errs = append(errs, FieldError{Field: "reversed_by", Message: "required"})
	}
	return errs
}

type paymentDTO struct {
	ID             uuid.UUID       `json:"id"`
	PaymentCode    string          `json:"payment_code"`
	LoanID         uuid.UUID       `json:"loan_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    string          `json:"payment_date"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	DaysLate       int             `json:"days_late"`
	LateFee        decimal.Decimal `json:"late_fee"`
	IsLate         bool            `json:"is_late"`
	Method         string          `json:"method"`
	Reference      *string         `json:"reference,omitempty"`
	CollectedBy    *string         `json:"collected_by,omitempty"`
	Status         string          `json:"status"`
	ReversalReason *string         `json:"reversal_reason,omitempty"`
	ReversedBy     *string         `json:"reversed_by,omitempty"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:             p.ID,
		PaymentCode:    p.PaymentCode,
		LoanID:         p.LoanID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		PaymentDate:    p.PaymentDate.Format("2006-01-02"),
		BalanceBefore:  p.BalanceBefore,
		BalanceAfter:   p.BalanceAfter,
		DaysLate:       p.DaysLate,
		LateFee:        p.LateFee,
		IsLate:         p.IsLate,
		Method:         string(p.Method),
		Reference:      p.Reference,
		CollectedBy:    p.CollectedBy,
		Status:         string(p.Status),
		ReversalReason: p.ReversalReason,
		ReversedBy:     p.ReversedBy,
		ReversedAt:     p.ReversedAt,
		CreatedAt:      p.CreatedAt,
	}
}

type applyPaymentResponse struct {
	Payment paymentDTO `json:"payment"`
	Loan    loanDTO    `json:"loan"`
}

func (h *PaymentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req applyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	paymentDate, _ := time.Parse("2006-01-02", req.PaymentDate)

	var collectorID *uuid.UUID
	if req.CollectorID != nil {
		id, _ := uuid.Parse(*req.CollectorID)
		collectorID = &id
	}

	result, err := h.payments.ApplyPayment(r.Context(), ledger.ApplyPaymentRequest{
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      domain.PaymentMethod(req.Method),
		Reference:   req.Reference,
		CollectorID: collectorID,
		CollectedBy: req.CollectedBy,
	})
	if err != nil {
		log.Warn("payment application failed", "loan_id", loanID, "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", result.Payment.ID))
	RespondSuccess(w, http.StatusCreated, applyPaymentResponse{
		Payment: toPaymentDTO(result.Payment),
		Loan:    toLoanDTO(result.Loan),
	})
}

func (h *PaymentHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req reversePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.payments.ReversePayment(r.Context(), paymentID, req.Reason, req.ReversedBy); err != nil {
		log.Warn("payment reversal failed", "payment_id", paymentID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"payment_id": paymentID.String(), "status": "reversed"})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	p, err := h.payments.GetPayment(r.Context(), paymentID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}
