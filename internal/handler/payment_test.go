package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcred/lendbook/internal/domain"
	"github.com/microcred/lendbook/internal/service/ledger"
)

type mockPaymentService struct {
	applyReq   *ledger.ApplyPaymentRequest
	applyErr   error
	reverseErr error
}

func (m *mockPaymentService) ApplyPayment(_ context.Context, req ledger.ApplyPaymentRequest) (*ledger.ApplyPaymentResult, error) {
	m.applyReq = &req
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	now := time.Now().UTC()
	return &ledger.ApplyPaymentResult{
		Payment: &domain.Payment{
			ID:            uuid.New(),
			PaymentCode:   "PAY-20250203-TESTCODE",
			LoanID:        req.LoanID,
			Amount:        req.Amount,
			PaymentDate:   req.PaymentDate,
			BalanceBefore: decimal.NewFromInt(10600),
			BalanceAfter:  decimal.NewFromInt(10600).Sub(req.Amount),
			Method:        req.Method,
			Status:        domain.PaymentStatusActive,
			CreatedAt:     now,
		},
		Loan: &domain.Loan{
			ID:             req.LoanID,
			Code:           "LN-20250102-TESTCODE",
			CurrentBalance: decimal.NewFromInt(10600).Sub(req.Amount),
			Status:         domain.LoanStatusGood,
		},
	}, nil
}

func (m *mockPaymentService) ReversePayment(_ context.Context, _ uuid.UUID, _, _ string) error {
	return m.reverseErr
}

func (m *mockPaymentService) GetPayment(_ context.Context, _ uuid.UUID) (*domain.Payment, error) {
	return nil, domain.ErrNotFound
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		loanID     string
		body       string
		applyErr   error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid payment",
			loanID:     uuid.NewString(),
			body:       `{"amount":"1000","payment_date":"2025-02-03","method":"cash"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed loan id",
			loanID:     "not-a-uuid",
			body:       `{"amount":"1000","payment_date":"2025-02-03","method":"cash"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "invalid JSON body",
			loanID:     uuid.NewString(),
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing amount",
			loanID:     uuid.NewString(),
			body:       `{"payment_date":"2025-02-03","method":"cash"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "negative amount",
			loanID:     uuid.NewString(),
			body:       `{"amount":"-50","payment_date":"2025-02-03","method":"cash"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "bad method",
			loanID:     uuid.NewString(),
			body:       `{"amount":"1000","payment_date":"2025-02-03","method":"barter"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "bad date format",
			loanID:     uuid.NewString(),
			body:       `{"amount":"1000","payment_date":"03/02/2025","method":"cash"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "settled loan",
			loanID:     uuid.NewString(),
			body:       `{"amount":"1000","payment_date":"2025-02-03","method":"cash"}`,
			applyErr:   domain.ErrLoanNotPayable,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "LOAN_NOT_PAYABLE",
		},
		{
			name:       "unknown loan",
			loanID:     uuid.NewString(),
			body:       `{"amount":"1000","payment_date":"2025-02-03","method":"cash"}`,
			applyErr:   domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockPaymentService{applyErr: tc.applyErr}
			h := NewPaymentHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+tc.loanID+"/payments", strings.NewReader(tc.body))
			req.SetPathValue("id", tc.loanID)
			rr := httptest.NewRecorder()

			h.Apply(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
				assert.NotEmpty(t, rr.Header().Get("Location"))
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestApply_ForwardsParsedRequest(t *testing.T) {
	svc := &mockPaymentService{}
	h := NewPaymentHandler(svc)
	loanID := uuid.New()

	body := `{"amount":"1500.50","payment_date":"2025-02-03","method":"transfer","collected_by":"teller-7"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+loanID.String()+"/payments", strings.NewReader(body))
	req.SetPathValue("id", loanID.String())
	rr := httptest.NewRecorder()

	h.Apply(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, svc.applyReq)
	assert.Equal(t, loanID, svc.applyReq.LoanID)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(svc.applyReq.Amount))
	assert.Equal(t, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), svc.applyReq.PaymentDate)
	assert.Equal(t, domain.PaymentMethodTransfer, svc.applyReq.Method)
	require.NotNil(t, svc.applyReq.CollectedBy)
	assert.Equal(t, "teller-7", *svc.applyReq.CollectedBy)
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		reverseErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid reversal",
			body:       `{"reason":"posted to wrong loan","reversed_by":"branch-manager"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing reason",
			body:       `{"reversed_by":"branch-manager"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "missing reverser",
			body:       `{"reason":"posted to wrong loan"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "already reversed",
			body:       `{"reason":"posted to wrong loan","reversed_by":"branch-manager"}`,
			reverseErr: domain.ErrPaymentNotReversible,
			wantStatus: http.StatusConflict,
			wantCode:   "PAYMENT_NOT_REVERSIBLE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockPaymentService{reverseErr: tc.reverseErr}
			h := NewPaymentHandler(svc)
			paymentID := uuid.NewString()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+paymentID+"/reverse", strings.NewReader(tc.body))
			req.SetPathValue("id", paymentID)
			rr := httptest.NewRecorder()

			h.Reverse(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

			if tc.wantCode == "" {
				assert.True(t, resp.Success)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}
		})
	}
}
