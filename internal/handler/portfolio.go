package handler

import (
	"context"
	"net/http"

	"github.com/microcred/lendbook/internal/logging"
	"github.com/microcred/lendbook/internal/service/portfolio"
)

type portfolioService interface {
	Summary(ctx context.Context) (portfolio.Summary, error)
}

type PortfolioHandler struct {
	portfolio portfolioService
}

func NewPortfolioHandler(p portfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: p}
}

func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summary(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("portfolio summary failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, summary)
}
