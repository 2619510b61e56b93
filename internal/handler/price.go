package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

type priceService interface {
	Prices(ctx context.Context) (domain.Prices, error)
}

type PriceHandler struct {
	prices priceService
}

func NewPriceHandler(prices priceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	prices, err := h.prices.Prices(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load coin prices", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, prices)
}
