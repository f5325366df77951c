package handler

import (
	"fmt"
	"net/http"
	"time"

	"stockfeed/internal/rate"

	"github.com/shopspring/decimal"
)

type ExchangeRateResponse struct {
	Success      bool      `json:"success" example:"true"`
	Rate         float64   `json:"rate" example:"83.12"`
	CurrencyPair string    `json:"currency_pair" example:"USD/INR"`
	LastUpdated  time.Time `json:"last_updated" example:"2025-01-02T15:04:05Z"`
	Message      string    `json:"message" example:"₹83.12 per USD"`
	Source       string    `json:"source" example:"yahoo"`
	State        string    `json:"state" example:"cached_valid"`
}

var currencySigns = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func newExchangeRateResponse(view rate.View) ExchangeRateResponse {
	rounded := decimal.NewFromFloat(view.Snapshot.Rate).Round(2)
	sign, ok := currencySigns[view.Pair.Quote]
	if !ok {
		sign = view.Pair.Quote + " "
	}
	return ExchangeRateResponse{
		Success:      true,
		Rate:         rounded.InexactFloat64(),
		CurrencyPair: view.Pair.String(),
		LastUpdated:  view.Snapshot.FetchedAt.UTC(),
		Message:      fmt.Sprintf("%s%s per %s", sign, rounded.StringFixed(2), view.Pair.Base),
		Source:       string(view.Snapshot.Source),
		State:        string(view.State),
	}
}

// GetExchangeRate godoc
// @Summary Current exchange rate
// @Description Returns the cached rate, refreshing it from upstream providers when it has expired. Falls back to the emergency rate when every provider fails.
// @Tags ExchangeRate
// @Produce json
// @Success 200 {object} ExchangeRateResponse
// @Router /api/exchange-rate [get]
func (h *Handler) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newExchangeRateResponse(h.service.Current(r.Context())))
}
