package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// RefreshExchangeRate godoc
// @Summary Force an exchange rate refresh
// @Description Ignores the cached rate and consults the providers again, at most once per configured minimum refresh interval
// @Tags ExchangeRate
// @Produce json
// @Success 200 {object} ExchangeRateResponse
// @Router /api/exchange-rate/refresh [post]
func (h *Handler) RefreshExchangeRate(w http.ResponseWriter, r *http.Request) {
	view := h.service.Refresh(r.Context())
	logrus.WithFields(logrus.Fields{"handler": "RefreshExchangeRate", "source": view.Snapshot.Source}).Info("Exchange rate refreshed on demand")
	writeJSON(w, http.StatusOK, newExchangeRateResponse(view))
}
