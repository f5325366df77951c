package handler

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type QuoteResponse struct {
	Price         float64   `json:"price" example:"2931.45"`
	PreviousClose float64   `json:"previous_close" example:"2900.10"`
	Currency      string    `json:"currency" example:"INR"`
	AsOf          time.Time `json:"as_of" example:"2025-01-02T10:00:00Z"`
}

type FailureResponse struct {
	Reason  string `json:"reason" example:"timeout"`
	Message string `json:"message" example:"task exceeded 3s: upstream call timed out"`
}

type RateUsed struct {
	Rate      float64   `json:"rate" example:"83.12"`
	Source    string    `json:"source" example:"yahoo"`
	FetchedAt time.Time `json:"fetched_at" example:"2025-01-02T09:00:00Z"`
}

type GetQuotesResponse struct {
	Success bool                       `json:"success" example:"true"`
	Quotes  map[string]QuoteResponse   `json:"quotes"`
	Failed  map[string]FailureResponse `json:"failed"`
	Rate    *RateUsed                  `json:"rate,omitempty"`
}

// GetQuotes godoc
// @Summary Batch stock quotes
// @Description Fetches quotes for every symbol concurrently. Foreign prices are converted to the domestic currency. Symbols that fail or time out are listed under failed.
// @Tags Quotes
// @Produce json
// @Param symbols query string true "Comma separated symbols, e.g. AAPL,RELIANCE.NS"
// @Success 200 {object} GetQuotesResponse
// @Failure 400 {object} errorResponse
// @Router /api/quotes [get]
func (h *Handler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.validator.ParseSymbols(r.URL.Query().Get("symbols"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, snap, converted := h.service.GetQuotes(r.Context(), symbols)

	body := GetQuotesResponse{
		Success: true,
		Quotes:  make(map[string]QuoteResponse, len(res.Completed)),
		Failed:  make(map[string]FailureResponse, len(res.Failed)),
	}
	for symbol, q := range res.Completed {
		body.Quotes[symbol] = QuoteResponse{Price: q.Price, PreviousClose: q.PreviousClose, Currency: q.Currency, AsOf: q.AsOf.UTC()}
	}
	for symbol, f := range res.Failed {
		body.Failed[symbol] = FailureResponse{Reason: string(f.Kind), Message: f.Message}
	}
	if converted {
		body.Rate = &RateUsed{Rate: snap.Rate, Source: string(snap.Source), FetchedAt: snap.FetchedAt.UTC()}
	}

	if len(res.Failed) > 0 {
		logrus.WithFields(logrus.Fields{"handler": "GetQuotes", "requested": len(symbols), "failed": len(res.Failed)}).
			Warn("Some quotes could not be fetched")
	}
	writeJSON(w, http.StatusOK, body)
}
