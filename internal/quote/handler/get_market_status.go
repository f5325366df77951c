package handler

import (
	"net/http"

	"stockfeed/internal/quote"
)

type IndexResponse struct {
	Price         float64 `json:"price" example:"22500.45"`
	Change        float64 `json:"change" example:"100.45"`
	ChangePercent float64 `json:"change_percent" example:"0.45"`
}

type MarketStatusResponse struct {
	Success             bool                     `json:"success" example:"true"`
	DomesticMarket      map[string]IndexResponse `json:"domestic_market"`
	InternationalMarket map[string]IndexResponse `json:"international_market"`
}

func toIndexResponses(in map[string]quote.IndexQuote) map[string]IndexResponse {
	out := make(map[string]IndexResponse, len(in))
	for name, q := range in {
		out[name] = IndexResponse(q)
	}
	return out
}

// GetMarketStatus godoc
// @Summary Market indices
// @Description Current level and daily change of the configured domestic and international indices. Indices that could not be fetched report zeros.
// @Tags Quotes
// @Produce json
// @Success 200 {object} MarketStatusResponse
// @Router /api/market-status [get]
func (h *Handler) GetMarketStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.MarketStatus(r.Context())
	writeJSON(w, http.StatusOK, MarketStatusResponse{
		Success:             true,
		DomesticMarket:      toIndexResponses(status.Domestic),
		InternationalMarket: toIndexResponses(status.International),
	})
}
