package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"stockfeed/internal/domain"
	"stockfeed/internal/quote"
)

type quoteService interface {
	GetQuotes(ctx context.Context, symbols []string) (domain.BatchResult, domain.RateSnapshot, bool)
	MarketStatus(ctx context.Context) quote.MarketStatus
}

type symbolValidator interface {
	ParseSymbols(raw string) ([]string, error)
}

type Handler struct {
	validator symbolValidator
	service   quoteService
}

func NewQuoteHandler(validator symbolValidator, service quoteService) *Handler {
	return &Handler{validator: validator, service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Error: errorMsg})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
