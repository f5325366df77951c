package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"stockfeed/internal/domain"
	"stockfeed/internal/rate"
)

type rateService interface {
	Current(ctx context.Context) rate.View
	Refresh(ctx context.Context) rate.View
	History(ctx context.Context, limit int) ([]domain.RateSnapshot, error)
}

type Handler struct {
	service rateService
}

func NewRateHandler(service rateService) *Handler {
	return &Handler{service: service}
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
