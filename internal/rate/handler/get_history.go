package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockfeed/internal/rate"

	"github.com/sirupsen/logrus"
)

type HistoryEntry struct {
	Rate      float64   `json:"rate" example:"83.1234"`
	Source    string    `json:"source" example:"yahoo"`
	FetchedAt time.Time `json:"fetched_at" example:"2025-01-02T15:04:05Z"`
}

type HistoryResponse struct {
	Success   bool           `json:"success" example:"true"`
	Snapshots []HistoryEntry `json:"snapshots"`
}

// GetHistory godoc
// @Summary Recorded exchange rates
// @Description Lists recorded live snapshots, newest first
// @Tags ExchangeRate
// @Produce json
// @Param limit query int false "Max entries (default 20, max 500)"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /api/exchange-rate/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snaps, err := h.service.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, rate.ErrHistoryDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		msg := "ups, couldn't load rate history this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetHistory", "limit": limit}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	res := HistoryResponse{Success: true, Snapshots: make([]HistoryEntry, 0, len(snaps))}
	for _, s := range snaps {
		res.Snapshots = append(res.Snapshots, HistoryEntry{Rate: s.Rate, Source: string(s.Source), FetchedAt: s.FetchedAt.UTC()})
	}
	writeJSON(w, http.StatusOK, res)
}
