package api

import (
	_ "stockfeed/docs"
	"stockfeed/internal/metrics"
	quotehandler "stockfeed/internal/quote/handler"
	ratehandler "stockfeed/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	swagger "github.com/swaggo/http-swagger"
)

type RouterConfig struct {
	// HistoryEnabled mounts the history endpoint; it needs a database.
	HistoryEnabled bool
}

func NewRouter(cfg RouterConfig, rateHandler *ratehandler.Handler, quoteHandler *quotehandler.Handler, m *metrics.Metrics) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))
	router.Use(m.Middleware)

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Method("GET", "/metrics", m.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/exchange-rate", rateHandler.GetExchangeRate)
		r.Post("/exchange-rate/refresh", rateHandler.RefreshExchangeRate)
		if cfg.HistoryEnabled {
			r.Get("/exchange-rate/history", rateHandler.GetHistory)
		}

		r.Get("/quotes", quoteHandler.GetQuotes)
		r.Get("/market-status", quoteHandler.GetMarketStatus)
	})
	return router
}
