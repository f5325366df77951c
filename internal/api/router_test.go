package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockfeed/internal/domain"
	"stockfeed/internal/metrics"
	"stockfeed/internal/quote"
	quotehandler "stockfeed/internal/quote/handler"
	"stockfeed/internal/rate"
	ratehandler "stockfeed/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type staticQuotes map[string]domain.SymbolQuote

func (s staticQuotes) Quote(_ context.Context, symbol string) (domain.SymbolQuote, error) {
	q, ok := s[symbol]
	if !ok {
		return domain.SymbolQuote{}, domain.ErrProviderInvalidResponse
	}
	return q, nil
}

func newTestRouter(t *testing.T, historyEnabled bool) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())

	resolver := rate.NewResolver(rate.Config{
		Pair:            domain.RatePair{Base: "USD", Quote: "INR"},
		Band:            rate.DefaultBand,
		ProviderTimeout: time.Second,
	}, []rate.Provider{{
		ID:       "static",
		Priority: 1,
		Fetch:    func(context.Context) (float64, error) { return 83.456, nil },
	}}, rate.WithMetrics(m))
	t.Cleanup(resolver.Close)
	rateService := rate.NewService(resolver, nil)

	quotes := staticQuotes{
		"AAPL":   {Symbol: "AAPL", Price: 100, PreviousClose: 99, Currency: "USD", AsOf: time.Now()},
		"TCS.NS": {Symbol: "TCS.NS", Price: 3500, PreviousClose: 3400, Currency: "INR", AsOf: time.Now()},
		"^NSEI":  {Symbol: "^NSEI", Price: 22000, PreviousClose: 21900, Currency: "INR", AsOf: time.Now()},
	}
	normalizer := quote.NewNormalizer(quote.NewClassifier(nil), rateService, "INR")
	quoteService := quote.NewService(quotes, normalizer, quote.Config{RoundDeadline: 2 * time.Second}, m)
	t.Cleanup(quoteService.Close)

	router := NewRouter(
		RouterConfig{HistoryEnabled: historyEnabled},
		ratehandler.NewRateHandler(rateService),
		quotehandler.NewQuoteHandler(quote.NewSymbolValidator(5), quoteService),
		m,
	)
	return router, m
}

func TestRouter_ExchangeRate(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exchange-rate", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var res ratehandler.ExchangeRateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, 83.46, res.Rate)
	require.Equal(t, "static", res.Source)
}

func TestRouter_Quotes(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/quotes?symbols=aapl,TCS.NS,MISSING", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var res quotehandler.GetQuotesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.InDelta(t, 8345.6, res.Quotes["AAPL"].Price, 1e-9)
	require.Equal(t, 3500.0, res.Quotes["TCS.NS"].Price)
	require.Equal(t, "provider_invalid_response", res.Failed["MISSING"].Reason)
	require.NotNil(t, res.Rate)
}

func TestRouter_QuotesValidation(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/quotes?symbols=A,B,C,D,E,F", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_MarketStatus(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/market-status", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var res quotehandler.MarketStatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, 22000.0, res.DomesticMarket["nifty"].Price)
	require.Equal(t, 0.0, res.InternationalMarket["sp500"].Price)
}

func TestRouter_HistoryMountedOnlyWhenEnabled(t *testing.T) {
	router, _ := newTestRouter(t, false)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exchange-rate/history", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	router, _ = newTestRouter(t, true)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exchange-rate/history", nil))
	// mounted, but the service has no repository behind it
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_HealthzAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/exchange-rate", nil))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/api/exchange-rate",status_code="200"} 1`), body)
	require.Contains(t, body, `rate_refresh_total{outcome="live"} 1`)
}
