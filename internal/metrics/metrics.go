package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe to call on a nil receiver, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ProviderFetchTotal *prometheus.CounterVec
	RateRefreshTotal   *prometheus.CounterVec

	BatchSymbolsTotal  *prometheus.CounterVec
	BatchRoundDuration prometheus.Histogram
}

func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		ProviderFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_fetch_total",
				Help: "Exchange rate provider attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),

		RateRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_refresh_total",
				Help: "Exchange rate refreshes by outcome (live or emergency)",
			},
			[]string{"outcome"},
		),

		BatchSymbolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batch_symbols_total",
				Help: "Symbols processed by batch quote rounds",
			},
			[]string{"outcome"},
		),

		BatchRoundDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "batch_round_duration_seconds",
				Help:    "Wall-clock duration of batch quote rounds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
			},
		),
	}
}

func (m *Metrics) ProviderFetch(provider, outcome string) {
	if m == nil {
		return
	}
	m.ProviderFetchTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RateRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RateRefreshTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBatch(completed, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.BatchSymbolsTotal.WithLabelValues("completed").Add(float64(completed))
	m.BatchSymbolsTotal.WithLabelValues("failed").Add(float64(failed))
	m.BatchRoundDuration.Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

const unmatchedRoute = "unmatched"

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// raw paths of unrouted requests would make one series per scanned URL
		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		if path == "/metrics" {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
	})
}
