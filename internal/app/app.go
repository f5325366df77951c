package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockfeed/internal/adapters"
	"stockfeed/internal/adapters/httpclient"
	"stockfeed/internal/adapters/postgres"
	"stockfeed/internal/adapters/yahoo"
	"stockfeed/internal/api"
	"stockfeed/internal/config"
	"stockfeed/internal/domain"
	"stockfeed/internal/metrics"
	"stockfeed/internal/platform/db"
	httpserver "stockfeed/internal/platform/http"
	"stockfeed/internal/quote"
	quotehandler "stockfeed/internal/quote/handler"
	"stockfeed/internal/rate"
	ratehandler "stockfeed/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts HTTP server and recorder
func Run(configPath string) error {
	appCfg, err := config.Init(configPath)
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	pair := domain.RatePair{Base: appCfg.ExchangeRate.Base, Quote: appCfg.ExchangeRate.Quote}

	// History is optional: without a database the service still serves rates and quotes.
	var snapshotRepo adapters.RateSnapshotRepository
	if appCfg.DbServer.Enabled() {
		repo, closeDB, dbErr := openSnapshotRepository(ctx, appCfg.DbServer, pair)
		if dbErr != nil {
			return dbErr
		}
		defer closeDB()
		snapshotRepo = repo
	} else {
		logrus.Warn("No database configured, rate history is disabled")
	}

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// External clients
	yahooClient := yahoo.NewClient(yahoo.WithBaseURL(appCfg.Quotes.YahooBaseURL), yahoo.WithHTTPClient(baseHTTPClient))
	exchangeRateClient := httpclient.NewExchangeRateClient(baseHTTPClient, appCfg.ExchangeRate.ExchangeRateAPIURL)
	frankfurterClient := httpclient.NewFrankfurterClient(baseHTTPClient, appCfg.ExchangeRate.FrankfurterURL)

	// Exchange rate
	fx := appCfg.ExchangeRate
	band := rate.SanityBand{Min: fx.MinRate, Max: fx.MaxRate}
	providers := []rate.Provider{
		rate.TickerProvider("yahoo", 1, yahooClient, fx.YahooTicker, band),
		rate.InverseTickerProvider("yahoo-inverse", 2, yahooClient, fx.YahooInverseTicker, band),
		rate.PairRateProvider("exchange-rate-api", 3, exchangeRateClient, pair, band),
		rate.PairRateProvider("frankfurter", 4, frankfurterClient, pair, band),
	}
	var recorder *rate.Recorder
	resolver := rate.NewResolver(rate.Config{
		Pair:               pair,
		Band:               band,
		TTL:                time.Duration(fx.CacheTTLSeconds) * time.Second,
		ProviderTimeout:    time.Duration(fx.ProviderTimeoutSeconds) * time.Second,
		EmergencyRate:      fx.EmergencyRate,
		StaleWhileRefresh:  fx.StaleWhileRefresh,
		MinRefreshInterval: time.Duration(fx.MinRefreshSeconds) * time.Second,
	}, providers,
		rate.WithMetrics(appMetrics),
		// the first refresh happens in recorder.Start, after recorder is assigned
		rate.WithRefreshHook(func(snap domain.RateSnapshot) { recorder.Observe(snap) }),
	)
	defer resolver.Close()
	rateService := rate.NewService(resolver, snapshotRepo)

	recorder = rate.NewRecorder(resolver, snapshotRepo, time.Duration(appCfg.Scheduler.RecordIntervalSeconds)*time.Second)
	// Ensure recorder stops before DB pool closes
	defer func() {
		if shutDownErr := recorder.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Recorder shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := recorder.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start recorder")
		return startErr
	}
	logrus.Info("✅ Rate recorder activation successful")

	// Quotes
	q := appCfg.Quotes
	normalizer := quote.NewNormalizer(quote.NewClassifier(q.DomesticSuffixes), rateService, q.DomesticCurrency)
	quoteService := quote.NewService(yahooClient, normalizer, quote.Config{
		MaxConcurrency: q.MaxConcurrency,
		PerTaskTimeout: seconds(q.PerTaskTimeoutSeconds),
		RoundDeadline:  seconds(q.RoundDeadlineSeconds),
	}, appMetrics)
	defer quoteService.Close()

	// Handlers and router
	router := api.NewRouter(
		api.RouterConfig{HistoryEnabled: snapshotRepo != nil},
		ratehandler.NewRateHandler(rateService),
		quotehandler.NewQuoteHandler(quote.NewSymbolValidator(q.MaxSymbols), quoteService),
		appMetrics,
	)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop recorder and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func openSnapshotRepository(ctx context.Context, cfg config.DbServer, pair domain.RatePair) (*postgres.RateSnapshotRepository, func(), error) {
	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.Migrate(startupCtx, cfg.GetConnectionStr()); err != nil {
		logrus.WithError(err).Error("Error migrating db")
		return nil, nil, err
	}
	logrus.Info("✅ Postgres migrations applied")

	pool, err := db.Connect(startupCtx, cfg.GetConnectionStr(), cfg.MaxConns)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return nil, nil, err
	}
	logrus.Info("✅ Postgres connection successful")

	repo := postgres.NewRateSnapshotRepository(pool, pair)
	if last, lastErr := repo.Latest(startupCtx); lastErr == nil {
		logrus.Infof("Last recorded %s rate %.4f from %s at %s", pair, last.Rate, last.Source, last.FetchedAt.Format(time.RFC3339))
	} else if !errors.Is(lastErr, domain.ErrSnapshotNotFound) {
		logrus.WithError(lastErr).Warn("Could not read last recorded rate")
	}
	return repo, pool.Close, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
