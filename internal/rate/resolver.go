package rate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"stockfeed/internal/domain"
	"stockfeed/internal/fetch"
	"stockfeed/internal/metrics"
	"stockfeed/internal/ttlcache"

	"github.com/sirupsen/logrus"
)

const cacheKey = "rate"

const (
	DefaultTTL             = time.Hour
	DefaultProviderTimeout = 5 * time.Second
	DefaultEmergencyRate   = 83.0
)

var DefaultBand = SanityBand{Min: 70, Max: 100}

type State string

const (
	StateColdNoCache        State = "cold_no_cache"
	StateRefreshingInFlight State = "refreshing_in_flight"
	StateCachedValid        State = "cached_valid"
	StateCachedExpired      State = "cached_expired"
	StateEmergency          State = "emergency"
)

type Config struct {
	Pair              domain.RatePair
	Band              SanityBand
	TTL               time.Duration
	ProviderTimeout   time.Duration
	EmergencyRate     float64
	StaleWhileRefresh bool

	// MinRefreshInterval throttles ForceRefresh; zero disables the throttle.
	MinRefreshInterval time.Duration
}

// Resolver resolves the exchange rate from an ordered list of providers and
// keeps the winning snapshot for Config.TTL.
type Resolver struct {
	cfg       Config
	providers []Provider
	cache     *ttlcache.Cache[domain.RateSnapshot]
	pool      *fetch.Pool
	metrics   *metrics.Metrics
	now       func() time.Time
	onRefresh func(domain.RateSnapshot)

	forceMu    sync.Mutex
	lastForced time.Time

	// set when the last refresh fell back to the emergency rate
	degraded atomic.Bool
}

type ResolverOption func(*Resolver)

func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithRefreshHook calls fn with every snapshot a refresh obtains from a provider.
// fn runs inside the refresh and must not block.
func WithRefreshHook(fn func(domain.RateSnapshot)) ResolverOption {
	return func(r *Resolver) {
		r.onRefresh = fn
	}
}

func NewResolver(cfg Config, providers []Provider, opts ...ResolverOption) *Resolver {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Band.Max <= cfg.Band.Min {
		cfg.Band = DefaultBand
	}
	if !cfg.Band.Contains(cfg.EmergencyRate) {
		fallbackRate := DefaultEmergencyRate
		if !cfg.Band.Contains(fallbackRate) {
			fallbackRate = (cfg.Band.Min + cfg.Band.Max) / 2
		}
		if cfg.EmergencyRate != 0 {
			logrus.Warnf("Emergency rate %.4f is outside [%.2f, %.2f], using %.4f", cfg.EmergencyRate, cfg.Band.Min, cfg.Band.Max, fallbackRate)
		}
		cfg.EmergencyRate = fallbackRate
	}

	r := &Resolver{
		cfg:       cfg,
		providers: sortedProviders(providers, cfg.Band),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	cacheOpts := []ttlcache.Option{ttlcache.WithClock(r.now)}
	if cfg.StaleWhileRefresh {
		cacheOpts = append(cacheOpts, ttlcache.WithStaleWhileRefresh())
	}
	r.cache = ttlcache.New[domain.RateSnapshot](cacheOpts...)
	// one worker per provider so an abandoned slow call never starves the next provider
	r.pool = fetch.NewPool(max(len(r.providers), 1))
	return r
}

func (r *Resolver) Pair() domain.RatePair {
	return r.cfg.Pair
}

// GetRate returns the cached snapshot, refreshing it when it has expired. It
// always returns a usable rate: when every provider fails it returns the
// emergency snapshot, which is not cached.
func (r *Resolver) GetRate(ctx context.Context) domain.RateSnapshot {
	snap, err := r.cache.GetOrCompute(ctx, cacheKey, r.cfg.TTL, r.refresh)
	if err != nil {
		return r.fallback(err)
	}
	return snap
}

// ForceRefresh ignores the cached snapshot and consults the providers again.
// Within Config.MinRefreshInterval of the previous forced refresh it behaves
// like GetRate.
func (r *Resolver) ForceRefresh(ctx context.Context) domain.RateSnapshot {
	if !r.allowForced() {
		logrus.WithField("pair", r.cfg.Pair.String()).Debug("Forced refresh throttled, serving cached rate")
		return r.GetRate(ctx)
	}
	snap, err := r.cache.Refresh(ctx, cacheKey, r.cfg.TTL, r.refresh)
	if err != nil {
		return r.fallback(err)
	}
	return snap
}

func (r *Resolver) State() State {
	if r.cache.Refreshing(cacheKey) {
		return StateRefreshingInFlight
	}
	if r.degraded.Load() {
		return StateEmergency
	}
	_, expiresAt, ok := r.cache.Peek(cacheKey)
	if !ok {
		return StateColdNoCache
	}
	if r.now().Before(expiresAt) {
		return StateCachedValid
	}
	return StateCachedExpired
}

func (r *Resolver) allowForced() bool {
	if r.cfg.MinRefreshInterval <= 0 {
		return true
	}
	r.forceMu.Lock()
	defer r.forceMu.Unlock()
	now := r.now()
	if !r.lastForced.IsZero() && now.Sub(r.lastForced) < r.cfg.MinRefreshInterval {
		return false
	}
	r.lastForced = now
	return true
}

// Close releases the provider worker pool.
func (r *Resolver) Close() {
	r.pool.Close()
}

func (r *Resolver) refresh(ctx context.Context) (domain.RateSnapshot, error) {
	for _, p := range r.providers {
		log := logrus.WithFields(logrus.Fields{"provider": p.ID, "pair": r.cfg.Pair.String()})

		// queue wait and execution share the provider's budget
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.ProviderTimeout)
		v, err := fetch.Run(attemptCtx, r.pool, r.cfg.ProviderTimeout, p.Fetch)
		cancel()

		if err != nil {
			outcome := "error"
			if errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrDeadlineExceeded) {
				outcome = "timeout"
			}
			r.metrics.ProviderFetch(string(p.ID), outcome)
			log.WithError(err).Warn("Rate provider failed, trying next one")
			continue
		}
		if !p.Validate(v) || !r.cfg.Band.Contains(v) {
			r.metrics.ProviderFetch(string(p.ID), "invalid")
			log.Warnf("Rate provider returned %.4f outside [%.2f, %.2f], trying next one", v, r.cfg.Band.Min, r.cfg.Band.Max)
			continue
		}

		r.metrics.ProviderFetch(string(p.ID), "ok")
		r.metrics.RateRefresh("live")
		r.degraded.Store(false)
		log.Infof("Exchange rate refreshed: %.4f", v)
		snap := domain.RateSnapshot{Rate: v, Source: p.ID, FetchedAt: r.now()}
		if r.onRefresh != nil {
			r.onRefresh(snap)
		}
		return snap, nil
	}

	r.metrics.RateRefresh("emergency")
	r.degraded.Store(true)
	logrus.WithField("pair", r.cfg.Pair.String()).
		Errorf("All %d rate providers failed, serving emergency rate %.2f", len(r.providers), r.cfg.EmergencyRate)
	return domain.RateSnapshot{}, domain.ErrAllProvidersExhausted
}

func (r *Resolver) fallback(err error) domain.RateSnapshot {
	if !errors.Is(err, domain.ErrAllProvidersExhausted) {
		// caller gave up waiting on a refresh; the last snapshot beats the constant
		if snap, _, ok := r.cache.Peek(cacheKey); ok {
			return snap
		}
	}
	return r.emergencySnapshot()
}

func (r *Resolver) emergencySnapshot() domain.RateSnapshot {
	return domain.RateSnapshot{
		Rate:      r.cfg.EmergencyRate,
		Source:    domain.Emergency,
		FetchedAt: r.now(),
	}
}
