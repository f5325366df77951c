package quote

import (
	"context"
	"errors"
	"math"
	"time"

	"stockfeed/internal/adapters"
	"stockfeed/internal/batch"
	"stockfeed/internal/domain"
	"stockfeed/internal/fetch"
	"stockfeed/internal/metrics"

	"github.com/shopspring/decimal"
)

type Index struct {
	Name   string
	Symbol string
}

var (
	DefaultDomesticIndices = []Index{
		{Name: "nifty", Symbol: "^NSEI"},
		{Name: "sensex", Symbol: "^BSESN"},
	}
	DefaultInternationalIndices = []Index{
		{Name: "sp500", Symbol: "^GSPC"},
		{Name: "nasdaq", Symbol: "^IXIC"},
		{Name: "dow", Symbol: "^DJI"},
	}
)

type Config struct {
	MaxConcurrency       int
	PerTaskTimeout       time.Duration
	RoundDeadline        time.Duration
	DomesticIndices      []Index
	InternationalIndices []Index
}

type IndexQuote struct {
	Price         float64
	Change        float64
	ChangePercent float64
}

type MarketStatus struct {
	Domestic      map[string]IndexQuote
	International map[string]IndexQuote
}

type Service struct {
	client     adapters.QuoteClient
	normalizer *Normalizer
	cfg        Config
	metrics    *metrics.Metrics

	// shared by every request so MaxConcurrency bounds the process, not one round
	pool *fetch.Pool
}

func NewService(client adapters.QuoteClient, normalizer *Normalizer, cfg Config, m *metrics.Metrics) *Service {
	if cfg.DomesticIndices == nil {
		cfg.DomesticIndices = DefaultDomesticIndices
	}
	if cfg.InternationalIndices == nil {
		cfg.InternationalIndices = DefaultInternationalIndices
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = batch.DefaultMaxConcurrency
	}
	return &Service{
		client:     client,
		normalizer: normalizer,
		cfg:        cfg,
		metrics:    m,
		pool:       fetch.NewPool(cfg.MaxConcurrency),
	}
}

// Close stops the upstream worker pool.
func (s *Service) Close() {
	s.pool.Close()
}

// GetQuotes fetches every symbol concurrently and converts foreign prices. The
// returned snapshot is the one used for conversion; ok is false when no quote
// needed it.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) (domain.BatchResult, domain.RateSnapshot, bool) {
	res := batch.FetchAll(ctx, symbols, s.client.Quote, validateQuote, s.batchOptions())

	completed, snap, ok := s.normalizer.NormalizeAll(ctx, res.Completed)
	return domain.BatchResult{Completed: completed, Failed: res.Failed}, snap, ok
}

// MarketStatus reports the configured indices. An index that could not be
// fetched reports zeros.
func (s *Service) MarketStatus(ctx context.Context) MarketStatus {
	all := make([]string, 0, len(s.cfg.DomesticIndices)+len(s.cfg.InternationalIndices))
	for _, idx := range s.cfg.DomesticIndices {
		all = append(all, idx.Symbol)
	}
	for _, idx := range s.cfg.InternationalIndices {
		all = append(all, idx.Symbol)
	}

	res := batch.FetchAll(ctx, all, s.client.Quote, validateQuote, s.batchOptions())

	return MarketStatus{
		Domestic:      indexQuotes(s.cfg.DomesticIndices, res.Completed),
		International: indexQuotes(s.cfg.InternationalIndices, res.Completed),
	}
}

func (s *Service) batchOptions() batch.Options {
	return batch.Options{
		MaxConcurrency: s.cfg.MaxConcurrency,
		PerTaskTimeout: s.cfg.PerTaskTimeout,
		RoundDeadline:  s.cfg.RoundDeadline,
		Metrics:        s.metrics,
		Pool:           s.pool,
	}
}

func indexQuotes(indices []Index, quotes map[string]domain.SymbolQuote) map[string]IndexQuote {
	out := make(map[string]IndexQuote, len(indices))
	for _, idx := range indices {
		q, ok := quotes[idx.Symbol]
		if !ok {
			out[idx.Name] = IndexQuote{}
			continue
		}
		out[idx.Name] = toIndexQuote(q)
	}
	return out
}

func toIndexQuote(q domain.SymbolQuote) IndexQuote {
	price := decimal.NewFromFloat(q.Price)
	iq := IndexQuote{Price: price.Round(2).InexactFloat64()}
	if q.PreviousClose <= 0 {
		return iq
	}
	prev := decimal.NewFromFloat(q.PreviousClose)
	change := price.Sub(prev)
	iq.Change = change.Round(2).InexactFloat64()
	iq.ChangePercent = change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	return iq
}

func validateQuote(q domain.SymbolQuote) error {
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return errors.New("price is not a finite number")
	}
	if q.Price <= 0 {
		return errors.New("price must be positive")
	}
	return nil
}
