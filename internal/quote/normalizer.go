package quote

import (
	"context"
	"strings"

	"stockfeed/internal/domain"

	"github.com/shopspring/decimal"
)

const DefaultDomesticCurrency = "INR"

// RateSource supplies the exchange rate used to convert foreign prices.
type RateSource interface {
	GetRate(ctx context.Context) domain.RateSnapshot
}

type Normalizer struct {
	classifier *Classifier
	rates      RateSource
	currency   string
}

func NewNormalizer(classifier *Classifier, rates RateSource, domesticCurrency string) *Normalizer {
	if domesticCurrency == "" {
		domesticCurrency = DefaultDomesticCurrency
	}
	return &Normalizer{
		classifier: classifier,
		rates:      rates,
		currency:   strings.ToUpper(domesticCurrency),
	}
}

// Normalize converts a foreign quote into the domestic currency. Domestic quotes
// and quotes already priced in the domestic currency come back unchanged, so
// normalizing twice never converts twice.
func (n *Normalizer) Normalize(ctx context.Context, q domain.SymbolQuote) domain.SymbolQuote {
	if !n.needsConversion(q) {
		return q
	}
	return n.NormalizeWith(q, n.rates.GetRate(ctx))
}

// NormalizeWith is Normalize with a caller-supplied snapshot.
func (n *Normalizer) NormalizeWith(q domain.SymbolQuote, snap domain.RateSnapshot) domain.SymbolQuote {
	if !n.needsConversion(q) {
		return q
	}
	rate := decimal.NewFromFloat(snap.Rate)
	q.Price = decimal.NewFromFloat(q.Price).Mul(rate).InexactFloat64()
	q.PreviousClose = decimal.NewFromFloat(q.PreviousClose).Mul(rate).InexactFloat64()
	q.Currency = n.currency
	return q
}

// NormalizeAll converts a whole batch against a single snapshot. The rate is
// resolved only when at least one quote needs it; the returned bool reports
// whether it was.
func (n *Normalizer) NormalizeAll(ctx context.Context, quotes map[string]domain.SymbolQuote) (map[string]domain.SymbolQuote, domain.RateSnapshot, bool) {
	out := make(map[string]domain.SymbolQuote, len(quotes))
	var (
		snap     domain.RateSnapshot
		resolved bool
	)
	for symbol, q := range quotes {
		if n.needsConversion(q) && !resolved {
			snap = n.rates.GetRate(ctx)
			resolved = true
		}
		out[symbol] = n.NormalizeWith(q, snap)
	}
	return out, snap, resolved
}

func (n *Normalizer) needsConversion(q domain.SymbolQuote) bool {
	if n.classifier.Classify(q.Symbol) == Domestic {
		return false
	}
	return !strings.EqualFold(q.Currency, n.currency)
}
