package rate

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"stockfeed/internal/adapters"
	"stockfeed/internal/domain"
)

// Provider is one upstream source of the exchange rate. Providers are stateless
// and may be called concurrently.
type Provider struct {
	ID       domain.ProviderID
	Priority int
	Fetch    func(ctx context.Context) (float64, error)
	Validate func(rate float64) bool
}

// SanityBand is the inclusive range of plausible rates.
type SanityBand struct {
	Min float64
	Max float64
}

func (b SanityBand) Contains(rate float64) bool {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return false
	}
	return rate >= b.Min && rate <= b.Max
}

// TickerProvider quotes the pair directly from a market ticker.
func TickerProvider(id domain.ProviderID, priority int, client adapters.TickerClient, ticker string, band SanityBand) Provider {
	return Provider{
		ID:       id,
		Priority: priority,
		Fetch: func(ctx context.Context) (float64, error) {
			return client.Price(ctx, ticker)
		},
		Validate: band.Contains,
	}
}

// InverseTickerProvider quotes the reversed pair and inverts it.
func InverseTickerProvider(id domain.ProviderID, priority int, client adapters.TickerClient, ticker string, band SanityBand) Provider {
	return Provider{
		ID:       id,
		Priority: priority,
		Fetch: func(ctx context.Context) (float64, error) {
			v, err := client.Price(ctx, ticker)
			if err != nil {
				return 0, err
			}
			if v <= 0 {
				return 0, fmt.Errorf("ticker %q returned %v: %w", ticker, v, domain.ErrProviderInvalidResponse)
			}
			return 1 / v, nil
		},
		Validate: band.Contains,
	}
}

// PairRateProvider asks a rate API for the pair.
func PairRateProvider(id domain.ProviderID, priority int, client adapters.PairRateClient, pair domain.RatePair, band SanityBand) Provider {
	return Provider{
		ID:       id,
		Priority: priority,
		Fetch: func(ctx context.Context) (float64, error) {
			return client.GetRate(ctx, pair)
		},
		Validate: band.Contains,
	}
}

// sortedProviders returns a copy ordered by ascending priority; ties keep input order.
func sortedProviders(providers []Provider, band SanityBand) []Provider {
	out := slices.Clone(providers)
	slices.SortStableFunc(out, func(a, b Provider) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	for i := range out {
		if out[i].Validate == nil {
			out[i].Validate = band.Contains
		}
	}
	return out
}
