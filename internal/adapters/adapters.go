package adapters

import (
	"context"
	"stockfeed/internal/domain"
)

// TickerClient returns the last traded price of a market ticker such as "USDINR=X".
type TickerClient interface {
	Price(ctx context.Context, ticker string) (float64, error)
}

// PairRateClient returns the conversion rate for one currency pair.
type PairRateClient interface {
	GetRate(ctx context.Context, pair domain.RatePair) (float64, error)
}

type QuoteClient interface {
	Quote(ctx context.Context, symbol string) (domain.SymbolQuote, error)
}

type RateSnapshotRepository interface {
	Save(ctx context.Context, snapshot domain.RateSnapshot) error
	ListRecent(ctx context.Context, limit int) ([]domain.RateSnapshot, error)
}
