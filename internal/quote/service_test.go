package quote

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stockfeed/internal/adapters"
	"stockfeed/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuoteClient struct{ mock.Mock }

func (m *MockQuoteClient) Quote(ctx context.Context, symbol string) (domain.SymbolQuote, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(domain.SymbolQuote)
	return q, args.Error(1)
}

func newTestService(t *testing.T, client adapters.QuoteClient, rate float64) (*Service, *fixedRate) {
	t.Helper()
	rates := newFixedRate(rate)
	n := NewNormalizer(NewClassifier(nil), rates, "INR")
	svc := NewService(client, n, Config{
		MaxConcurrency: 4,
		PerTaskTimeout: 200 * time.Millisecond,
		RoundDeadline:  time.Second,
	}, nil)
	t.Cleanup(svc.Close)
	return svc, rates
}

func TestService_GetQuotes_NormalizesAndPartitions(t *testing.T) {
	client := new(MockQuoteClient)
	client.On("Quote", mock.Anything, "AAPL").Return(domain.SymbolQuote{Symbol: "AAPL", Price: 2, PreviousClose: 1, Currency: "USD"}, nil)
	client.On("Quote", mock.Anything, "TCS.NS").Return(domain.SymbolQuote{Symbol: "TCS.NS", Price: 3500, Currency: "INR"}, nil)
	client.On("Quote", mock.Anything, "GONE").Return(domain.SymbolQuote{}, domain.ErrProviderInvalidResponse)
	client.On("Quote", mock.Anything, "ZERO").Return(domain.SymbolQuote{Symbol: "ZERO", Price: 0, Currency: "USD"}, nil)

	svc, rates := newTestService(t, client, 83)

	res, snap, ok := svc.GetQuotes(context.Background(), []string{"AAPL", "TCS.NS", "GONE", "ZERO"})

	require.True(t, ok)
	require.Equal(t, 83.0, snap.Rate)
	require.Equal(t, int32(1), rates.calls.Load())
	require.Len(t, res.Completed, 2)
	require.Equal(t, 166.0, res.Completed["AAPL"].Price)
	require.Equal(t, 83.0, res.Completed["AAPL"].PreviousClose)
	require.Equal(t, 3500.0, res.Completed["TCS.NS"].Price)
	require.Len(t, res.Failed, 2)
	require.Equal(t, domain.FailureProviderInvalidResponse, res.Failed["GONE"].Kind)
	require.Equal(t, domain.FailureProviderInvalidResponse, res.Failed["ZERO"].Kind)
}

func TestService_GetQuotes_SlowSymbolTimesOut(t *testing.T) {
	client := new(MockQuoteClient)
	client.On("Quote", mock.Anything, "FAST").Return(domain.SymbolQuote{Symbol: "FAST", Price: 1, Currency: "INR"}, nil)
	client.On("Quote", mock.Anything, "SLOW").Return(domain.SymbolQuote{Symbol: "SLOW", Price: 1, Currency: "INR"}, nil).
		WaitUntil(time.After(2 * time.Second))

	svc, _ := newTestService(t, client, 83)

	start := time.Now()
	res, _, _ := svc.GetQuotes(context.Background(), []string{"FAST", "SLOW"})

	require.Less(t, time.Since(start), time.Second)
	require.Contains(t, res.Completed, "FAST")
	require.Equal(t, domain.FailureTimeout, res.Failed["SLOW"].Kind)
}

func TestService_MarketStatus(t *testing.T) {
	client := new(MockQuoteClient)
	client.On("Quote", mock.Anything, "^NSEI").Return(domain.SymbolQuote{Symbol: "^NSEI", Price: 22500.456, PreviousClose: 22400, Currency: "INR"}, nil)
	client.On("Quote", mock.Anything, "^BSESN").Return(domain.SymbolQuote{Symbol: "^BSESN", Price: 74000, Currency: "INR"}, nil)
	client.On("Quote", mock.Anything, "^GSPC").Return(domain.SymbolQuote{Symbol: "^GSPC", Price: 5000, PreviousClose: 5100, Currency: "USD"}, nil)
	client.On("Quote", mock.Anything, "^IXIC").Return(domain.SymbolQuote{}, domain.ErrProviderUnavailable)
	client.On("Quote", mock.Anything, "^DJI").Return(domain.SymbolQuote{Symbol: "^DJI", Price: 39000, PreviousClose: 39000, Currency: "USD"}, nil)

	svc, rates := newTestService(t, client, 83)

	status := svc.MarketStatus(context.Background())

	require.Equal(t, IndexQuote{Price: 22500.46, Change: 100.46, ChangePercent: 0.45}, status.Domestic["nifty"])
	require.Equal(t, IndexQuote{Price: 74000}, status.Domestic["sensex"])
	require.Equal(t, IndexQuote{Price: 5000, Change: -100, ChangePercent: -1.96}, status.International["sp500"])
	require.Equal(t, IndexQuote{}, status.International["nasdaq"])
	require.Equal(t, IndexQuote{Price: 39000}, status.International["dow"])
	// index levels are never currency converted
	require.Equal(t, int32(0), rates.calls.Load())
}

type countingClient struct {
	inFlight, peak atomic.Int32
}

func (c *countingClient) Quote(_ context.Context, symbol string) (domain.SymbolQuote, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(15 * time.Millisecond)
	return domain.SymbolQuote{Symbol: symbol, Price: 10, Currency: "INR"}, nil
}

func TestService_GetQuotes_ConcurrencyBoundIsShared(t *testing.T) {
	client := &countingClient{}
	svc := NewService(client, NewNormalizer(NewClassifier(nil), newFixedRate(83), "INR"), Config{
		MaxConcurrency: 2,
		PerTaskTimeout: time.Second,
		RoundDeadline:  5 * time.Second,
	}, nil)
	t.Cleanup(svc.Close)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, _ := svc.GetQuotes(context.Background(), []string{"A.NS", "B.NS"})
			require.Len(t, res.Completed, 2)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, client.peak.Load(), int32(2))
}
