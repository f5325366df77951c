package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stockfeed/internal/domain"
	"stockfeed/internal/fetch"
	"stockfeed/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestFetchAll_SlowSymbolTimesOut_OthersComplete(t *testing.T) {
	fetchFn := func(ctx context.Context, symbol string) (float64, error) {
		if symbol == "B" {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				// keep sleeping past cancellation like a blocking client would
				time.Sleep(500 * time.Millisecond)
			}
		}
		return 10, nil
	}

	start := time.Now()
	res := FetchAll(context.Background(), []string{"A", "B", "C"}, fetchFn, nil, Options{
		PerTaskTimeout: 100 * time.Millisecond,
		RoundDeadline:  5 * time.Second,
	})
	took := time.Since(start)

	require.Less(t, took, 400*time.Millisecond)
	require.Equal(t, []string{"A", "C"}, keys(res.Completed))
	require.Equal(t, []string{"B"}, keys(res.Failed))
	require.Equal(t, domain.FailureTimeout, res.Failed["B"].Kind)
}

func TestFetchAll_PartitionIsExhaustiveAndDisjoint(t *testing.T) {
	symbols := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		symbols = append(symbols, fmt.Sprintf("SYM%02d", i))
	}
	// duplicates and blanks collapse into the set
	requested := append(append([]string{}, symbols...), "SYM01", "SYM02", " ", "")

	fetchFn := func(_ context.Context, symbol string) (int, error) {
		var n int
		_, _ = fmt.Sscanf(symbol, "SYM%d", &n)
		if n%3 == 0 {
			return 0, fmt.Errorf("lookup %s: %w", symbol, domain.ErrProviderUnavailable)
		}
		return n, nil
	}

	res := FetchAll(context.Background(), requested, fetchFn, nil, Options{MaxConcurrency: 4})

	require.Equal(t, len(symbols), len(res.Completed)+len(res.Failed))
	for _, s := range symbols {
		_, inCompleted := res.Completed[s]
		_, inFailed := res.Failed[s]
		require.True(t, inCompleted != inFailed, "symbol %s must be in exactly one map", s)
	}
	require.Equal(t, domain.FailureProviderUnavailable, res.Failed["SYM03"].Kind)
}

func TestFetchAll_RoundDeadlineFailsPendingSymbols(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	fetchFn := func(_ context.Context, symbol string) (int, error) {
		if symbol == "FAST" {
			return 1, nil
		}
		<-block
		return 2, nil
	}

	start := time.Now()
	res := FetchAll(context.Background(), []string{"FAST", "SLOW1", "SLOW2"}, fetchFn, nil, Options{
		PerTaskTimeout: time.Minute,
		RoundDeadline:  100 * time.Millisecond,
	})

	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, []string{"FAST"}, keys(res.Completed))
	require.Equal(t, []string{"SLOW1", "SLOW2"}, keys(res.Failed))
	for _, reason := range res.Failed {
		require.Equal(t, domain.FailureDeadlineExceeded, reason.Kind)
	}
}

func TestFetchAll_ValidationFailure(t *testing.T) {
	fetchFn := func(_ context.Context, symbol string) (float64, error) {
		if symbol == "BAD" {
			return -1, nil
		}
		return 5, nil
	}
	validate := func(v float64) error {
		if v <= 0 {
			return errors.New("non-positive price")
		}
		return nil
	}

	res := FetchAll(context.Background(), []string{"OK", "BAD"}, fetchFn, validate, Options{})

	require.Equal(t, []string{"OK"}, keys(res.Completed))
	require.Equal(t, domain.FailureProviderInvalidResponse, res.Failed["BAD"].Kind)
}

func TestFetchAll_RespectsMaxConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	fetchFn := func(context.Context, string) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		inFlight.Add(-1)
		return 1, nil
	}

	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	res := FetchAll(context.Background(), symbols, fetchFn, nil, Options{MaxConcurrency: 3})

	require.Len(t, res.Completed, len(symbols))
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetchAll_SharedPoolBoundsConcurrentRounds(t *testing.T) {
	var inFlight, peak atomic.Int32
	fetchFn := func(context.Context, string) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		inFlight.Add(-1)
		return 1, nil
	}

	pool := fetch.NewPool(2)
	t.Cleanup(pool.Close)

	const rounds = 5
	results := make([]Result[int], rounds)
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = FetchAll(context.Background(), []string{"A", "B", "C"}, fetchFn, nil, Options{Pool: pool})
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.Len(t, res.Completed, 3)
		require.Empty(t, res.Failed)
	}
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetchAll_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	fetchFn := func(context.Context, string) (int, error) {
		<-block
		return 1, nil
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	res := FetchAll(ctx, []string{"A", "B"}, fetchFn, nil, Options{PerTaskTimeout: time.Minute, RoundDeadline: time.Minute})

	require.Empty(t, res.Completed)
	require.Len(t, res.Failed, 2)
	for _, reason := range res.Failed {
		require.Equal(t, domain.FailureCanceled, reason.Kind)
	}
}

func TestFetchAll_EmptyInput(t *testing.T) {
	called := false
	res := FetchAll(context.Background(), nil, func(context.Context, string) (int, error) {
		called = true
		return 0, nil
	}, nil, Options{})

	require.False(t, called)
	require.Empty(t, res.Completed)
	require.Empty(t, res.Failed)
}

func TestFetchAll_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	fetchFn := func(_ context.Context, symbol string) (int, error) {
		if symbol == "X" {
			return 0, domain.ErrProviderUnavailable
		}
		return 1, nil
	}

	FetchAll(context.Background(), []string{"X", "Y", "Z"}, fetchFn, nil, Options{Metrics: m})

	require.InDelta(t, 2, testutil.ToFloat64(m.BatchSymbolsTotal.WithLabelValues("completed")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(m.BatchSymbolsTotal.WithLabelValues("failed")), 1e-9)
}
