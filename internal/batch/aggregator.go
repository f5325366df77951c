// Package batch fans per-symbol fetches out over a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockfeed/internal/domain"
	"stockfeed/internal/fetch"
	"stockfeed/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxConcurrency = 10
	DefaultPerTaskTimeout = 3 * time.Second
	DefaultRoundDeadline  = 8 * time.Second
)

type Options struct {
	MaxConcurrency int
	PerTaskTimeout time.Duration
	RoundDeadline  time.Duration
	Metrics        *metrics.Metrics

	// Pool, when set, is shared with other rounds and bounds their combined
	// concurrency; MaxConcurrency is then ignored. Otherwise each round gets its own.
	Pool *fetch.Pool
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.PerTaskTimeout <= 0 {
		o.PerTaskTimeout = DefaultPerTaskTimeout
	}
	if o.RoundDeadline <= 0 {
		o.RoundDeadline = DefaultRoundDeadline
	}
	return o
}

// Result holds one entry per requested symbol, either in Completed or in Failed.
type Result[T any] struct {
	Completed map[string]T
	Failed    map[string]domain.FailureReason
}

type outcome[T any] struct {
	symbol string
	value  T
	err    error
}

// FetchAll runs fetchFn once per distinct symbol with at most opts.MaxConcurrency
// calls in flight, or on opts.Pool when one is given. It returns when every symbol has an outcome or the round
// deadline passes, whichever comes first; symbols still pending at that point are
// failed with DeadlineExceeded. validate, if not nil, rejects fetched values.
func FetchAll[T any](ctx context.Context, symbols []string, fetchFn func(context.Context, string) (T, error), validate func(T) error, opts Options) Result[T] {
	opts = opts.withDefaults()
	unique := uniqueSymbols(symbols)
	res := Result[T]{
		Completed: make(map[string]T, len(unique)),
		Failed:    make(map[string]domain.FailureReason),
	}
	if len(unique) == 0 {
		return res
	}

	roundID := uuid.NewString()
	started := time.Now()
	log := logrus.WithFields(logrus.Fields{"round_id": roundID, "symbols": len(unique)})

	roundCtx, cancel := context.WithTimeout(ctx, opts.RoundDeadline)
	defer cancel()

	pool := opts.Pool
	if pool == nil {
		pool = fetch.NewPool(min(opts.MaxConcurrency, len(unique)))
		defer pool.Close()
	}

	// buffered for every symbol so stragglers never block after we return
	outcomes := make(chan outcome[T], len(unique))
	for _, symbol := range unique {
		go func(symbol string) {
			v, err := fetch.Run(roundCtx, pool, opts.PerTaskTimeout, func(taskCtx context.Context) (T, error) {
				return fetchFn(taskCtx, symbol)
			})
			if err == nil && validate != nil {
				if vErr := validate(v); vErr != nil {
					err = fmt.Errorf("%w: %w", domain.ErrProviderInvalidResponse, vErr)
				}
			}
			outcomes <- outcome[T]{symbol: symbol, value: v, err: err}
		}(symbol)
	}

	pending := make(map[string]struct{}, len(unique))
	for _, s := range unique {
		pending[s] = struct{}{}
	}

collect:
	for len(pending) > 0 {
		select {
		case o := <-outcomes:
			if _, ok := pending[o.symbol]; !ok {
				continue
			}
			delete(pending, o.symbol)
			if o.err != nil {
				reason := domain.ClassifyFailure(o.err)
				res.Failed[o.symbol] = reason
				log.WithError(o.err).WithField("symbol", o.symbol).Warnf("Symbol fetch failed: %s", reason.Kind)
				continue
			}
			res.Completed[o.symbol] = o.value
		case <-roundCtx.Done():
			break collect
		}
	}

	if len(pending) > 0 {
		reason := roundFailure(roundCtx.Err())
		for s := range pending {
			res.Failed[s] = reason
		}
		log.Warnf("Round ended with %d symbols still pending: %s", len(pending), reason.Kind)
	}

	opts.Metrics.ObserveBatch(len(res.Completed), len(res.Failed), time.Since(started))
	log.Debugf("Round finished: %d completed, %d failed in %s", len(res.Completed), len(res.Failed), time.Since(started))
	return res
}

func roundFailure(err error) domain.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureReason{Kind: domain.FailureDeadlineExceeded, Message: domain.ErrDeadlineExceeded.Error()}
	}
	return domain.FailureReason{Kind: domain.FailureCanceled, Message: "request canceled"}
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
