// Package ttlcache provides an expiring value store whose recomputations are
// single-flight per key.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type options struct {
	staleWhileRefresh bool
	now               func() time.Time
}

type Option func(*options)

// WithStaleWhileRefresh makes callers that find an expired entry while another
// caller is already recomputing it return the expired value instead of waiting.
func WithStaleWhileRefresh() Option {
	return func(o *options) {
		o.staleWhileRefresh = true
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type Cache[T any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[T]
	refreshing map[string]struct{}

	group             singleflight.Group
	staleWhileRefresh bool
	now               func() time.Time
}

func New[T any](opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		entries:           make(map[string]entry[T]),
		refreshing:        make(map[string]struct{}),
		staleWhileRefresh: o.staleWhileRefresh,
		now:               o.now,
	}
}

// GetOrCompute returns the live value for key, or computes and stores a new one.
// Only one compute per key runs at a time; concurrent callers share its outcome.
// A failed compute keeps the previous entry and its error goes to every caller
// that shared the flight. With WithStaleWhileRefresh, callers that merely joined
// the failed flight get the previous value instead. A ttl <= 0 returns the
// computed value without storing it.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	_, busy := c.refreshing[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.value, nil
	}
	if ok && busy && c.staleWhileRefresh {
		return e.value, nil
	}
	return c.compute(ctx, key, ttl, compute, false)
}

// Refresh recomputes key even if the stored entry is still live.
func (c *Cache[T]) Refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	return c.compute(ctx, key, ttl, compute, true)
}

// Peek returns the stored entry regardless of its expiry.
func (c *Cache[T]) Peek(key string) (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, e.expiresAt, ok
}

// Refreshing reports whether a compute for key is in flight.
func (c *Cache[T]) Refreshing(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.refreshing[key]
	return ok
}

func (c *Cache[T]) compute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (T, error), force bool) (T, error) {
	var zero T
	leader := false

	// The flight outlives any single caller, so it must not inherit one caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		leader = true
		if !force {
			// A flight that finished between our read and DoChan may have stored a live value.
			if v, exp, ok := c.Peek(key); ok && c.now().Before(exp) {
				return v, nil
			}
		}

		c.setRefreshing(key, true)
		defer c.setRefreshing(key, false)

		v, err := fn(flightCtx)
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			c.store(key, v, ttl)
		}
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if !leader && c.staleWhileRefresh {
				if v, _, ok := c.Peek(key); ok {
					return v, nil
				}
			}
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cache[T]) store(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if prev, ok := c.entries[key]; ok && !expiresAt.After(prev.expiresAt) {
		expiresAt = prev.expiresAt.Add(time.Nanosecond)
	}
	c.entries[key] = entry[T]{value: value, expiresAt: expiresAt}
}

func (c *Cache[T]) setRefreshing(key string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.refreshing[key] = struct{}{}
		return
	}
	delete(c.refreshing, key)
}
