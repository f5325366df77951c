// Package fetch runs upstream calls on a bounded worker pool under hard timeouts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockfeed/internal/domain"
)

type result[T any] struct {
	value T
	err   error
}

// Run executes task on pool and waits at most timeout for it, counted from the
// moment a worker starts it. On timeout the task's context is cancelled and
// domain.ErrTimeout is returned right away; the task may still finish later, in
// which case its result is dropped.
func Run[T any](ctx context.Context, pool *Pool, timeout time.Duration, task func(context.Context) (T, error)) (T, error) {
	var zero T

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := make(chan struct{})
	// buffered so an abandoned task never blocks on send
	done := make(chan result[T], 1)

	job := func() {
		close(started)
		jobCtx, jobCancel := context.WithTimeout(taskCtx, timeout)
		defer jobCancel()
		v, err := task(jobCtx)
		if err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) && taskCtx.Err() == nil {
			err = fmt.Errorf("task exceeded %s: %w", timeout, domain.ErrTimeout)
		}
		done <- result[T]{value: v, err: err}
	}

	if err := pool.Submit(ctx, job); err != nil {
		return zero, waitErr(err)
	}

	select {
	case <-started:
	case <-ctx.Done():
		return zero, waitErr(ctx.Err())
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		return zero, fmt.Errorf("task exceeded %s: %w", timeout, domain.ErrTimeout)
	case <-ctx.Done():
		return zero, waitErr(ctx.Err())
	}
}

func waitErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrDeadlineExceeded, err)
	}
	return err
}
