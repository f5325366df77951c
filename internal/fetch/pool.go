package fetch

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Pool is a fixed set of worker goroutines draining a job queue.
type Pool struct {
	workQueue chan func()
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewPool(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &Pool{
		workQueue: make(chan func()),
		quit:      make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runWorker()
		}()
	}
	return p
}

func (p *Pool) runWorker() {
	for {
		select {
		case <-p.quit:
			return
		case job := <-p.workQueue:
			job()
		}
	}
}

// Submit hands job to an idle worker, waiting until one is free or ctx ends.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case p.workQueue <- job:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops idle workers. Workers busy with an abandoned job exit once it returns;
// Close does not wait for them.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
}

// Wait blocks until every worker has exited. Only meaningful after Close.
func (p *Pool) Wait() {
	p.wg.Wait()
}
