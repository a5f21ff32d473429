package engine

import (
	"context"
	"sync"
)

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Each worker maps an input to exactly one output on results; after Drain
// the results channel is closed, so consumers can range over it.
type workerPool[T, R any] struct {
	queue   chan T
	results chan R
	process func(t T) R
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(T) R) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan T, cap),
		results: make(chan R, cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			select {
			case p.results <- p.process(t):
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit blocks until the queue accepts t, returning false if ctx ends first.
func (p *workerPool[T, R]) Submit(ctx context.Context, t T) bool {
	select {
	case p.queue <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain closes the queue, waits for all workers to finish, then closes
// results. Callers must keep consuming results while draining.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
	close(p.results)
}

// QueueLen returns how many inputs are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
