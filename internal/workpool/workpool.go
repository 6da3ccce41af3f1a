// Package workpool fans a batch of independent lookups out over a fixed number
// of goroutines and joins on all of them.
package workpool

import (
	"context"
	"sync"
	"time"
)

// Outcome is the result of one task. Exactly one of Value or Err is meaningful.
type Outcome[T, R any] struct {
	Input T
	Value R
	Err   error
}

// job is the unit of work dispatched to a worker.
type job[T any] struct {
	index   int
	payload T
}

// Pool runs tasks with bounded concurrency and an optional per-task timeout.
type Pool struct {
	workers int
	timeout time.Duration
}

// New returns a Pool with n workers. Each task gets its own context bounded by
// timeout; zero means no per-task deadline beyond the caller's.
func New(n int, timeout time.Duration) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{workers: n, timeout: timeout}
}

// Run applies fn to every item and returns one Outcome per item, in input
// order. It waits for every task; a failing task never cancels the others.
// Items not started before ctx is done get ctx.Err() as their outcome.
func Run[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) []Outcome[T, R] {
	out := make([]Outcome[T, R], len(items))
	if len(items) == 0 {
		return out
	}

	n := p.workers
	if n > len(items) {
		n = len(items)
	}
	queue := make(chan job[T], len(items))
	for i, it := range items {
		queue <- job[T]{index: i, payload: it}
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				out[j.index] = runOne(ctx, p.timeout, j.payload, fn)
			}
		}()
	}
	wg.Wait()
	return out
}

func runOne[T, R any](ctx context.Context, timeout time.Duration, item T, fn func(context.Context, T) (R, error)) Outcome[T, R] {
	if err := ctx.Err(); err != nil {
		return Outcome[T, R]{Input: item, Err: err}
	}
	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()
	v, err := fn(taskCtx, item)
	return Outcome[T, R]{Input: item, Value: v, Err: err}
}
