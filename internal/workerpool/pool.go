// Package workerpool runs CPU-bound jobs (key generation, RSA decryption,
// bcrypt, Argon2) with bounded parallelism.
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits how many jobs run at once.
type Pool struct {
	sem *semaphore.Weighted
}

// New returns a pool running at most size jobs concurrently.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn on the pool and waits for its result or for ctx to end.
// When ctx ends first, fn keeps its slot until it returns and its result
// is discarded.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	done := make(chan result[T], 1)
	go func() {
		defer p.sem.Release(1)
		v, err := fn()
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
