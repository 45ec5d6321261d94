// Package limiter bounds the number of simultaneous page fetches.
package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter is a counting semaphore of fixed capacity. Every fetch must
// acquire a slot before navigating and release it on completion. Waiters
// are served in arrival order.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int32
}

// New creates a Limiter with the given capacity. Capacity below 1 is
// clamped to 1.
func New(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.inUse.Add(1)
	return nil
}

// Release frees a slot acquired with Acquire.
func (l *Limiter) Release() {
	l.inUse.Add(-1)
	l.sem.Release(1)
}

// Capacity returns the fixed slot count.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// InUse returns the number of currently held slots.
func (l *Limiter) InUse() int {
	return int(l.inUse.Load())
}
