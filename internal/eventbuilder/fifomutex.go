//go:build !deadlock

package eventbuilder

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// TicketMutex is a FIFO-fair mutual-exclusion lock: waiters acquire it in
// the order they arrived, the way the original C++ builder's ticket mutex
// bounds producer starvation under bursty flush calls.
//
// It is built on a weighted semaphore of weight one. golang.org/x/sync's
// semaphore grants acquires in FIFO order among blocked waiters, which is
// exactly the fairness guarantee a ticket lock provides; a plain
// sync.Mutex makes no such promise.
type TicketMutex struct {
	sem *semaphore.Weighted
}

// NewTicketMutex returns a ready-to-use TicketMutex.
func NewTicketMutex() *TicketMutex {
	return &TicketMutex{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the mutex is free, honoring FIFO order among waiters.
func (m *TicketMutex) Lock() {
	// Acquire on a weight-1 semaphore with a background context never
	// returns an error; context cancellation is not part of this lock's
	// contract.
	_ = m.sem.Acquire(context.Background(), 1)
}

// Unlock releases the mutex. It is a programming error to call Unlock
// without a matching Lock, exactly as for sync.Mutex.
func (m *TicketMutex) Unlock() {
	m.sem.Release(1)
}

// TryLock attempts to acquire the mutex without blocking, returning false
// if it is currently held. Exercised only by this package's own tests; no
// production caller needs a non-blocking acquire.
func (m *TicketMutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}
