//go:build deadlock

package eventbuilder

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// TicketMutex is the deadlock-detecting build of the builder's single
// guarding lock, selected with `go test -tags deadlock ./...`. It trades the
// production build's FIFO-fairness guarantee for cycle detection across
// goroutines, which is what actually matters when chasing down a test that
// wedges because a Callbacks implementation called back into the builder
// from the locking goroutine.
type TicketMutex struct {
	mu deadlock.Mutex
}

// NewTicketMutex returns a ready-to-use TicketMutex.
func NewTicketMutex() *TicketMutex {
	return &TicketMutex{}
}

// Lock blocks until the mutex is free.
func (m *TicketMutex) Lock() {
	m.mu.Lock()
}

// Unlock releases the mutex.
func (m *TicketMutex) Unlock() {
	m.mu.Unlock()
}
