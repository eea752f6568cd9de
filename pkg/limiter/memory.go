// Package limiter bounds resource usage shared by concurrent workers.
package limiter

import (
	"context"
	"sync"
)

// Memory limiter manages a shared memory budget to control concurrency
// based on memory usage rather than just a fixed number of workers.
// It is thread-safe.
type Memory struct {
	mu        sync.Mutex
	available int64
	capacity  int64
	// released is closed and replaced on every Release to wake waiters.
	released chan struct{}
}

// NewMemory creates a new memory limiter with the specified total capacity in bytes.
func NewMemory(limit int64) *Memory {
	return &Memory{
		available: limit,
		capacity:  limit,
		released:  make(chan struct{}),
	}
}

// TryAcquire attempts to reserve 'n' bytes from the memory budget.
// It returns true if the reservation was successful.
// It returns false if there is not enough budget currently available,
// or if 'n' is greater than the total capacity of the limiter.
func (m *Memory) TryAcquire(n int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > m.capacity {
		return false
	}

	if m.available >= n {
		m.available -= n
		return true
	}

	return false
}

// Acquire blocks until 'n' bytes are reserved or ctx is done. A request
// larger than the capacity is reduced to the capacity, so an oversized job
// still runs, just alone. It returns the amount actually reserved, which
// must be passed to Release.
func (m *Memory) Acquire(ctx context.Context, n int64) (int64, error) {
	if n > m.capacity {
		n = m.capacity
	}
	for {
		if m.TryAcquire(n) {
			return n, nil
		}

		m.mu.Lock()
		wait := m.released
		m.mu.Unlock()

		// Budget may have been returned between TryAcquire and reading the channel.
		if m.TryAcquire(n) {
			return n, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-wait:
		}
	}
}

// Release returns 'n' bytes back to the budget and wakes blocked Acquire calls.
func (m *Memory) Release(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.available += n

	// Sanity check: prevent available memory from exceeding capacity
	// in case of logic errors in the caller (e.g., double release).
	if m.available > m.capacity {
		m.available = m.capacity
	}

	close(m.released)
	m.released = make(chan struct{})
}

// Available returns the amount of memory currently available.
func (m *Memory) Available() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Capacity returns the total capacity of the limiter.
func (m *Memory) Capacity() int64 {
	return m.capacity
}
