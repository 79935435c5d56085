// Package queue buffers messages between producers (HTTP handlers, fetch
// goroutines) and the single board event loop.
package queue

import (
	"context"
	"sync"

	"github.com/okian/attendboard/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds m without blocking and reports whether it was accepted.
	Enqueue(ctx context.Context, m T) bool

	// EnqueueWait blocks until m is accepted, the queue closes, or ctx ends.
	EnqueueWait(ctx context.Context, m T) error

	// Dequeue returns the receive side. It is closed by Close.
	Dequeue() <-chan T

	Len() int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	cfg := config{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	q := &InMemoryQueue[T]{
		items:    make(chan T, cfg.capacity),
		capacity: cfg.capacity,
	}
	metrics.UpdateQueue(0, q.capacity)
	return q
}

// Enqueue adds m to the queue if there is room.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, m T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.items <- m:
		metrics.UpdateQueue(len(q.items), q.capacity)
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// EnqueueWait adds m, waiting for room.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, m T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.items <- m:
		metrics.UpdateQueue(len(q.items), q.capacity)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue[T]) Dequeue() <-chan T {
	return q.items
}

// Len returns the number of queued messages.
func (q *InMemoryQueue[T]) Len() int {
	n := len(q.items)
	metrics.UpdateQueue(n, q.capacity)
	return n
}

// Cap returns the queue capacity.
func (q *InMemoryQueue[T]) Cap() int { return q.capacity }

// Close stops accepting messages. Buffered messages can still be drained.
// Producers blocked in EnqueueWait must be released through their context first.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
