// Package queue defines the contract for enqueuing and consuming refresh requests.
//
// The queue is deliberately tiny: with a capacity of one, a burst of manual
// refreshes collapses into a single pending fetch.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/huddle/pkg/metrics"
)

// DefaultCapacity is the number of refresh requests that may wait at once.
const DefaultCapacity = 1

// Request reasons.
const (
	ReasonStartup = "startup"
	ReasonManual  = "manual"
)

// Request asks the worker to fetch a fresh snapshot.
type Request struct {
	ID          string
	Reason      string
	RequestedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request to the queue.
	// Returns false if the queue is full or closed and the request was dropped.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel that receives requests as they arrive.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the current number of pending requests.
	Len(ctx context.Context) int

	// Close stops accepting requests and closes the dequeue channel.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue adds a request to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRefreshRejected("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordRefreshRejected("context_cancelled")
		return false
	}

	select {
	case q.requests <- r:
		metrics.UpdateRefreshQueueSize(len(q.requests))
		return true
	default:
		metrics.RecordRefreshRejected("queue_full")
		return false
	}
}

// Dequeue returns the request channel. Multiple callers share it.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	return q.requests
}

// Len returns the current number of pending requests.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.requests)
	metrics.UpdateRefreshQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
