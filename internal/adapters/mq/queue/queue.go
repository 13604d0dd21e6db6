// Package queue buffers store changes between the record store and the
// publishers that fan them out.
//
// Enqueue never blocks: the store notifies listeners synchronously, so a
// slow broker must not stall a review action. When the buffer is full the
// change is dropped and counted.
package queue

import (
	"context"
	"sync"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Drop reasons reported to metrics.
const (
	dropFull     = "queue_full"
	dropClosed   = "closed"
	dropShutdown = "shutdown"
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a change to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c model.Change) bool

	// Dequeue returns a channel that receives changes as they become available.
	// The channel is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Change

	// Len returns the current number of queued changes.
	Len() int

	// Close stops accepting changes. Buffered changes remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	changes  chan model.Change
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.changes = make(chan model.Change, q.capacity)

	metrics.UpdateChangeQueueCapacity(q.capacity)
	metrics.UpdateChangeQueueSize(0)
	return q
}

// Enqueue adds a change to the queue without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, c model.Change) bool {
	return q.Push(c) == nil
}

// Push is Enqueue with the failure reason.
func (q *InMemoryQueue) Push(c model.Change) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordChangeDropped(dropClosed)
		return ErrClosed
	}

	select {
	case q.changes <- c:
		metrics.RecordChangeEnqueued()
		metrics.UpdateChangeQueueSize(len(q.changes))
		return nil
	default:
		metrics.RecordChangeDropped(dropFull)
		return ErrFull
	}
}

// Listener adapts the queue to a store subscription callback.
func (q *InMemoryQueue) Listener() func(model.Change) {
	return func(c model.Change) { _ = q.Push(c) }
}

// Dequeue returns a channel that will receive changes as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Change {
	out := make(chan model.Change)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-q.changes:
				if !ok {
					return
				}
				select {
				case out <- c:
					metrics.RecordChangeDequeued()
					metrics.UpdateChangeQueueSize(len(q.changes))
				case <-ctx.Done():
					metrics.RecordChangeDropped(dropShutdown)
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued changes.
func (q *InMemoryQueue) Len() int {
	size := len(q.changes)
	metrics.UpdateChangeQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close gracefully shuts down the queue. Calling it twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.changes)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
