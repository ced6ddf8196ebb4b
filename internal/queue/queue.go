// Package queue provides an unbounded FIFO that producers can push to without
// ever blocking and a single consumer can wait on inside a select.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/zjrosen/shellpal/internal/log"
)

// ErrClosed is returned by Pop once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// HighWater is the length at which a queue logs that its consumer is falling behind.
const HighWater = 1024

// Queue is an unbounded FIFO.
//
// Push never blocks. Ready delivers a token whenever at least one item is
// waiting, so a consumer can combine several queues in one select and then
// call TryPop on the queue that fired.
type Queue[T any] struct {
	name   string
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	done   chan struct{}
	closed bool
	warned bool
}

// New creates an empty queue. The name is only used for logging.
func New[T any](name string) *Queue[T] {
	return &Queue[T]{
		name:  name,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends v. Returns false if the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	n := len(q.items)
	crossed := n >= HighWater && !q.warned
	if crossed {
		q.warned = true
	}
	q.mu.Unlock()

	if crossed {
		log.Debug(log.CatEvents, "queue above high water", "queue", q.name, "len", n)
	}
	q.signal()
	return true
}

// Ready returns a channel that receives when an item may be available.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Done is closed when the queue is closed.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T

	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	remaining := len(q.items)
	if remaining < HighWater/2 {
		q.warned = false
	}
	q.mu.Unlock()

	// Re-arm so a consumer that already drained the token still wakes up.
	if remaining > 0 {
		q.signal()
	}
	return v, true
}

// Pop blocks until an item is available, ctx is done, or the queue is closed
// and empty.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.ready:
		case <-q.done:
			if v, ok := q.TryPop(); ok {
				return v, nil
			}
			return zero, ErrClosed
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting new items. Items already queued can still be popped.
// Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
