package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Send after Close, and by Receive once the queue
// is closed and drained.
var ErrClosed = errors.New("queue closed")

// CaptureEvent is one saved result screenshot waiting for extraction
type CaptureEvent struct {
	Sequence   int // 1-based iteration number
	Path       string
	CapturedAt time.Time
}

// Queue is an unbounded FIFO between the controller and the extraction
// worker. Send never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []CaptureEvent
	closed bool
	notify chan struct{}
	sent   int
}

// New creates an empty queue
func New() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Send appends an event. It fails only when the queue is closed.
func (q *Queue) Send(ev CaptureEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, ev)
	q.sent++
	q.mu.Unlock()

	q.wake()
	return nil
}

// Receive blocks until an event is available. Events queued before Close are
// still delivered; ErrClosed is returned only when nothing is left.
func (q *Queue) Receive(ctx context.Context) (CaptureEvent, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = CaptureEvent{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return CaptureEvent{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return CaptureEvent{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Close marks the producer side finished. Calling it more than once is safe.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// Len returns the number of events waiting
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Sent returns the number of events accepted since creation
func (q *Queue) Sent() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sent
}
