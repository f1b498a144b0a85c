package rig

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO of pending actions between the input callback and
// the Executor. When full, new actions are dropped rather than buffered.
type Queue struct {
	mu    sync.Mutex
	items []Action
	depth int

	// ready holds a wake-up for Dequeue. It has room for one signal, so
	// TryEnqueue never blocks on it.
	ready chan struct{}
}

// NewQueue creates a queue holding at most depth actions (at least 1).
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	return &Queue{
		items: make([]Action, 0, depth),
		depth: depth,
		ready: make(chan struct{}, 1),
	}
}

// TryEnqueue appends a without blocking. It returns false if the queue is
// full or a is a control signal.
func (q *Queue) TryEnqueue(a Action) bool {
	if a.IsControl() {
		return false
	}

	q.mu.Lock()
	if len(q.items) >= q.depth {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, a)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Flush discards every queued action and returns how many were dropped.
// Anything enqueued before Flush is called does not survive it.
func (q *Queue) Flush() int {
	q.mu.Lock()
	n := len(q.items)
	q.items = q.items[:0]
	q.mu.Unlock()
	return n
}

// Dequeue blocks until an action is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (Action, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			a := q.items[0]
			q.items = append(q.items[:0], q.items[1:]...)
			q.mu.Unlock()
			return a, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Depth returns the queue capacity.
func (q *Queue) Depth() int {
	return q.depth
}
