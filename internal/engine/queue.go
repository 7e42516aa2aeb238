package engine

import (
	"sync"

	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
)

// Queue is an unbounded, goroutine-safe buffer of events waiting for a flush.
//
// Push never blocks beyond a slice append under the lock, and never fails.
// DrainAll hands the whole backing slice to the caller and starts a fresh one,
// so a drained batch is never shared with later pushes.
type Queue struct {
	mu     sync.Mutex
	events []event.Event
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{events: make([]event.Event, 0, 64)}
}

// Push appends one event.
func (q *Queue) Push(ev event.Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// PushAll appends every event of evs. Used to hand a failed batch back.
func (q *Queue) PushAll(evs []event.Event) {
	if len(evs) == 0 {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, evs...)
	q.mu.Unlock()
}

// DrainAll removes and returns everything queued. The result is nil when the
// queue was empty.
func (q *Queue) DrainAll() []event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]event.Event, 0, 64)
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
