package pollfsm

import "sync"

// DefaultQueueSize is the EventQueue capacity used when none is configured.
const DefaultQueueSize = 32

// EventQueue is a bounded FIFO ring of pending events.
// Thread-Safety:
//   - Push: any goroutine (input callbacks, timer goroutines)
//   - Pop/Clear: the polling goroutine
//
// The mutex is held only for the index arithmetic; nothing blocks inside it.
// Overflow: Push refuses new events, queued ones are never overwritten.
type EventQueue struct {
	mu      sync.Mutex
	buf     []EventID
	head    int
	size    int
	seq     uint64
	dropped uint64
}

// NewEventQueue creates a queue holding at most capacity events.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &EventQueue{buf: make([]EventID, capacity)}
}

// Push appends ev. Returns ErrQueueFull when the ring is full.
func (q *EventQueue) Push(ev EventID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.buf) {
		q.dropped++
		return ErrQueueFull
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	q.seq++
	return nil
}

// Pop removes the oldest event.
func (q *EventQueue) Pop() (EventID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return 0, false
	}
	ev := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return ev, true
}

// Clear drops every pending event and returns how many were removed.
func (q *EventQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.size
	q.head, q.size = 0, 0
	return n
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *EventQueue) Cap() int {
	return len(q.buf)
}

// Accepted returns the total number of events ever pushed successfully.
func (q *EventQueue) Accepted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.seq
}

// Dropped returns the number of pushes refused because the queue was full.
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
