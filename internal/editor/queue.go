package editor

import (
	"sync"

	"github.com/roach88/canco/internal/interaction"
	"github.com/roach88/canco/internal/shape"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventPointerDown starts a gesture at Point.
	EventPointerDown EventType = iota + 1
	// EventPointerMove advances the gesture to Point.
	EventPointerMove
	// EventPointerUp ends the gesture at Point.
	EventPointerUp
	// EventKey is a key press.
	EventKey
	// EventRemote carries an operation received from a peer.
	EventRemote
)

func (t EventType) String() string {
	switch t {
	case EventPointerDown:
		return "pointer_down"
	case EventPointerMove:
		return "pointer_move"
	case EventPointerUp:
		return "pointer_up"
	case EventKey:
		return "key"
	case EventRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the Run loop. Only the field matching Type
// is read.
type Event struct {
	Type      EventType
	Point     shape.Point
	Key       interaction.Key
	Operation shape.Operation
}

// eventQueue is a thread-safe, unbounded FIFO of events.
//
// Input sources and the channel reader goroutine enqueue; the Run loop is the
// only consumer. A 1-buffered signal channel lets Run wait with a select on
// ctx.Done().
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	// Drop the slot's payload reference so the backing array does not pin it.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available. It is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes the waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
