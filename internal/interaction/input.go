package interaction

import (
	"strings"
	"sync"

	"github.com/roach88/canco/internal/shape"
)

// Key is a keyboard event.
type Key struct {
	Name  string `yaml:"name" json:"name"`
	Ctrl  bool   `yaml:"ctrl,omitempty" json:"ctrl,omitempty"`
	Meta  bool   `yaml:"meta,omitempty" json:"meta,omitempty"`
	Shift bool   `yaml:"shift,omitempty" json:"shift,omitempty"`
}

// is reports whether the key name matches, ignoring case for single letters
// (shift turns "z" into "Z" on most platforms).
func (k Key) is(name string) bool {
	if len(name) == 1 {
		return strings.EqualFold(k.Name, name)
	}
	return k.Name == name
}

// Handler receives input events.
type Handler interface {
	PointerDown(p shape.Point)
	PointerMove(p shape.Point)
	PointerUp(p shape.Point)
	// KeyDown returns true when the key was handled and the platform
	// default should be suppressed.
	KeyDown(k Key) bool
}

// Subscription is a registration with a Source. Release is idempotent.
type Subscription interface {
	Release()
}

// Source delivers input events to subscribed handlers.
type Source interface {
	Subscribe(h Handler) (Subscription, error)
}

// Bus is an in-process Source. Events are delivered synchronously on the
// caller's goroutine, in subscription order.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h.
func (b *Bus) Subscribe(h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[id] = h
	b.order = append(b.order, id)
	return &busSubscription{bus: b, id: id}, nil
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the live handlers so dispatch runs without the lock held.
func (b *Bus) snapshot() []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.handlers[id])
	}
	return out
}

// PointerDown dispatches a pointer-down event.
func (b *Bus) PointerDown(p shape.Point) {
	for _, h := range b.snapshot() {
		h.PointerDown(p)
	}
}

// PointerMove dispatches a pointer-move event.
func (b *Bus) PointerMove(p shape.Point) {
	for _, h := range b.snapshot() {
		h.PointerMove(p)
	}
}

// PointerUp dispatches a pointer-up event.
func (b *Bus) PointerUp(p shape.Point) {
	for _, h := range b.snapshot() {
		h.PointerUp(p)
	}
}

// KeyDown dispatches a key event and reports whether any handler handled it.
func (b *Bus) KeyDown(k Key) bool {
	handled := false
	for _, h := range b.snapshot() {
		if h.KeyDown(k) {
			handled = true
		}
	}
	return handled
}

type busSubscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

func (s *busSubscription) Release() {
	s.once.Do(func() { s.bus.remove(s.id) })
}
