package shape

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints unique ids for shapes and operations.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids in order.
// Panics once every id has been handed out, so tests that mint more ids
// than expected fail loudly.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// ZClock is the monotonic creation counter that stamps zIndex.
//
// Next returns strictly increasing values. Observe lifts the counter past a
// zIndex seen on a remotely created shape so that later local shapes stack
// above it.
type ZClock struct {
	seq atomic.Int64
}

// NewZClock creates a clock whose first Next() returns 1.
func NewZClock() *ZClock {
	return &ZClock{}
}

// NewZClockAt creates a clock whose first Next() returns start+1.
func NewZClockAt(start int64) *ZClock {
	c := &ZClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next zIndex.
func (c *ZClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last handed out zIndex.
func (c *ZClock) Current() int64 {
	return c.seq.Load()
}

// Observe raises the clock to z if z is ahead of it.
func (c *ZClock) Observe(z int64) {
	for {
		cur := c.seq.Load()
		if z <= cur || c.seq.CompareAndSwap(cur, z) {
			return
		}
	}
}

// Factory builds shapes and operations, stamping ids, zIndex and
// timestamps from its injected sources.
type Factory struct {
	ids   IDGenerator
	clock *ZClock
	now   func() time.Time
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithIDGenerator sets the id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) FactoryOption {
	return func(f *Factory) { f.ids = g }
}

// WithZClock sets the zIndex source. Default: a fresh ZClock.
func WithZClock(c *ZClock) FactoryOption {
	return func(f *Factory) { f.clock = c }
}

// WithNow sets the timestamp source. Default: time.Now.
func WithNow(now func() time.Time) FactoryOption {
	return func(f *Factory) { f.now = now }
}

// NewFactory creates a Factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		ids:   UUIDv7Generator{},
		clock: NewZClock(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ZClock returns the factory's zIndex clock.
func (f *Factory) ZClock() *ZClock {
	return f.clock
}

// NewShape builds a selected shape with a fresh id and zIndex.
func (f *Factory) NewShape(kind Kind, x, y, width, height float64, color string) Shape {
	return Shape{
		ID:         f.ids.Generate(),
		Kind:       kind,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		Color:      color,
		IsSelected: true,
		ZIndex:     f.clock.Next(),
	}
}

// Line builds a line from (x1, y1) to (x2, y2).
func (f *Factory) Line(x1, y1, x2, y2 float64, color string) Shape {
	return f.NewShape(KindLine, x1, y1, x2-x1, y2-y1, color)
}

// Rectangle builds a rectangle with top-left corner (x, y).
func (f *Factory) Rectangle(x, y, width, height float64, color string) Shape {
	return f.NewShape(KindRectangle, x, y, width, height, color)
}

// Circle builds an ellipse with bounding-box corner (x, y) and radii rx, ry.
func (f *Factory) Circle(x, y, rx, ry float64, color string) Shape {
	return f.NewShape(KindCircle, x, y, rx*2, ry*2, color)
}

func (f *Factory) op(p Payload) Operation {
	return Operation{
		ID:        f.ids.Generate(),
		Timestamp: f.now().UnixMilli(),
		Payload:   p,
	}
}

// Create returns a CreateShape operation.
func (f *Factory) Create(s Shape) Operation { return f.op(CreateShape{Shape: s}) }

// Update returns an UpdateShape operation.
func (f *Factory) Update(id string, changes Patch) Operation {
	return f.op(UpdateShape{ID: id, Changes: changes})
}

// Delete returns a DeleteShape operation.
func (f *Factory) Delete(id string) Operation { return f.op(DeleteShape{ID: id}) }

// Select returns a SelectShape operation.
func (f *Factory) Select(id string) Operation { return f.op(SelectShape{ID: id}) }

// DeselectAll returns a DeselectAll operation.
func (f *Factory) DeselectAll() Operation { return f.op(DeselectAll{}) }
