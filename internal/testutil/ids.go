package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/canco/internal/shape"
)

// SequenceGenerator mints ids "<prefix>-1", "<prefix>-2", ...
//
// Unlike shape.FixedGenerator it never runs out, which suits scenarios whose
// id count is not known up front. Reset restarts the sequence so the same
// scenario produces byte-identical traces on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator. An empty prefix defaults to "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id. Implements shape.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// NewFactory returns a shape factory wired to a fresh SequenceGenerator,
// a fresh DeterministicClock and a fresh zIndex clock.
func NewFactory(prefix string) *shape.Factory {
	return shape.NewFactory(
		shape.WithIDGenerator(NewSequenceGenerator(prefix)),
		shape.WithNow(NewDeterministicClock().Now),
		shape.WithZClock(shape.NewZClock()),
	)
}
