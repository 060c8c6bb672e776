package harness

import (
	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/shape"
)

// TraceEvent is one committed operation.
type TraceEvent struct {
	Seq    int64           `json:"seq"`
	Origin editor.Origin   `json:"origin"`
	Op     shape.Operation `json:"op"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists committed operations in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Shapes is the final canvas in draw order.
	Shapes []shape.Shape `json:"shapes"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Shapes: []shape.Shape{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a committed operation.
func (r *Result) AddTrace(op shape.Operation, origin editor.Origin) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Origin: origin,
		Op:     op,
	})
}
