package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/interaction"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Origin, event.Op.Type(), event.Op.TargetID())
		}
	}

	return buf.String()
}

// AssertionContext carries what assertions inspect besides the trace.
type AssertionContext struct {
	Ctx    context.Context
	Editor *editor.Editor
	Store  *store.Store
	Room   string
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertShapeCount:
			err = assertShapeCount(actx.Editor, a)
		case AssertSelected:
			err = assertSelected(actx.Editor, a)
		case AssertShape:
			err = assertShape(actx.Editor, a)
		case AssertMode:
			err = assertMode(actx.Editor, a)
		case AssertCanUndo:
			err = assertBool(AssertCanUndo, actx.Editor.CanUndo(), *a.Value)
		case AssertCanRedo:
			err = assertBool(AssertCanRedo, actx.Editor.CanRedo(), *a.Value)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertJournalReplay:
			err = assertJournalReplay(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertShapeCount(e *editor.Editor, a Assertion) error {
	if got := e.State().Len(); got != *a.Count {
		return &AssertionError{
			Type:     AssertShapeCount,
			Expected: fmt.Sprintf("%d shapes", *a.Count),
			Actual:   fmt.Sprintf("%d shapes", got),
		}
	}
	return nil
}

func assertSelected(e *editor.Editor, a Assertion) error {
	if got := e.State().SelectedID(); got != a.ID {
		return &AssertionError{
			Type:     AssertSelected,
			Expected: fmt.Sprintf("selected %q", a.ID),
			Actual:   fmt.Sprintf("selected %q", got),
		}
	}
	return nil
}

// assertShape checks the expected fields of one shape (subset match).
func assertShape(e *editor.Editor, a Assertion) error {
	sh, ok := e.State().Shape(a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertShape,
			Expected: fmt.Sprintf("shape %s exists", a.ID),
			Actual:   "not found",
		}
	}

	actual := shape.CanonicalValue(sh)
	for field, want := range a.Expect {
		if !valuesEqual(actual[field], want) {
			return &AssertionError{
				Type:     AssertShape,
				Expected: fmt.Sprintf("%s.%s = %v", a.ID, field, want),
				Actual:   fmt.Sprintf("%s.%s = %v", a.ID, field, actual[field]),
			}
		}
	}
	return nil
}

func assertMode(e *editor.Editor, a Assertion) error {
	if got := e.Mode(); got != interaction.Mode(a.Mode) {
		return &AssertionError{
			Type:     AssertMode,
			Expected: a.Mode,
			Actual:   string(got),
		}
	}
	return nil
}

func assertBool(kind string, got, want bool) error {
	if got != want {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// assertTraceCount checks if the operation type was committed exactly the
// specified number of times, optionally from one origin only.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	opType, _ := shape.ParseOpType(a.Op)

	count := 0
	for _, event := range trace {
		if event.Op.Type() != opType {
			continue
		}
		if a.Origin != "" && event.Origin != editor.Origin(a.Origin) {
			continue
		}
		count++
	}

	if count != *a.Count {
		what := string(opType)
		if a.Origin != "" {
			what = a.Origin + " " + what
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the operation types were committed in the
// given relative order. Other operations may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(a.Ops) {
			break
		}
		want, _ := shape.ParseOpType(a.Ops[next])
		if event.Op.Type() == want {
			next++
		}
	}

	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("operations in order: %v", a.Ops),
			Actual:   fmt.Sprintf("matched only %v", a.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertJournalReplay replays the journal and compares it with the editor's
// canvas. Undo, redo, import and clear are not journaled, so after any of
// them the replay may legitimately diverge.
func assertJournalReplay(actx *AssertionContext, a Assertion) error {
	want := true
	if a.Value != nil {
		want = *a.Value
	}

	res, err := actx.Store.ReplayRoom(actx.Ctx, actx.Room)
	if err != nil {
		return fmt.Errorf("journal_replay: %w", err)
	}

	if got := res.State.Equal(actx.Editor.State()); got != want {
		return &AssertionError{
			Type:     AssertJournalReplay,
			Expected: fmt.Sprintf("replay matches canvas: %v", want),
			Actual:   fmt.Sprintf("replay of %d operations matches canvas: %v", res.Operations, got),
		}
	}
	return nil
}

// valuesEqual compares a canonical shape field with a YAML value. YAML
// integers decode as int, canonical numbers are float64 or int64.
func valuesEqual(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && a == e
	}
	return actual == expected
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
