package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/canco/internal/editor"
	"github.com/roach88/canco/internal/export"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/store"
	"github.com/roach88/canco/internal/testutil"
	"github.com/roach88/canco/internal/tool"
)

// journalRoom is the store room every scenario journals into.
const journalRoom = "scenario"

// Harness is the test execution engine for one scenario run.
type Harness struct {
	editor *editor.Editor
	store  *store.Store
	logger *slog.Logger
	result *Result

	// journalErr is the first store failure seen by the commit hook.
	journalErr error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh editor and a fresh in-memory database.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create a fresh in-memory database and editor
//  2. Execute steps, checking step expectations
//  3. Evaluate assertions against the final canvas and trace
//
// A returned error means the scenario could not be executed at all; step
// and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.CreateRoom(ctx, journalRoom, testutil.Epoch); err != nil {
		return nil, fmt.Errorf("failed to create journal room: %w", err)
	}

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		result: NewResult(),
	}

	ed, err := editor.New(
		editor.WithFactory(testutil.NewFactory("id")),
		editor.WithLogger(h.logger),
		editor.WithNow(func() time.Time { return testutil.Epoch }),
		editor.OnCommit(func(op shape.Operation, origin editor.Origin) {
			h.commit(ctx, op, origin)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	defer ed.Close()
	h.editor = ed

	for i, step := range scenario.Steps {
		if err := h.executeStep(step); err != nil {
			h.result.AddError(fmt.Sprintf("step %d: %v", i+1, err))
		}
		if h.journalErr != nil {
			return nil, fmt.Errorf("step %d: journal: %w", i+1, h.journalErr)
		}
	}

	h.result.Shapes = ed.State().Shapes()

	actx := &AssertionContext{Ctx: ctx, Editor: ed, Store: st, Room: journalRoom}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// commit records a committed operation in the trace and the journal.
func (h *Harness) commit(ctx context.Context, op shape.Operation, origin editor.Origin) {
	h.result.AddTrace(op, origin)
	if h.journalErr != nil {
		return
	}
	if _, err := h.store.WriteOperation(ctx, journalRoom, op); err != nil {
		h.journalErr = err
	}
}

// executeStep performs one step. A returned error is a failed expectation
// or an action the editor rejected.
func (h *Harness) executeStep(st Step) error {
	e := h.editor

	switch {
	case st.Tool != nil:
		t, err := tool.Parse(*st.Tool)
		if err != nil {
			return err
		}
		e.SetTool(t)

	case st.Color != "":
		e.SetColor(st.Color)

	case st.Down != nil:
		e.PointerDown(*st.Down)

	case st.Move != nil:
		e.PointerMove(*st.Move)

	case st.Up != nil:
		e.PointerUp(*st.Up)

	case st.Key != nil:
		return expect(st.Expect, e.KeyDown(*st.Key), "key "+st.Key.Name)

	case st.Remote != nil:
		op, err := remoteOperation(st.Remote)
		if err != nil {
			return err
		}
		e.ApplyRemote(op)

	case st.Undo:
		return expect(st.Expect, e.Undo(), "undo")

	case st.Redo:
		return expect(st.Expect, e.Redo(), "redo")

	case st.Import != "":
		return expect(st.Expect, e.Import([]byte(st.Import)), "import")

	case st.Export:
		data, err := e.Export()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		doc, err := export.Decode(data)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if !doc.State().Equal(e.State()) {
			return fmt.Errorf("export: round trip changed the canvas")
		}

	case st.Clear:
		e.Clear()
	}
	return nil
}

func expect(want *bool, got bool, what string) error {
	if want != nil && *want != got {
		return fmt.Errorf("%s returned %v, expected %v", what, got, *want)
	}
	return nil
}
