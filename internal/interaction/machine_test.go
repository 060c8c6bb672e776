package interaction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/testutil"
	"github.com/roach88/canco/internal/tool"
)

type fakeHost struct {
	state       canvas.State
	applied     []shape.Operation
	provisional *shape.Shape
	modes       []Mode
	undos       int
	redos       int
}

func (h *fakeHost) State() canvas.State { return h.state }

func (h *fakeHost) Apply(op shape.Operation) {
	h.applied = append(h.applied, op)
	h.state = canvas.Apply(h.state, op)
}

func (h *fakeHost) SetProvisional(s *shape.Shape) {
	if s == nil {
		h.provisional = nil
		return
	}
	cp := *s
	h.provisional = &cp
}

func (h *fakeHost) ModeChanged(m Mode) { h.modes = append(h.modes, m) }
func (h *fakeHost) Undo() bool         { h.undos++; return true }
func (h *fakeHost) Redo() bool         { h.redos++; return true }

func (h *fakeHost) types() []shape.OpType {
	out := make([]shape.OpType, 0, len(h.applied))
	for _, op := range h.applied {
		out = append(out, op.Type())
	}
	return out
}

func newMachine(t *testing.T, st canvas.State) (*Machine, *fakeHost, *tool.Manager) {
	t.Helper()
	factory := testutil.NewFactory("id")
	host := &fakeHost{state: st}
	tools := tool.NewManager(factory)
	return New(host, tools, factory), host, tools
}

func selectedRect() shape.Shape {
	return shape.Shape{
		ID: "r", Kind: shape.KindRectangle,
		X: 10, Y: 10, Width: 90, Height: 70,
		Color: "white", IsSelected: true, ZIndex: 1,
	}
}

func TestMachine_CreateMoveScenario(t *testing.T) {
	m, host, tools := newMachine(t, canvas.Empty())
	tools.SetTool(tool.Rectangle)

	m.PointerDown(shape.Point{X: 10, Y: 10})
	assert.Equal(t, Creating, m.Mode())
	require.NotNil(t, host.provisional)

	m.PointerMove(shape.Point{X: 100, Y: 80})
	assert.Equal(t, 90.0, host.provisional.Width)
	assert.Equal(t, 70.0, host.provisional.Height)
	assert.Equal(t, 0, host.state.Len(), "provisional shapes are never committed")

	m.PointerUp(shape.Point{X: 100, Y: 80})
	assert.Equal(t, Idle, m.Mode())
	assert.Nil(t, host.provisional)
	assert.Equal(t, []shape.OpType{shape.OpDeselectAll, shape.OpCreateShape}, host.types())

	created, ok := host.state.Selected()
	require.True(t, ok)
	assert.Equal(t, shape.Shape{
		ID: "id-2", Kind: shape.KindRectangle,
		X: 10, Y: 10, Width: 90, Height: 70,
		Color: "white", IsSelected: true, ZIndex: 1,
	}, created)

	// Drag the interior by (5,5).
	m.PointerDown(shape.Point{X: 50, Y: 50})
	assert.Equal(t, Moving, m.Mode())
	m.PointerMove(shape.Point{X: 55, Y: 55})
	m.PointerUp(shape.Point{X: 55, Y: 55})

	require.Len(t, host.applied, 3)
	last := host.applied[2]
	require.Equal(t, shape.OpUpdateShape, last.Type())
	update := last.Payload.(shape.UpdateShape)
	assert.Equal(t, "id-2", update.ID)
	assert.Equal(t, shape.Patch{X: shape.Float(15), Y: shape.Float(15)}, update.Changes)
}

func TestMachine_NonViableShapeDiscarded(t *testing.T) {
	m, host, tools := newMachine(t, canvas.Empty())
	tools.SetTool(tool.Circle)

	m.PointerDown(shape.Point{X: 10, Y: 10})
	m.PointerMove(shape.Point{X: 20, Y: 40})
	m.PointerUp(shape.Point{X: 20, Y: 40})

	assert.Equal(t, []shape.OpType{shape.OpDeselectAll}, host.types())
	assert.Equal(t, 0, host.state.Len())
	assert.Equal(t, Idle, m.Mode())
}

func TestMachine_EmptySpaceWithoutTool(t *testing.T) {
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{selectedRect()}))

	m.PointerDown(shape.Point{X: 400, Y: 400})
	assert.Equal(t, Idle, m.Mode())
	assert.Equal(t, []shape.OpType{shape.OpDeselectAll}, host.types())
	assert.Equal(t, "", host.state.SelectedID())
}

func TestMachine_SelectTopmostOutline(t *testing.T) {
	below := shape.Shape{ID: "below", Kind: shape.KindRectangle, X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 1}
	above := shape.Shape{ID: "above", Kind: shape.KindRectangle, X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 2}
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{below, above}))

	m.PointerDown(shape.Point{X: 50, Y: 1})
	assert.Equal(t, Moving, m.Mode())
	require.Equal(t, []shape.OpType{shape.OpSelectShape}, host.types())
	assert.Equal(t, "above", host.applied[0].TargetID())

	m.PointerMove(shape.Point{X: 60, Y: 11})
	update := host.applied[1].Payload.(shape.UpdateShape)
	assert.Equal(t, "above", update.ID)
	assert.Equal(t, 10.0, *update.Changes.X)
	assert.Equal(t, 10.0, *update.Changes.Y)
}

func TestMachine_ResizeBottomRightClamps(t *testing.T) {
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{selectedRect()}))

	m.PointerDown(shape.Point{X: 105, Y: 85})
	require.Equal(t, Resizing, m.Mode())

	m.PointerMove(shape.Point{X: 50, Y: 40})
	sh, _ := host.state.Shape("r")
	assert.Equal(t, 40.0, sh.Width)
	assert.Equal(t, 30.0, sh.Height)

	m.PointerMove(shape.Point{X: 12, Y: 12})
	sh, _ = host.state.Shape("r")
	assert.Equal(t, tool.MinSize, sh.Width)
	assert.Equal(t, tool.MinSize, sh.Height)

	m.PointerUp(shape.Point{})
	assert.Equal(t, Idle, m.Mode())
}

func TestMachine_ResizeLineEnd(t *testing.T) {
	line := shape.Shape{ID: "l", Kind: shape.KindLine, X: 10, Y: 10, Width: 50, Height: 0, IsSelected: true, ZIndex: 1}
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{line}))

	m.PointerDown(shape.Point{X: 60, Y: 10})
	require.Equal(t, Resizing, m.Mode())
	m.PointerMove(shape.Point{X: 5, Y: 12})

	sh, _ := host.state.Shape("l")
	assert.Equal(t, -5.0, sh.Width, "lines have no minimum size")
	assert.Equal(t, 2.0, sh.Height)
}

func TestMachine_MoveWithoutSelectionIsNoop(t *testing.T) {
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{selectedRect()}))
	m.PointerDown(shape.Point{X: 50, Y: 50})
	require.Equal(t, Moving, m.Mode())

	// A remote peer deletes the shape mid-drag.
	host.state = canvas.Apply(host.state, shape.Operation{ID: "remote", Payload: shape.DeleteShape{ID: "r"}})
	m.PointerMove(shape.Point{X: 70, Y: 70})
	assert.Empty(t, host.applied)
}

func TestMachine_KeyDown(t *testing.T) {
	tests := []struct {
		name        string
		key         Key
		selected    bool
		wantHandled bool
		wantUndos   int
		wantRedos   int
		wantOps     []shape.OpType
	}{
		{name: "ctrl+z undoes", key: Key{Name: "z", Ctrl: true}, wantHandled: true, wantUndos: 1},
		{name: "cmd+z undoes", key: Key{Name: "z", Meta: true}, wantHandled: true, wantUndos: 1},
		{name: "ctrl+shift+z redoes", key: Key{Name: "Z", Ctrl: true, Shift: true}, wantHandled: true, wantRedos: 1},
		{name: "cmd+shift+z redoes", key: Key{Name: "z", Meta: true, Shift: true}, wantHandled: true, wantRedos: 1},
		{name: "ctrl+y redoes", key: Key{Name: "y", Ctrl: true}, wantHandled: true, wantRedos: 1},
		{name: "cmd+y is ignored", key: Key{Name: "y", Meta: true}},
		{name: "plain z is ignored", key: Key{Name: "z"}},
		{name: "delete with selection", key: Key{Name: "Delete"}, selected: true, wantHandled: true, wantOps: []shape.OpType{shape.OpDeleteShape}},
		{name: "backspace with selection", key: Key{Name: "Backspace"}, selected: true, wantHandled: true, wantOps: []shape.OpType{shape.OpDeleteShape}},
		{name: "delete without selection", key: Key{Name: "Delete"}},
		{name: "escape deselects", key: Key{Name: "Escape"}, selected: true, wantHandled: true, wantOps: []shape.OpType{shape.OpDeselectAll}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := selectedRect()
			r.IsSelected = tt.selected
			m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{r}))

			assert.Equal(t, tt.wantHandled, m.KeyDown(tt.key))
			assert.Equal(t, tt.wantUndos, host.undos)
			assert.Equal(t, tt.wantRedos, host.redos)
			if tt.wantOps == nil {
				assert.Empty(t, host.applied)
			} else {
				assert.Equal(t, tt.wantOps, host.types())
			}
		})
	}
}

func TestMachine_EscapeDisarmsTool(t *testing.T) {
	m, _, tools := newMachine(t, canvas.Empty())
	tools.SetTool(tool.Line)
	assert.True(t, m.KeyDown(Key{Name: "Escape"}))
	assert.False(t, tools.Armed())
}

func TestMachine_AttachAndClose(t *testing.T) {
	m, host, tools := newMachine(t, canvas.Empty())
	tools.SetTool(tool.Line)
	bus := NewBus()

	require.NoError(t, m.Attach(bus))
	assert.Equal(t, 1, bus.Len())

	bus.PointerDown(shape.Point{X: 0, Y: 0})
	bus.PointerMove(shape.Point{X: 40, Y: 30})
	bus.PointerUp(shape.Point{X: 40, Y: 30})
	assert.Equal(t, 1, host.state.Len())
	assert.True(t, bus.KeyDown(Key{Name: "z", Ctrl: true}))

	m.Close()
	assert.Equal(t, 0, bus.Len())
	m.Close()

	bus.PointerDown(shape.Point{X: 500, Y: 500})
	assert.Len(t, host.applied, 2, "released machine receives no events")
}

type failingSource struct{}

func (failingSource) Subscribe(Handler) (Subscription, error) {
	return nil, errors.New("source unavailable")
}

func TestMachine_AttachFailureReleases(t *testing.T) {
	m, _, _ := newMachine(t, canvas.Empty())
	bus := NewBus()

	err := m.Attach(bus, failingSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source unavailable")
	assert.Equal(t, 0, bus.Len(), "partial attach must be rolled back")
}

func TestMachine_CloseMidGesture(t *testing.T) {
	m, host, tools := newMachine(t, canvas.Empty())
	tools.SetTool(tool.Rectangle)
	m.PointerDown(shape.Point{X: 1, Y: 1})
	require.NotNil(t, host.provisional)

	m.Close()
	assert.Equal(t, Idle, m.Mode())
	assert.Nil(t, host.provisional)
}

func TestMachine_ResizeRaisesUntouchedDimension(t *testing.T) {
	flat := shape.Shape{
		ID: "r", Kind: shape.KindRectangle,
		Width: 100, Height: 8,
		Color: "white", IsSelected: true, ZIndex: 1,
	}
	m, host, _ := newMachine(t, canvas.FromShapes([]shape.Shape{flat}))

	m.PointerDown(shape.Point{X: 105, Y: 4})
	require.Equal(t, Resizing, m.Mode())
	m.PointerMove(shape.Point{X: 150, Y: 4})

	sh, _ := host.state.Shape("r")
	assert.Equal(t, 150.0, sh.Width)
	assert.Equal(t, tool.MinSize, sh.Height)
	assert.Equal(t, 0.0, sh.Y, "raising the height keeps the top edge")
}

func TestMachine_EscapeCancelsGesture(t *testing.T) {
	tests := []struct {
		name  string
		setup canvas.State
		arm   bool
		down  shape.Point
		move  shape.Point
	}{
		{name: "creating", setup: canvas.Empty(), arm: true, down: shape.Point{X: 10, Y: 10}, move: shape.Point{X: 100, Y: 80}},
		{name: "moving", setup: canvas.FromShapes([]shape.Shape{selectedRect()}), down: shape.Point{X: 50, Y: 50}, move: shape.Point{X: 60, Y: 60}},
		{name: "resizing", setup: canvas.FromShapes([]shape.Shape{selectedRect()}), down: shape.Point{X: 105, Y: 85}, move: shape.Point{X: 150, Y: 120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, host, tools := newMachine(t, tt.setup)
			if tt.arm {
				tools.SetTool(tool.Rectangle)
			}

			m.PointerDown(tt.down)
			require.NotEqual(t, Idle, m.Mode())
			m.PointerMove(tt.move)
			before := len(host.applied)

			assert.True(t, m.KeyDown(Key{Name: "Escape"}))
			assert.Equal(t, Idle, m.Mode())
			assert.Nil(t, host.provisional)
			assert.False(t, tools.Armed())

			m.PointerMove(shape.Point{X: 300, Y: 300})
			m.PointerUp(shape.Point{X: 300, Y: 300})
			require.Len(t, host.applied, before+1, "only the escape deselect is committed")
			assert.Equal(t, shape.OpDeselectAll, host.applied[before].Type())
			assert.Equal(t, tt.setup.Len(), host.state.Len())
		})
	}
}
