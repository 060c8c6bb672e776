// Package interaction turns pointer and keyboard input into canvas
// operations.
//
// The Machine is a four-state loop (IDLE, CREATING_SHAPE, MOVING_OBJECT,
// RESIZING_OBJECT) that returns to IDLE at the end of every gesture. It never
// mutates canvas state itself; every committed change goes through
// Host.Apply as an operation. Provisional shapes shown while dragging are
// handed to Host.SetProvisional and are never part of committed state.
package interaction

import (
	"fmt"
	"log/slog"

	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/tool"
)

// Mode is the interaction state.
type Mode string

const (
	Idle     Mode = "IDLE"
	Creating Mode = "CREATING_SHAPE"
	Moving   Mode = "MOVING_OBJECT"
	Resizing Mode = "RESIZING_OBJECT"
)

// Host is the owner of committed state the machine drives.
type Host interface {
	// State returns the current committed canvas.
	State() canvas.State
	// Apply commits a locally authored operation.
	Apply(op shape.Operation)
	// SetProvisional shows (or, with nil, hides) the shape being drawn.
	SetProvisional(s *shape.Shape)
	// ModeChanged is called after every mode transition.
	ModeChanged(m Mode)
	// Undo and Redo report whether anything changed.
	Undo() bool
	Redo() bool
}

// Machine is the interaction state machine. It is driven from a single
// goroutine.
type Machine struct {
	host    Host
	tools   *tool.Manager
	factory *shape.Factory
	logger  *slog.Logger

	mode   Mode
	temp   *shape.Shape
	start  shape.Point
	offset shape.Point
	handle shape.HandleType

	subs []Subscription
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates an idle machine.
func New(host Host, tools *tool.Manager, factory *shape.Factory, opts ...Option) *Machine {
	m := &Machine{
		host:    host,
		tools:   tools,
		factory: factory,
		logger:  slog.Default(),
		mode:    Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the current interaction state.
func (m *Machine) Mode() Mode { return m.mode }

// Provisional returns the shape being drawn, if any.
func (m *Machine) Provisional() (shape.Shape, bool) {
	if m.temp == nil {
		return shape.Shape{}, false
	}
	return *m.temp, true
}

// Attach subscribes the machine to every source. If any subscription fails,
// the ones made by this call are released and the error is returned.
func (m *Machine) Attach(sources ...Source) error {
	made := make([]Subscription, 0, len(sources))
	for i, src := range sources {
		sub, err := src.Subscribe(m)
		if err != nil {
			for _, s := range made {
				s.Release()
			}
			return fmt.Errorf("attach source %d: %w", i, err)
		}
		made = append(made, sub)
	}
	m.subs = append(m.subs, made...)
	return nil
}

// Close releases every subscription and resets the gesture.
func (m *Machine) Close() {
	subs := m.subs
	m.subs = nil
	for _, s := range subs {
		s.Release()
	}
	if m.mode != Idle || m.temp != nil {
		m.reset()
	}
}

// PointerDown starts a gesture. First match wins: a handle of the selected
// shape, the interior of the selected shape, the outline of any shape
// (topmost first), then empty space.
func (m *Machine) PointerDown(p shape.Point) {
	m.start = p
	st := m.host.State()

	if sel, ok := st.Selected(); ok {
		if h, ok := shape.HandleAt(p, sel); ok {
			m.handle = h.Type
			m.setMode(Resizing)
			return
		}
		if shape.InInterior(p, sel) {
			m.offset = p.Sub(sel.Origin())
			m.setMode(Moving)
			return
		}
	}

	for _, sh := range st.TopmostFirst() {
		if shape.OnOutline(p, sh) {
			m.host.Apply(m.factory.Select(sh.ID))
			m.offset = p.Sub(sh.Origin())
			m.setMode(Moving)
			return
		}
	}

	m.host.Apply(m.factory.DeselectAll())
	if temp, ok := m.tools.CreateShape(p); ok {
		m.temp = &temp
		m.setMode(Creating)
		m.host.SetProvisional(m.temp)
		return
	}
	m.setMode(Idle)
}

// PointerMove advances the current gesture.
func (m *Machine) PointerMove(p shape.Point) {
	switch m.mode {
	case Creating:
		if m.temp == nil {
			return
		}
		next := tool.UpdateTempShape(*m.temp, m.start, p)
		m.temp = &next
		m.host.SetProvisional(m.temp)

	case Moving:
		sel, ok := m.host.State().Selected()
		if !ok {
			return
		}
		m.host.Apply(m.factory.Update(sel.ID, shape.Patch{
			X: shape.Float(p.X - m.offset.X),
			Y: shape.Float(p.Y - m.offset.Y),
		}))

	case Resizing:
		sel, ok := m.host.State().Selected()
		if !ok {
			return
		}
		m.host.Apply(m.factory.Update(sel.ID, ResizePatch(sel, m.handle, p)))
	}
}

// PointerUp ends the gesture, committing a viable provisional shape.
func (m *Machine) PointerUp(shape.Point) {
	if m.mode == Creating && m.temp != nil {
		if tool.Viable(*m.temp, tool.MinSize) {
			m.host.Apply(m.factory.Create(*m.temp))
		} else {
			m.logger.Debug("discarding provisional shape", "kind", m.temp.Kind,
				"width", m.temp.Width, "height", m.temp.Height)
		}
	}
	m.reset()
}

// KeyDown handles keyboard shortcuts:
//
//	Ctrl/Cmd+Z           undo
//	Ctrl/Cmd+Shift+Z     redo
//	Ctrl+Y               redo
//	Delete/Backspace     delete the selected shape
//	Escape               cancel the gesture, disarm the tool and deselect
func (m *Machine) KeyDown(k Key) bool {
	mod := k.Ctrl || k.Meta

	switch {
	case mod && k.is("z") && !k.Shift:
		m.host.Undo()
		return true
	case (mod && k.Shift && k.is("z")) || (k.Ctrl && k.is("y")):
		m.host.Redo()
		return true
	}

	if k.Name == "Delete" || k.Name == "Backspace" {
		if id := m.host.State().SelectedID(); id != "" {
			m.host.Apply(m.factory.Delete(id))
			return true
		}
	}

	if k.Name == "Escape" {
		if m.mode != Idle {
			m.reset()
		}
		m.tools.Clear()
		m.host.Apply(m.factory.DeselectAll())
		return true
	}
	return false
}

func (m *Machine) setMode(mode Mode) {
	if m.mode != mode {
		m.logger.Debug("interaction mode", "from", m.mode, "to", mode)
	}
	m.mode = mode
	m.host.ModeChanged(mode)
}

// reset clears every transient field and returns to IDLE.
func (m *Machine) reset() {
	m.temp = nil
	m.start = shape.Point{}
	m.offset = shape.Point{}
	m.handle = ""
	m.setMode(Idle)
	m.host.SetProvisional(nil)
}
