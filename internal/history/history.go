// Package history keeps the bounded log of locally authored operations and
// reconstructs past canvas states by replay.
//
// The cursor marks the last applied entry and starts at -1 (nothing applied).
// Undo and redo never invert operations; they replay the log prefix onto a
// base snapshot. The base is the empty canvas until the log first overflows
// its limit, after which dropped entries are folded into it so shapes created
// by them survive later undos.
package history

import (
	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/shape"
)

// DefaultLimit is the maximum number of entries kept.
const DefaultLimit = 50

// Log is the operation history. Not safe for concurrent use; it is owned by
// the editor's event loop.
type Log struct {
	base   canvas.State
	ops    []shape.Operation
	cursor int
	limit  int
}

// Option configures a Log.
type Option func(*Log)

// WithLimit sets the maximum number of entries. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(l *Log) {
		if n >= 1 {
			l.limit = n
		}
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		base:   canvas.Empty(),
		ops:    make([]shape.Operation, 0, DefaultLimit),
		cursor: -1,
		limit:  DefaultLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends op after the cursor, discarding any redo branch. When the
// log exceeds its limit the oldest entry is folded into the base snapshot and
// the cursor shifts with it.
func (l *Log) Record(op shape.Operation) {
	l.ops = append(l.ops[:l.cursor+1], op)
	l.cursor++

	if len(l.ops) > l.limit {
		l.base = canvas.Apply(l.base, l.ops[0])
		l.ops[0] = shape.Operation{}
		l.ops = l.ops[1:]
		l.cursor--
	}
}

// Undo steps back one entry and returns the state after replaying the
// entries before it. ok is false when there is nothing to undo.
func (l *Log) Undo() (state canvas.State, ok bool) {
	if l.cursor < 0 {
		return canvas.State{}, false
	}
	state = canvas.Replay(l.base, l.ops[:l.cursor])
	l.cursor--
	return state, true
}

// Redo re-applies the next entry and returns the resulting state together
// with the redone operation. ok is false when the cursor is at the end.
func (l *Log) Redo() (state canvas.State, op shape.Operation, ok bool) {
	if l.cursor >= len(l.ops)-1 {
		return canvas.State{}, shape.Operation{}, false
	}
	l.cursor++
	return canvas.Replay(l.base, l.ops[:l.cursor+1]), l.ops[l.cursor], true
}

// Current returns the state at the cursor.
func (l *Log) Current() canvas.State {
	return canvas.Replay(l.base, l.ops[:l.cursor+1])
}

// CanUndo reports whether Undo would succeed.
func (l *Log) CanUndo() bool { return l.cursor >= 0 }

// CanRedo reports whether Redo would succeed.
func (l *Log) CanRedo() bool { return l.cursor < len(l.ops)-1 }

// Clear drops every entry and resets the base to the empty canvas.
func (l *Log) Clear() {
	l.Reset(canvas.Empty())
}

// Reset drops every entry and replays future undos from base. Used after an
// import replaces the whole canvas.
func (l *Log) Reset(base canvas.State) {
	l.base = base
	l.ops = l.ops[:0]
	l.cursor = -1
}

// Info summarizes the log.
type Info struct {
	Length  int  `json:"length"`
	Cursor  int  `json:"cursor"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Info returns the current log summary.
func (l *Log) Info() Info {
	return Info{
		Length:  len(l.ops),
		Cursor:  l.cursor,
		CanUndo: l.CanUndo(),
		CanRedo: l.CanRedo(),
	}
}

// Operations returns a copy of the recorded entries.
func (l *Log) Operations() []shape.Operation {
	out := make([]shape.Operation, len(l.ops))
	copy(out, l.ops)
	return out
}
