// Package editor is the controller that owns a canvas.
//
// An Editor holds the current committed State, the history log, the tool
// manager and the interaction machine, and optionally a Broadcaster that
// carries local operations to peers. It is the Host the interaction machine
// drives.
//
// Thread-safety model:
//   - Enqueue, EnqueueRemote, Stop: safe from any goroutine
//   - everything else: call from the goroutine running Run, or from a single
//     goroutine when Run is not used
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/canco/internal/canvas"
	"github.com/roach88/canco/internal/export"
	"github.com/roach88/canco/internal/history"
	"github.com/roach88/canco/internal/interaction"
	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/tool"
)

// Broadcaster carries committed local operations to peers.
// channel.Client implements it.
type Broadcaster interface {
	Broadcast(op shape.Operation) error
}

// Origin tells where a committed operation came from.
type Origin string

const (
	Local  Origin = "local"
	Remote Origin = "remote"
)

// Info is a debugging snapshot of the editor.
type Info struct {
	Shapes           int              `json:"shapes"`
	SelectedShape    string           `json:"selectedShape,omitempty"`
	InteractionState interaction.Mode `json:"interactionState"`
	History          history.Info     `json:"history"`
}

// Editor owns one canvas.
type Editor struct {
	state       canvas.State
	provisional *shape.Shape
	mode        interaction.Mode

	history *history.Log
	factory *shape.Factory
	tools   *tool.Manager
	machine *interaction.Machine
	bus     *interaction.Bus
	queue   *eventQueue

	broadcaster  Broadcaster
	logger       *slog.Logger
	now          func() time.Time
	historyLimit int

	onCommit func(op shape.Operation, origin Origin)
	onChange func(st canvas.State)
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithBroadcaster sends every committed local operation to b.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Editor) { e.broadcaster = b }
}

// WithFactory sets the id, clock and zIndex source for new shapes and
// operations. Default: shape.NewFactory().
func WithFactory(f *shape.Factory) Option {
	return func(e *Editor) { e.factory = f }
}

// WithHistoryLimit bounds the undo log. Default: history.DefaultLimit.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.historyLimit = n }
}

// WithNow sets the clock used for export timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// OnCommit registers a callback invoked after every local or remote
// operation is reduced into state.
func OnCommit(fn func(op shape.Operation, origin Origin)) Option {
	return func(e *Editor) { e.onCommit = fn }
}

// OnChange registers a callback invoked whenever the committed state is
// replaced: after operations, undo, redo, import and clear.
func OnChange(fn func(st canvas.State)) Option {
	return func(e *Editor) { e.onChange = fn }
}

// New creates an editor with an empty canvas and no armed tool.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		state:        canvas.Empty(),
		mode:         interaction.Idle,
		logger:       slog.Default(),
		now:          time.Now,
		historyLimit: history.DefaultLimit,
		queue:        newEventQueue(),
		bus:          interaction.NewBus(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = shape.NewFactory()
	}

	e.history = history.New(history.WithLimit(e.historyLimit))
	e.tools = tool.NewManager(e.factory)
	e.machine = interaction.New(e, e.tools, e.factory, interaction.WithLogger(e.logger))
	if err := e.machine.Attach(e.bus); err != nil {
		return nil, fmt.Errorf("attach input: %w", err)
	}
	return e, nil
}

// State returns the current committed canvas.
func (e *Editor) State() canvas.State { return e.state }

// Mode returns the interaction state.
func (e *Editor) Mode() interaction.Mode { return e.mode }

// Provisional returns the shape being drawn, if any.
func (e *Editor) Provisional() (shape.Shape, bool) {
	if e.provisional == nil {
		return shape.Shape{}, false
	}
	return *e.provisional, true
}

// Tools returns the tool manager.
func (e *Editor) Tools() *tool.Manager { return e.tools }

// Input returns the bus the interaction machine listens on.
func (e *Editor) Input() *interaction.Bus { return e.bus }

// SetTool arms a drawing tool, or disarms with tool.None.
func (e *Editor) SetTool(t tool.Tool) {
	e.tools.SetTool(t)
	e.logger.Debug("tool set", "tool", t)
}

// SetColor sets the color for new shapes.
func (e *Editor) SetColor(c string) {
	e.tools.SetColor(c)
	e.logger.Debug("color set", "color", c)
}

// PointerDown, PointerMove, PointerUp and KeyDown dispatch input through the
// bus.
func (e *Editor) PointerDown(p shape.Point) { e.bus.PointerDown(p) }
func (e *Editor) PointerMove(p shape.Point) { e.bus.PointerMove(p) }
func (e *Editor) PointerUp(p shape.Point)   { e.bus.PointerUp(p) }
func (e *Editor) KeyDown(k interaction.Key) bool {
	return e.bus.KeyDown(k)
}

// Apply commits a locally authored operation: reduce it, record it in
// history (DeselectAll only when something was selected), broadcast it,
// then notify. An operation the reducer rejects panics before it reaches
// history or peers.
func (e *Editor) Apply(op shape.Operation) {
	next := canvas.Apply(e.state, op)

	if _, ok := op.Payload.(shape.DeselectAll); !ok || e.state.SelectedID() != "" {
		e.history.Record(op)
	}

	if e.broadcaster != nil {
		if err := e.broadcaster.Broadcast(op); err != nil {
			e.logger.Warn("broadcast failed",
				"op_id", op.ID,
				"type", op.Type(),
				"error", err,
			)
		}
	}

	e.state = next
	e.logger.Debug("operation applied",
		"op_id", op.ID,
		"type", op.Type(),
		"target", op.TargetID(),
		"origin", Local,
	)
	e.committed(op, Local)
}

// ApplyRemote reduces an operation received from a peer. It is neither
// recorded in history nor broadcast again. Operations without a payload are
// dropped.
func (e *Editor) ApplyRemote(op shape.Operation) {
	if op.Payload == nil {
		e.logger.Warn("dropping remote operation without payload", "op_id", op.ID)
		return
	}
	if c, ok := op.Payload.(shape.CreateShape); ok {
		e.factory.ZClock().Observe(c.Shape.ZIndex)
	}

	e.state = canvas.Apply(e.state, op)
	e.logger.Debug("operation applied",
		"op_id", op.ID,
		"type", op.Type(),
		"target", op.TargetID(),
		"origin", Remote,
	)
	e.committed(op, Remote)
}

// SetProvisional implements interaction.Host.
func (e *Editor) SetProvisional(s *shape.Shape) {
	if s == nil {
		e.provisional = nil
		return
	}
	cp := *s
	e.provisional = &cp
}

// ModeChanged implements interaction.Host.
func (e *Editor) ModeChanged(m interaction.Mode) { e.mode = m }

// Undo replaces the state with the one before the last recorded operation.
// Shapes that arrived from peers are not in the history and disappear.
// Undo is not broadcast.
func (e *Editor) Undo() bool {
	st, ok := e.history.Undo()
	if !ok {
		e.logger.Debug("nothing to undo")
		return false
	}
	e.replace(st)
	e.logger.Debug("undo", "cursor", e.history.Info().Cursor)
	return true
}

// Redo re-applies the next recorded operation. Redo is not broadcast.
func (e *Editor) Redo() bool {
	st, op, ok := e.history.Redo()
	if !ok {
		e.logger.Debug("nothing to redo")
		return false
	}
	e.replace(st)
	e.logger.Debug("redo", "op_id", op.ID, "type", op.Type())
	return true
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// History returns the recorded operations.
func (e *Editor) History() []shape.Operation { return e.history.Operations() }

// Clear empties the canvas and the history.
func (e *Editor) Clear() {
	e.history.Clear()
	e.replace(canvas.Empty())
	e.logger.Info("canvas cleared")
}

// Export encodes the current state as an export document.
func (e *Editor) Export() ([]byte, error) {
	return export.Encode(export.New(e.state, e.now()))
}

// Import replaces the canvas with the shapes of an export document. On
// invalid input it logs the problem, leaves the state untouched and returns
// false. The imported state becomes the new undo floor.
func (e *Editor) Import(data []byte) bool {
	doc, err := export.Decode(data)
	if err != nil {
		e.logger.Warn("import failed", "error", err)
		return false
	}

	st := doc.State()
	e.history.Reset(st)
	e.factory.ZClock().Observe(st.MaxZIndex())
	e.replace(st)
	e.logger.Info("imported shapes", "count", st.Len())
	return true
}

// Info returns a debugging snapshot.
func (e *Editor) Info() Info {
	return Info{
		Shapes:           e.state.Len(),
		SelectedShape:    e.state.SelectedID(),
		InteractionState: e.mode,
		History:          e.history.Info(),
	}
}

// Enqueue submits an event to the Run loop. Returns false after Stop.
func (e *Editor) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// EnqueueRemote submits a peer operation to the Run loop. Its signature
// matches channel.Handler.
func (e *Editor) EnqueueRemote(op shape.Operation) {
	if !e.queue.Enqueue(Event{Type: EventRemote, Operation: op}) {
		e.logger.Debug("editor stopped, dropping remote operation", "op_id", op.ID)
	}
}

// Run processes queued events until ctx is cancelled or Stop is called.
// It must be called from exactly one goroutine. Events already queued when
// Stop is called are still processed.
func (e *Editor) Run(ctx context.Context) error {
	e.logger.Info("editor starting")

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			e.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("editor stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop.
			if e.queue.Len() == 0 && e.stopped() {
				e.logger.Info("editor stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue; Run returns once it is drained.
func (e *Editor) Stop() {
	e.queue.Close()
}

// Close stops the queue and releases the machine's input subscriptions.
func (e *Editor) Close() {
	e.Stop()
	e.machine.Close()
}

func (e *Editor) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Editor) process(ev Event) {
	switch ev.Type {
	case EventPointerDown:
		e.PointerDown(ev.Point)
	case EventPointerMove:
		e.PointerMove(ev.Point)
	case EventPointerUp:
		e.PointerUp(ev.Point)
	case EventKey:
		e.KeyDown(ev.Key)
	case EventRemote:
		e.ApplyRemote(ev.Operation)
	default:
		e.logger.Error("unknown event type", "type", int(ev.Type))
	}
}

func (e *Editor) replace(st canvas.State) {
	e.state = st
	if e.onChange != nil {
		e.onChange(st)
	}
}

func (e *Editor) committed(op shape.Operation, origin Origin) {
	if e.onCommit != nil {
		e.onCommit(op, origin)
	}
	if e.onChange != nil {
		e.onChange(e.state)
	}
}
