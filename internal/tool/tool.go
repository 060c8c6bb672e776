// Package tool tracks the armed drawing tool and builds provisional shapes
// while the user drags.
package tool

import (
	"fmt"
	"math"

	"github.com/roach88/canco/internal/shape"
)

// Defaults for a fresh Manager.
const (
	DefaultColor       = "white"
	DefaultStrokeWidth = 2.0

	// MinSize is the commit gate for provisional shapes and the floor for
	// resized boxes.
	MinSize = 15.0
)

// Tool is the armed drawing tool. None means nothing is armed.
type Tool string

const (
	None      Tool = ""
	Line      Tool = Tool(shape.KindLine)
	Rectangle Tool = Tool(shape.KindRectangle)
	Circle    Tool = Tool(shape.KindCircle)
)

// Parse converts a tool name; "none" and "" disarm.
func Parse(s string) (Tool, error) {
	switch s {
	case "", "none":
		return None, nil
	}
	k, err := shape.ParseKind(s)
	if err != nil {
		return None, fmt.Errorf("parse tool: %w", err)
	}
	return Tool(k), nil
}

func (t Tool) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Manager holds the armed tool, stroke color and stroke width.
type Manager struct {
	factory     *shape.Factory
	tool        Tool
	color       string
	strokeWidth float64
}

// NewManager creates a disarmed manager that mints shapes with factory.
func NewManager(factory *shape.Factory) *Manager {
	return &Manager{
		factory:     factory,
		color:       DefaultColor,
		strokeWidth: DefaultStrokeWidth,
	}
}

// SetTool arms t.
func (m *Manager) SetTool(t Tool) { m.tool = t }

// Tool returns the armed tool.
func (m *Manager) Tool() Tool { return m.tool }

// Armed reports whether a drawing tool is armed.
func (m *Manager) Armed() bool { return m.tool != None }

// Clear disarms the current tool.
func (m *Manager) Clear() { m.tool = None }

// SetColor sets the color of future shapes.
func (m *Manager) SetColor(c string) { m.color = c }

// Color returns the active color.
func (m *Manager) Color() string { return m.color }

// SetStrokeWidth sets the stroke width, clamped to at least 1.
func (m *Manager) SetStrokeWidth(w float64) { m.strokeWidth = math.Max(1, w) }

// StrokeWidth returns the active stroke width.
func (m *Manager) StrokeWidth() float64 { return m.strokeWidth }

// CreateShape builds a zero-size provisional shape of the armed kind anchored
// at p. It returns false when no tool is armed.
func (m *Manager) CreateShape(p shape.Point) (shape.Shape, bool) {
	if !m.Armed() {
		return shape.Shape{}, false
	}
	return m.factory.NewShape(shape.Kind(m.tool), p.X, p.Y, 0, 0, m.color), true
}

// UpdateTempShape recomputes the geometry of a provisional shape from the
// drag vector. Lines keep their direction as a signed delta; boxes occupy the
// rectangle spanned by the two points whatever the drag direction.
func UpdateTempShape(s shape.Shape, start, current shape.Point) shape.Shape {
	if s.Kind == shape.KindLine {
		s.X, s.Y = start.X, start.Y
		s.Width = current.X - start.X
		s.Height = current.Y - start.Y
		return s
	}
	s.X = math.Min(start.X, current.X)
	s.Y = math.Min(start.Y, current.Y)
	s.Width = math.Abs(current.X - start.X)
	s.Height = math.Abs(current.Y - start.Y)
	return s
}

// Viable reports whether both dimensions of s exceed minSize in absolute
// value.
func Viable(s shape.Shape, minSize float64) bool {
	return math.Abs(s.Width) > minSize && math.Abs(s.Height) > minSize
}
