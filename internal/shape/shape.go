package shape

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the geometry of a shape.
type Kind string

const (
	KindLine      Kind = "line"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
)

// Kinds lists every valid shape kind.
var Kinds = []Kind{KindLine, KindRectangle, KindCircle}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLine, KindRectangle, KindCircle:
		return true
	}
	return false
}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid shape kind %q", s)
	}
	return k, nil
}

// UnmarshalJSON rejects kinds outside the closed set.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("shape kind must be a string: %w", err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Shape is a committed drawable entity.
//
// For lines, (X, Y) is the start point and (Width, Height) is the signed
// vector to the end point. For rectangles and circles, (X, Y) is the top-left
// corner of the bounding box.
type Shape struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Color      string  `json:"color"`
	IsSelected bool    `json:"isSelected"`
	ZIndex     int64   `json:"zIndex"`
}

// Origin returns the anchor point of the shape.
func (s Shape) Origin() Point {
	return Point{X: s.X, Y: s.Y}
}

// End returns the far corner (or, for lines, the end point).
func (s Shape) End() Point {
	return Point{X: s.X + s.Width, Y: s.Y + s.Height}
}

// Patch holds field-by-field changes for an UpdateShape operation.
// Nil fields are left untouched. Identity fields (id, kind, zIndex) are not
// patchable.
type Patch struct {
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Color      *string  `json:"color,omitempty"`
	IsSelected *bool    `json:"isSelected,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Color == nil && p.IsSelected == nil
}

// ApplyTo merges the patch into s and returns the result. s is not modified.
func (p Patch) ApplyTo(s Shape) Shape {
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.IsSelected != nil {
		s.IsSelected = *p.IsSelected
	}
	return s
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }
