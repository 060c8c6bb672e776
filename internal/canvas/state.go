// Package canvas holds the committed canvas state and the reducer that
// transforms it.
//
// State is an immutable snapshot: Apply never mutates its input and always
// returns a fresh State. Selection exclusivity (at most one shape has
// IsSelected set) holds after every Apply.
package canvas

import (
	"fmt"
	"sort"

	"github.com/roach88/canco/internal/shape"
)

// State is an immutable snapshot of committed shapes and the current
// selection. The zero value is the empty canvas.
type State struct {
	shapes   map[string]shape.Shape
	selected string
}

// Empty returns the empty canvas.
func Empty() State {
	return State{shapes: map[string]shape.Shape{}}
}

// Len returns the number of shapes.
func (s State) Len() int {
	return len(s.shapes)
}

// Shape returns the shape with the given id.
func (s State) Shape(id string) (shape.Shape, bool) {
	sh, ok := s.shapes[id]
	return sh, ok
}

// SelectedID returns the id of the selected shape, or "" when none is.
func (s State) SelectedID() string {
	return s.selected
}

// Selected returns the selected shape, if any.
func (s State) Selected() (shape.Shape, bool) {
	if s.selected == "" {
		return shape.Shape{}, false
	}
	return s.Shape(s.selected)
}

// Shapes returns every shape in draw order (ascending zIndex, ties broken
// by id). The returned slice is owned by the caller and is never nil.
func (s State) Shapes() []shape.Shape {
	out := make([]shape.Shape, 0, len(s.shapes))
	for _, sh := range s.shapes {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TopmostFirst returns every shape in hit-test order (descending zIndex).
func (s State) TopmostFirst() []shape.Shape {
	out := s.Shapes()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MaxZIndex returns the largest zIndex on the canvas, or 0 when empty.
func (s State) MaxZIndex() int64 {
	var maxZ int64
	for _, sh := range s.shapes {
		if sh.ZIndex > maxZ {
			maxZ = sh.ZIndex
		}
	}
	return maxZ
}

// FromShapes builds a state from a list of shapes, for example an imported
// document. Later duplicates of an id replace earlier ones. If several shapes
// claim to be selected, the one with the highest zIndex keeps the flag.
func FromShapes(shapes []shape.Shape) State {
	st := Empty()
	for _, sh := range shapes {
		st.shapes[sh.ID] = sh
	}

	var winner shape.Shape
	found := false
	for _, sh := range st.shapes {
		if !sh.IsSelected {
			continue
		}
		if !found || sh.ZIndex > winner.ZIndex || (sh.ZIndex == winner.ZIndex && sh.ID > winner.ID) {
			winner = sh
			found = true
		}
	}
	for id, sh := range st.shapes {
		if sh.IsSelected && (!found || id != winner.ID) {
			sh.IsSelected = false
			st.shapes[id] = sh
		}
	}
	if found {
		st.selected = winner.ID
	}
	return st
}

// Equal reports whether two states hold the same shapes and selection.
func (s State) Equal(o State) bool {
	if s.selected != o.selected || len(s.shapes) != len(o.shapes) {
		return false
	}
	for id, sh := range s.shapes {
		if other, ok := o.shapes[id]; !ok || other != sh {
			return false
		}
	}
	return true
}

// Hash returns a content hash of the state. Equal states hash equally.
func (s State) Hash() (string, error) {
	shapes := s.Shapes()
	list := make([]any, 0, len(shapes))
	for _, sh := range shapes {
		list = append(list, shape.CanonicalValue(sh))
	}
	canonical, err := shape.MarshalCanonical(map[string]any{
		"selectedId": s.selected,
		"shapes":     list,
	})
	if err != nil {
		return "", fmt.Errorf("hash state: %w", err)
	}
	return shape.HashWithDomain(shape.DomainState, canonical), nil
}

// clone copies the shape map so the receiver stays untouched.
func (s State) clone() State {
	shapes := make(map[string]shape.Shape, len(s.shapes)+1)
	for id, sh := range s.shapes {
		shapes[id] = sh
	}
	return State{shapes: shapes, selected: s.selected}
}
