package interaction

import (
	"math"

	"github.com/roach88/canco/internal/shape"
	"github.com/roach88/canco/internal/tool"
)

// ResizePatch computes the changes produced by dragging handle h of s to p.
// Each handle fixes the opposite edge(s). Boxes come out of every resize
// with both dimensions at or above tool.MinSize, including a dimension the
// handle does not touch; lines have no floor and their start/end handles
// relocate one endpoint.
func ResizePatch(s shape.Shape, h shape.HandleType, p shape.Point) shape.Patch {
	right := s.X + s.Width
	bottom := s.Y + s.Height

	var patch shape.Patch
	switch h {
	case shape.HandleTopLeft:
		patch.Width = shape.Float(right - p.X)
		patch.Height = shape.Float(bottom - p.Y)
		patch.X = shape.Float(p.X)
		patch.Y = shape.Float(p.Y)
	case shape.HandleTopRight:
		patch.Width = shape.Float(p.X - s.X)
		patch.Height = shape.Float(bottom - p.Y)
		patch.Y = shape.Float(p.Y)
	case shape.HandleBottomRight:
		patch.Width = shape.Float(p.X - s.X)
		patch.Height = shape.Float(p.Y - s.Y)
	case shape.HandleBottomLeft:
		patch.Width = shape.Float(right - p.X)
		patch.Height = shape.Float(p.Y - s.Y)
		patch.X = shape.Float(p.X)
	case shape.HandleTopMiddle:
		patch.Height = shape.Float(bottom - p.Y)
		patch.Y = shape.Float(p.Y)
	case shape.HandleBottomMiddle:
		patch.Height = shape.Float(p.Y - s.Y)
	case shape.HandleMiddleLeft:
		patch.Width = shape.Float(right - p.X)
		patch.X = shape.Float(p.X)
	case shape.HandleMiddleRight:
		patch.Width = shape.Float(p.X - s.X)
	case shape.HandleStart:
		patch.X = shape.Float(p.X)
		patch.Y = shape.Float(p.Y)
		patch.Width = shape.Float(right - p.X)
		patch.Height = shape.Float(bottom - p.Y)
	case shape.HandleEnd:
		patch.Width = shape.Float(p.X - s.X)
		patch.Height = shape.Float(p.Y - s.Y)
	}

	if s.Kind != shape.KindLine {
		patch.Width = floor(patch.Width, s.Width)
		patch.Height = floor(patch.Height, s.Height)
	}
	return patch
}

// floor clamps a patched dimension to tool.MinSize. An untouched dimension
// is only patched when the current value is below the floor.
func floor(patched *float64, current float64) *float64 {
	if patched != nil {
		return shape.Float(math.Max(*patched, tool.MinSize))
	}
	if current < tool.MinSize {
		return shape.Float(tool.MinSize)
	}
	return nil
}
