package export

import (
	"errors"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/roach88/canco/internal/shape"
)

// ErrEmptyCanvas is returned when rendering a snapshot without shapes.
var ErrEmptyCanvas = errors.New("nothing to export")

// RenderOptions controls PDF and PNG rendering.
type RenderOptions struct {
	// Padding is added around the bounding box of all shapes.
	Padding float64
	// Background is the fill color, as a CSS name or #rgb/#rrggbb.
	Background string
	// StrokeWidth is the outline width in canvas units.
	StrokeWidth float64
}

// DefaultRenderOptions matches the editor's dark canvas.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Padding:     20,
		Background:  "#1e1e1e",
		StrokeWidth: 2,
	}
}

// frame maps canvas coordinates onto a page whose origin is the padded
// top-left corner of the drawing.
type frame struct {
	minX, minY    float64
	width, height float64
}

func (f frame) at(x, y float64) (float64, float64) {
	return x - f.minX, y - f.minY
}

func frameFor(shapes []shape.Shape, padding float64) (frame, error) {
	if len(shapes) == 0 {
		return frame{}, ErrEmptyCanvas
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range shapes {
		b := shape.Bounds(s)
		minX = math.Min(minX, b.Min.X)
		minY = math.Min(minY, b.Min.Y)
		maxX = math.Max(maxX, b.Max.X)
		maxY = math.Max(maxY, b.Max.Y)
	}
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding
	return frame{
		minX:   minX,
		minY:   minY,
		width:  math.Max(1, maxX-minX),
		height: math.Max(1, maxY-minY),
	}, nil
}

// parseColor resolves a CSS color name or hex string. Unknown values fall
// back to white, the editor's default stroke.
func parseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
			}
		}
	}
	return colornames.White
}
