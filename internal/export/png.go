package export

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/roach88/canco/internal/shape"
)

// WritePNG rasterizes the document's shapes, one pixel per canvas unit.
func WritePNG(w io.Writer, d Document, opts RenderOptions) error {
	f, err := frameFor(d.Shapes, opts.Padding)
	if err != nil {
		return err
	}

	dc := gg.NewContext(int(math.Ceil(f.width)), int(math.Ceil(f.height)))
	dc.SetColor(parseColor(opts.Background))
	dc.Clear()
	dc.SetLineWidth(opts.StrokeWidth)

	for _, s := range d.Shapes {
		dc.SetColor(parseColor(s.Color))
		x, y := f.at(s.X, s.Y)
		switch s.Kind {
		case shape.KindLine:
			dc.DrawLine(x, y, x+s.Width, y+s.Height)
		case shape.KindRectangle:
			dc.DrawRectangle(math.Min(x, x+s.Width), math.Min(y, y+s.Height), math.Abs(s.Width), math.Abs(s.Height))
		case shape.KindCircle:
			dc.DrawEllipse(x+s.Width/2, y+s.Height/2, math.Abs(s.Width/2), math.Abs(s.Height/2))
		}
		dc.Stroke()
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
