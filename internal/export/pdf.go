package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/roach88/canco/internal/shape"
)

// WritePDF renders the document's shapes onto a single PDF page sized to
// the drawing. Units are points, one per canvas unit.
func WritePDF(w io.Writer, d Document, opts RenderOptions) error {
	f, err := frameFor(d.Shapes, opts.Padding)
	if err != nil {
		return err
	}

	// Portrait keeps Wd/Ht as given; landscape would swap them.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: f.width, Ht: f.height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	bg := parseColor(opts.Background)
	pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
	pdf.Rect(0, 0, f.width, f.height, "F")
	pdf.SetLineWidth(opts.StrokeWidth)

	for _, s := range d.Shapes {
		c := parseColor(s.Color)
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))

		x, y := f.at(s.X, s.Y)
		switch s.Kind {
		case shape.KindLine:
			pdf.Line(x, y, x+s.Width, y+s.Height)
		case shape.KindRectangle:
			pdf.Rect(math.Min(x, x+s.Width), math.Min(y, y+s.Height), math.Abs(s.Width), math.Abs(s.Height), "D")
		case shape.KindCircle:
			pdf.Ellipse(x+s.Width/2, y+s.Height/2, math.Abs(s.Width/2), math.Abs(s.Height/2), 0, "D")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
