package shape

import "math"

// Hit-test geometry constants, in canvas units.
const (
	// SelectionPadding is the gap between a shape's bounds and its handles.
	SelectionPadding = 5.0

	// HandleSize is the drawn radius of a resize handle.
	HandleSize = 4.0

	// handleSlack widens the clickable area of a handle beyond its radius.
	handleSlack = 4.0

	// BorderTolerance is how far from a rectangle edge a click still hits it.
	BorderTolerance = 3.0

	// LineTolerance is how far from a line segment a click still hits it.
	LineTolerance = SelectionPadding

	// circleBand is the relative half-width of the ellipse hit band: a point
	// hits when its normalized squared distance lies in [1-band, 1+band].
	circleBand = 0.15
)

// HandleType names a resize handle.
type HandleType string

const (
	HandleTopLeft      HandleType = "top-left"
	HandleTopMiddle    HandleType = "top-middle"
	HandleTopRight     HandleType = "top-right"
	HandleMiddleLeft   HandleType = "middle-left"
	HandleMiddleRight  HandleType = "middle-right"
	HandleBottomLeft   HandleType = "bottom-left"
	HandleBottomMiddle HandleType = "bottom-middle"
	HandleBottomRight  HandleType = "bottom-right"
	HandleStart        HandleType = "start"
	HandleEnd          HandleType = "end"
)

// Handle is a resize anchor around a selected shape.
type Handle struct {
	At   Point      `json:"at"`
	Type HandleType `json:"type"`
}

// Rect is an axis-aligned box with Min <= Max.
type Rect struct {
	Min, Max Point
}

// Bounds returns the normalized bounding box of s.
func Bounds(s Shape) Rect {
	x0, x1 := s.X, s.X+s.Width
	y0, y1 := s.Y, s.Y+s.Height
	return Rect{
		Min: Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)},
		Max: Point{X: math.Max(x0, x1), Y: math.Max(y0, y1)},
	}
}

// Handles returns the resize handles of s: the two endpoints for a line,
// eight box handles otherwise.
func Handles(s Shape) []Handle {
	if s.Kind == KindLine {
		return []Handle{
			{At: s.Origin(), Type: HandleStart},
			{At: s.End(), Type: HandleEnd},
		}
	}

	p := SelectionPadding
	left, right := s.X-p, s.X+s.Width+p
	top, bottom := s.Y-p, s.Y+s.Height+p
	midX, midY := s.X+s.Width/2, s.Y+s.Height/2

	return []Handle{
		{At: Point{X: left, Y: top}, Type: HandleTopLeft},
		{At: Point{X: midX, Y: top}, Type: HandleTopMiddle},
		{At: Point{X: right, Y: top}, Type: HandleTopRight},
		{At: Point{X: left, Y: midY}, Type: HandleMiddleLeft},
		{At: Point{X: right, Y: midY}, Type: HandleMiddleRight},
		{At: Point{X: left, Y: bottom}, Type: HandleBottomLeft},
		{At: Point{X: midX, Y: bottom}, Type: HandleBottomMiddle},
		{At: Point{X: right, Y: bottom}, Type: HandleBottomRight},
	}
}

// HandleAt returns the first handle of s under p.
func HandleAt(p Point, s Shape) (Handle, bool) {
	for _, h := range Handles(s) {
		if math.Hypot(p.X-h.At.X, p.Y-h.At.Y) <= HandleSize+handleSlack {
			return h, true
		}
	}
	return Handle{}, false
}

// OnOutline reports whether p lies on the drawn stroke of s, within the
// kind's tolerance. Rectangles use a fixed pixel tolerance; circles use a
// relative band around the ellipse.
func OnOutline(p Point, s Shape) bool {
	switch s.Kind {
	case KindRectangle:
		return onRectangleBorder(p, s)
	case KindCircle:
		return onEllipseBand(p, s)
	case KindLine:
		return nearSegment(p, s)
	}
	return false
}

// InInterior reports whether p lies inside s. A line has no interior, so
// its stroke counts.
func InInterior(p Point, s Shape) bool {
	switch s.Kind {
	case KindRectangle:
		b := Bounds(s)
		return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
	case KindCircle:
		rx, ry := math.Abs(s.Width/2), math.Abs(s.Height/2)
		if rx == 0 || ry == 0 {
			return false
		}
		return normalizedDistSq(p, s, rx, ry) <= 1
	case KindLine:
		return nearSegment(p, s)
	}
	return false
}

func onRectangleBorder(p Point, s Shape) bool {
	t := BorderTolerance
	b := Bounds(s)

	withinX := p.X >= b.Min.X-t && p.X <= b.Max.X+t
	withinY := p.Y >= b.Min.Y-t && p.Y <= b.Max.Y+t
	nearTopOrBottom := math.Abs(p.Y-b.Min.Y) <= t || math.Abs(p.Y-b.Max.Y) <= t
	nearLeftOrRight := math.Abs(p.X-b.Min.X) <= t || math.Abs(p.X-b.Max.X) <= t

	return (withinX && nearTopOrBottom) || (withinY && nearLeftOrRight)
}

func onEllipseBand(p Point, s Shape) bool {
	rx := math.Abs(s.Width/2) + SelectionPadding
	ry := math.Abs(s.Height/2) + SelectionPadding
	d := normalizedDistSq(p, s, rx, ry)
	return d >= 1-circleBand && d <= 1+circleBand
}

func normalizedDistSq(p Point, s Shape, rx, ry float64) float64 {
	cx, cy := s.X+s.Width/2, s.Y+s.Height/2
	nx, ny := (p.X-cx)/rx, (p.Y-cy)/ry
	return nx*nx + ny*ny
}

func nearSegment(p Point, s Shape) bool {
	return distToSegment(p, s.Origin(), s.End()) <= LineTolerance
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
