package dotmap

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/gogpu/dotmap/canvas"
)

// HalfSide selects how the offset from a dot's center to its square's
// corner is derived from the rounded side when anti-aliasing is off.
type HalfSide uint8

const (
	// HalfFloor uses floor(side/2): a side 3 square spans center-1 to center+2.
	HalfFloor HalfSide = iota
	// HalfRound uses round(side/2), rounding halves away from zero: a side 3
	// square spans center-2 to center+1.
	HalfRound
)

// String returns the configuration name of the mode.
func (h HalfSide) String() string {
	switch h {
	case HalfFloor:
		return "floor"
	case HalfRound:
		return "round"
	default:
		return "unknown"
	}
}

func (h HalfSide) of(side float64) float64 {
	if h == HalfRound {
		return math.Round(0.5 * side)
	}
	return math.Floor(side / 2)
}

// PointMarker selects the primitive for dots of side one pixel or less.
type PointMarker uint8

const (
	// MarkerPoint paints a single pixel with the fill color and opacity.
	MarkerPoint PointMarker = iota
	// MarkerLine strokes a zero-length line with the stroke color and width.
	MarkerLine
)

// String returns the configuration name of the marker.
func (p PointMarker) String() string {
	switch p {
	case MarkerPoint:
		return "point"
	case MarkerLine:
		return "line"
	default:
		return "unknown"
	}
}

// Render draws all queued dots onto the map image and forgets them.
//
// Dots are drawn largest first so that smaller dots stay visible on top of
// larger ones they overlap; dots of equal area keep their queue order.
// All dots are composited in one batch. Render does nothing when there is
// no image or nothing queued.
func (m *Map) Render() error {
	if m.canvas == nil || len(m.dots) == 0 {
		return nil
	}
	start := time.Now()

	// Sort a copy: on failure the queue keeps its insertion order.
	dots := slices.Clone(m.dots)
	slices.SortStableFunc(dots, func(a, b Dot) int {
		return cmp.Compare(b.Area, a.Area)
	})

	batch := canvas.NewBatch(m.style.paint())
	for _, d := range dots {
		m.drawDot(batch, d)
	}
	if err := m.canvas.Composite(batch); err != nil {
		return err
	}

	n := len(m.dots)
	m.dots = nil
	m.stats.Renders++
	m.stats.DotsRendered += n

	Logger().Debug("dotmap: rendered",
		"map", m.name,
		"dots", n,
		"anti_alias", m.style.AntiAlias,
		"elapsed", time.Since(start))
	return nil
}

// drawDot records the primitive for one dot.
func (m *Map) drawDot(b *canvas.Batch, d Dot) {
	x, y := d.X, d.Y
	side := m.style.PointSize * math.Sqrt(d.Area)
	if !m.style.AntiAlias {
		// Round before deriving the corner so the corner and the side
		// agree on whole pixels.
		x, y, side = math.Round(x), math.Round(y), math.Round(side)
	}

	if side <= 1 {
		if m.marker == MarkerLine {
			b.DrawLine(x, y, x, y)
		} else {
			b.DrawPoint(x, y)
		}
		return
	}

	h := side / 2
	if !m.style.AntiAlias {
		h = m.halfSide.of(side)
	}
	x1, y1 := x-h, y-h
	b.DrawFilledRect(x1, y1, x1+side, y1+side)
}
