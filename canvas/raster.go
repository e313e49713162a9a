package canvas

import "math"

// lineSamples is the per-axis supersampling factor for anti-aliased lines.
// Rectangles and points get exact area coverage and do not need it.
const lineSamples = 4

// layer accumulates premultiplied color for a window of the canvas.
// All operations of a batch are rasterized into one layer, which is then
// composited onto the pixmap once.
type layer struct {
	x0, y0 int
	w, h   int
	pix    []float64 // premultiplied RGBA, 4 values per pixel
}

func newLayer(r window) *layer {
	w, h := r.x1-r.x0, r.y1-r.y0
	return &layer{x0: r.x0, y0: r.y0, w: w, h: h, pix: make([]float64, w*h*4)}
}

// paint composites color c with the given coverage-weighted opacity over
// the pixel at canvas position (x, y).
func (l *layer) paint(x, y int, c RGBA, alpha float64) {
	a := c.A * alpha
	if a <= 0 {
		return
	}
	if a > 1 {
		a = 1
	}
	i := ((y-l.y0)*l.w + (x - l.x0)) * 4
	inv := 1 - a
	l.pix[i+0] = c.R*a + l.pix[i+0]*inv
	l.pix[i+1] = c.G*a + l.pix[i+1]*inv
	l.pix[i+2] = c.B*a + l.pix[i+2]*inv
	l.pix[i+3] = a + l.pix[i+3]*inv
}

// window is a half-open pixel rectangle [x0, x1) x [y0, y1).
type window struct {
	x0, y0, x1, y1 int
}

func (r window) empty() bool {
	return r.x0 >= r.x1 || r.y0 >= r.y1
}

func (r window) union(o window) window {
	if r.empty() {
		return o
	}
	if o.empty() {
		return r
	}
	return window{min(r.x0, o.x0), min(r.y0, o.y0), max(r.x1, o.x1), max(r.y1, o.y1)}
}

func (r window) intersect(o window) window {
	return window{max(r.x0, o.x0), max(r.y0, o.y0), min(r.x1, o.x1), min(r.y1, o.y1)}
}

// box is a continuous axis-aligned region. Open boxes exclude their edges
// when sampled at pixel centers.
type box struct {
	x1, y1, x2, y2 float64
	open           bool
}

func normBox(x1, y1, x2, y2 float64) box {
	return box{min(x1, x2), min(y1, y2), max(x1, x2), max(y1, y2), false}
}

func (b box) inset(d float64) box {
	return box{b.x1 + d, b.y1 + d, b.x2 - d, b.y2 - d, d > 0}
}

func (b box) empty() bool {
	return b.x1 >= b.x2 || b.y1 >= b.y2
}

// window returns the pixels within clip whose squares can intersect b.
// Bounds are clamped in float space so boxes far outside int range still
// convert correctly.
func (b box) window(clip window) window {
	clamp := func(v float64, lo, hi int) int {
		return int(math.Min(math.Max(v, float64(lo)), float64(hi)))
	}
	return window{
		x0: clamp(math.Floor(b.x1-0.5), clip.x0, clip.x1),
		y0: clamp(math.Floor(b.y1-0.5), clip.y0, clip.y1),
		x1: clamp(math.Ceil(b.x2+0.5)+1, clip.x0, clip.x1),
		y1: clamp(math.Ceil(b.y2+0.5)+1, clip.y0, clip.y1),
	}
}

// coverage returns how much of pixel (x, y) lies inside b.
func (b box) coverage(x, y int, aa bool) float64 {
	if aa {
		return overlap(b.x1, b.x2, x) * overlap(b.y1, b.y2, y)
	}
	if inside(b.x1, b.x2, float64(x), b.open) && inside(b.y1, b.y2, float64(y), b.open) {
		return 1
	}
	return 0
}

// overlap returns the length of [a, b] that falls in pixel i's span.
func overlap(a, b float64, i int) float64 {
	lo := math.Max(a, float64(i)-0.5)
	hi := math.Min(b, float64(i)+0.5)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func inside(a, b, c float64, open bool) bool {
	if open {
		return a < c && c < b
	}
	return a <= c && c <= b
}

// opBox returns the full extent of an operation including its stroke.
func opBox(op Op, p Paint) box {
	switch op.Kind {
	case OpPoint:
		return box{op.X1 - 0.5, op.Y1 - 0.5, op.X1 + 0.5, op.Y1 + 0.5, false}
	case OpLine:
		r := lineRadius(p)
		b := normBox(op.X1, op.Y1, op.X2, op.Y2)
		return b.inset(-r)
	default:
		b := normBox(op.X1, op.Y1, op.X2, op.Y2)
		if p.StrokeWidth > 0 {
			b = b.inset(-p.StrokeWidth / 2)
		}
		return b
	}
}

func lineRadius(p Paint) float64 {
	return math.Max(p.StrokeWidth, 1) / 2
}

// rasterize paints one operation into the layer, clipped to clip.
func (l *layer) rasterize(op Op, p Paint, clip window) {
	win := opBox(op, p).window(clip)
	if win.empty() {
		return
	}
	switch op.Kind {
	case OpPoint:
		l.rasterizePoint(op, p, win)
	case OpLine:
		l.rasterizeLine(op, p, win)
	case OpRect:
		l.rasterizeRect(op, p, win)
	}
}

func (l *layer) rasterizePoint(op Op, p Paint, win window) {
	for y := win.y0; y < win.y1; y++ {
		for x := win.x0; x < win.x1; x++ {
			var cov float64
			if p.AntiAlias {
				cov = overlap(op.X1-0.5, op.X1+0.5, x) * overlap(op.Y1-0.5, op.Y1+0.5, y)
			} else if float64(x) == math.Round(op.X1) && float64(y) == math.Round(op.Y1) {
				cov = 1
			}
			l.paint(x, y, p.Fill, p.FillOpacity*cov)
		}
	}
}

func (l *layer) rasterizeRect(op Op, p Paint, win window) {
	fill := normBox(op.X1, op.Y1, op.X2, op.Y2)
	hw := p.StrokeWidth / 2
	outer := fill.inset(-hw)
	inner := fill.inset(hw)
	for y := win.y0; y < win.y1; y++ {
		for x := win.x0; x < win.x1; x++ {
			if c := fill.coverage(x, y, p.AntiAlias); c > 0 {
				l.paint(x, y, p.Fill, p.FillOpacity*c)
			}
			if hw <= 0 {
				continue
			}
			c := outer.coverage(x, y, p.AntiAlias)
			if !inner.empty() {
				c -= inner.coverage(x, y, p.AntiAlias)
			}
			if c > 0 {
				l.paint(x, y, p.Stroke, c)
			}
		}
	}
}

func (l *layer) rasterizeLine(op Op, p Paint, win window) {
	r := lineRadius(p)
	for y := win.y0; y < win.y1; y++ {
		for x := win.x0; x < win.x1; x++ {
			var cov float64
			if p.AntiAlias {
				hits := 0
				for sy := range lineSamples {
					for sx := range lineSamples {
						px := float64(x) - 0.5 + (float64(sx)+0.5)/lineSamples
						py := float64(y) - 0.5 + (float64(sy)+0.5)/lineSamples
						if segmentDist(px, py, op) <= r {
							hits++
						}
					}
				}
				cov = float64(hits) / (lineSamples * lineSamples)
			} else if segmentDist(float64(x), float64(y), op) <= r {
				cov = 1
			}
			l.paint(x, y, p.Stroke, cov)
		}
	}
}

// segmentDist returns the distance from (px, py) to the op's segment.
func segmentDist(px, py float64, op Op) float64 {
	dx, dy := op.X2-op.X1, op.Y2-op.Y1
	t := 0.0
	if l2 := dx*dx + dy*dy; l2 > 0 {
		t = ((px-op.X1)*dx + (py-op.Y1)*dy) / l2
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(px-(op.X1+t*dx), py-(op.Y1+t*dy))
}
