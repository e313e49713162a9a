package canvas

// Paint holds the drawing state shared by every operation in a Batch.
type Paint struct {
	Fill        RGBA
	FillOpacity float64
	Stroke      RGBA
	StrokeWidth float64

	// AntiAlias selects exact area coverage. When false every pixel is
	// either fully painted or untouched, decided by its center.
	AntiAlias bool
}

// OpKind identifies a drawing primitive.
type OpKind uint8

const (
	// OpPoint paints the single pixel at (X1, Y1) with the fill paint.
	OpPoint OpKind = iota
	// OpLine strokes the segment (X1, Y1)-(X2, Y2) with round caps.
	OpLine
	// OpRect fills the axis-aligned rectangle (X1, Y1)-(X2, Y2) and strokes
	// its outline.
	OpRect
)

// String returns the primitive name.
func (k OpKind) String() string {
	switch k {
	case OpPoint:
		return "point"
	case OpLine:
		return "line"
	case OpRect:
		return "rect"
	default:
		return "unknown"
	}
}

// Op is one recorded drawing primitive.
type Op struct {
	Kind           OpKind
	X1, Y1, X2, Y2 float64
}

// Batch records drawing operations to be composited onto a Canvas in a
// single pass.
//
// Coordinates address pixel centers: pixel (i, j) covers the square
// [i-0.5, i+0.5) x [j-0.5, j+0.5). A rectangle from (2, 2) to (4, 4)
// therefore fills pixels 2 through 4 in both directions and its stroke
// sits on the outermost of them.
type Batch struct {
	Paint Paint
	ops   []Op
}

// NewBatch creates an empty batch with the given paint.
func NewBatch(p Paint) *Batch {
	return &Batch{Paint: p}
}

// DrawPoint records a single pixel marker.
func (b *Batch) DrawPoint(x, y float64) {
	b.ops = append(b.ops, Op{Kind: OpPoint, X1: x, Y1: y, X2: x, Y2: y})
}

// DrawLine records a stroked segment.
func (b *Batch) DrawLine(x1, y1, x2, y2 float64) {
	b.ops = append(b.ops, Op{Kind: OpLine, X1: x1, Y1: y1, X2: x2, Y2: y2})
}

// DrawFilledRect records a filled and stroked rectangle.
func (b *Batch) DrawFilledRect(x1, y1, x2, y2 float64) {
	b.ops = append(b.ops, Op{Kind: OpRect, X1: x1, Y1: y1, X2: x2, Y2: y2})
}

// Ops returns the recorded operations in drawing order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of recorded operations.
func (b *Batch) Len() int {
	return len(b.ops)
}
