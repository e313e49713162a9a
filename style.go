package dotmap

import (
	"fmt"
	"math"

	"github.com/gogpu/dotmap/canvas"
)

// Style is the drawing state applied to dots when they are rendered.
type Style struct {
	// PointSize scales dot sides: side = PointSize * sqrt(area).
	PointSize   float64
	Fill        canvas.RGBA
	FillOpacity float64
	Stroke      canvas.RGBA
	StrokeWidth float64
	AntiAlias   bool
}

// DefaultStyle returns dark red dots at 85% opacity with a one pixel
// dark gray border.
func DefaultStyle() Style {
	return Style{
		PointSize:   1.0,
		Fill:        canvas.DarkRed,
		FillOpacity: 0.85,
		Stroke:      canvas.Gray25,
		StrokeWidth: 1.0,
		AntiAlias:   false,
	}
}

// Validate reports the first out-of-range field.
func (s Style) Validate() error {
	if err := checkNonNegative("point size", s.PointSize); err != nil {
		return err
	}
	if err := checkOpacity(s.FillOpacity); err != nil {
		return err
	}
	return checkNonNegative("stroke width", s.StrokeWidth)
}

func (s Style) paint() canvas.Paint {
	return canvas.Paint{
		Fill:        s.Fill,
		FillOpacity: s.FillOpacity,
		Stroke:      s.Stroke,
		StrokeWidth: s.StrokeWidth,
		AntiAlias:   s.AntiAlias,
	}
}

func checkNonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %g", ErrInvalidStyle, field, v)
	}
	return nil
}

func checkOpacity(v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: fill opacity %g outside [0, 1]", ErrInvalidStyle, v)
	}
	return nil
}

// setStyle assigns v to the style field f. Dots queued so far are rendered
// first so they keep the style they were queued under. Assigning the
// current value does nothing, not even a flush.
func setStyle[T comparable](m *Map, f *T, v T) error {
	if *f == v {
		return nil
	}
	if err := m.Render(); err != nil {
		return err
	}
	*f = v
	return nil
}

// Style returns a copy of the current style.
func (m *Map) Style() Style {
	return m.style
}

// PointSize returns the dot side scale.
func (m *Map) PointSize() float64 {
	return m.style.PointSize
}

// SetPointSize changes the dot side scale for dots rendered from now on.
func (m *Map) SetPointSize(v float64) error {
	if err := checkNonNegative("point size", v); err != nil {
		return err
	}
	return setStyle(m, &m.style.PointSize, v)
}

// Fill returns the dot fill color.
func (m *Map) Fill() canvas.RGBA {
	return m.style.Fill
}

// SetFill changes the fill color.
func (m *Map) SetFill(c canvas.RGBA) error {
	return setStyle(m, &m.style.Fill, c)
}

// FillOpacity returns the fill opacity in [0, 1].
func (m *Map) FillOpacity() float64 {
	return m.style.FillOpacity
}

// SetFillOpacity changes the fill opacity.
func (m *Map) SetFillOpacity(v float64) error {
	if err := checkOpacity(v); err != nil {
		return err
	}
	return setStyle(m, &m.style.FillOpacity, v)
}

// Stroke returns the dot border color.
func (m *Map) Stroke() canvas.RGBA {
	return m.style.Stroke
}

// SetStroke changes the border color.
func (m *Map) SetStroke(c canvas.RGBA) error {
	return setStyle(m, &m.style.Stroke, c)
}

// StrokeWidth returns the dot border width in pixels.
func (m *Map) StrokeWidth() float64 {
	return m.style.StrokeWidth
}

// SetStrokeWidth changes the border width.
func (m *Map) SetStrokeWidth(v float64) error {
	if err := checkNonNegative("stroke width", v); err != nil {
		return err
	}
	return setStyle(m, &m.style.StrokeWidth, v)
}

// AntiAlias reports whether dots are drawn at fractional positions.
func (m *Map) AntiAlias() bool {
	return m.style.AntiAlias
}

// SetAntiAlias switches between whole-pixel and fractional dot placement.
func (m *Map) SetAntiAlias(v bool) error {
	return setStyle(m, &m.style.AntiAlias, v)
}

// SetStyle replaces every style field at once, flushing pending dots
// unless nothing changes.
func (m *Map) SetStyle(s Style) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return setStyle(m, &m.style, s)
}
