package canvas

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned by ParseColor for names it cannot resolve.
var ErrUnknownColor = errors.New("canvas: unknown color")

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1] and is not premultiplied.
//
// RGBA is comparable, so style code can detect no-op changes with ==.
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R*255 + 0.5)),
		G: uint8(clamp255(c.G*255 + 0.5)),
		B: uint8(clamp255(c.B*255 + 0.5)),
		A: uint8(clamp255(c.A*255 + 0.5)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// String formats the color as #rrggbbaa.
func (c RGBA) String() string {
	n := c.Color().(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without
// a leading '#'.
func Hex(hex string) (RGBA, error) {
	s := strings.TrimPrefix(hex, "#")

	var digits [4]uint64
	digits[3] = 255

	switch len(s) {
	case 3, 4:
		for i := range len(s) {
			v, err := strconv.ParseUint(s[i:i+1], 16, 8)
			if err != nil {
				return RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, hex)
			}
			digits[i] = v * 17
		}
	case 6, 8:
		for i := 0; i < len(s); i += 2 {
			v, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, hex)
			}
			digits[i/2] = v
		}
	default:
		return RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, hex)
	}

	return RGBA{
		R: float64(digits[0]) / 255,
		G: float64(digits[1]) / 255,
		B: float64(digits[2]) / 255,
		A: float64(digits[3]) / 255,
	}, nil
}

// ParseColor resolves a color name. Accepted forms are hex strings
// ("#8b0000"), SVG/X11 names in any case ("DarkRed"), X11 gray levels
// ("gray25", "grey100") and "none"/"transparent".
func ParseColor(name string) (RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return RGBA{}, fmt.Errorf("%w: empty name", ErrUnknownColor)
	}
	if s[0] == '#' {
		return Hex(s)
	}
	if s == "none" || s == "transparent" {
		return Transparent, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return FromColor(c), nil
	}
	if level, ok := grayLevel(s); ok {
		v := math.Round(float64(level)*255/100) / 255
		return RGB(v, v, v), nil
	}
	return RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// grayLevel parses the X11 "grayN"/"greyN" family, N in [0, 100].
func grayLevel(s string) (int, bool) {
	var rest string
	switch {
	case strings.HasPrefix(s, "gray"):
		rest = s[len("gray"):]
	case strings.HasPrefix(s, "grey"):
		rest = s[len("grey"):]
	default:
		return 0, false
	}
	if rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// clamp255 restricts a value to [0, 255] range.
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	DarkRed     = RGB(139.0/255, 0, 0)
	Gray25      = RGB(64.0/255, 64.0/255, 64.0/255)
	Transparent = RGBA{}
)
