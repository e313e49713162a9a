package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/dotmap/internal/parallel"
)

// Batches covering at least parallelPixels pixels are rasterized in row
// bands on the shared worker pool.
const (
	parallelPixels  = 256 * 256
	parallelMinRows = 32
)

// Pixmap represents a rectangular pixel buffer.
// It is the Canvas implementation used for map images.
type Pixmap struct {
	width   int
	height  int
	data    []uint8 // RGBA format, 4 bytes per pixel, not premultiplied
	formats FormatTable
}

// NewPixmap creates a new transparent pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:   width,
		height:  height,
		data:    make([]uint8, width*height*4),
		formats: DefaultFormats(),
	}
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())
	dst := &image.NRGBA{Pix: pm.data, Stride: pm.width * 4, Rect: image.Rect(0, 0, pm.width, pm.height)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return pm
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Clone returns a deep copy sharing nothing with p.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{width: p.width, height: p.height, formats: p.formats}
	c.data = make([]uint8, len(p.data))
	copy(c.data, p.data)
	return c
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	n := c.Color().(color.NRGBA)
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = n.R
		p.data[i+1] = n.G
		p.data[i+2] = n.B
		p.data[i+3] = n.A
	}
}

// ToImage converts the pixmap to an image.NRGBA.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 4
	return color.NRGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

// Composite rasterizes every operation of the batch into a scratch layer
// and blends that layer source-over onto the pixmap in one pass.
func (p *Pixmap) Composite(b *Batch) error {
	if b == nil || b.Len() == 0 {
		return nil
	}
	clip := window{0, 0, p.width, p.height}

	var area window
	for _, op := range b.ops {
		area = area.union(opBox(op, b.Paint).window(clip))
	}
	if area.empty() {
		return nil
	}

	if (area.x1-area.x0)*(area.y1-area.y0) < parallelPixels {
		p.compositeWindow(b, area)
		return nil
	}
	parallel.Default().ForEachBand(area.y0, area.y1, parallelMinRows, func(band parallel.Band) {
		p.compositeWindow(b, window{area.x0, band.Y0, area.x1, band.Y1})
	})
	return nil
}

// compositeWindow replays the whole batch clipped to win. Windows that do
// not overlap may be composited concurrently.
func (p *Pixmap) compositeWindow(b *Batch, win window) {
	l := newLayer(win)
	for _, op := range b.ops {
		l.rasterize(op, b.Paint, win)
	}
	p.blendLayer(l)
}

// blendLayer composites a premultiplied layer over the pixmap.
// Formula: S + D * (1 - Sa)
func (p *Pixmap) blendLayer(l *layer) {
	for y := 0; y < l.h; y++ {
		for x := 0; x < l.w; x++ {
			li := (y*l.w + x) * 4
			sa := l.pix[li+3]
			if sa <= 0 {
				continue
			}
			pi := ((y+l.y0)*p.width + (x + l.x0)) * 4
			da := float64(p.data[pi+3]) / 255
			inv := 1 - sa
			outA := sa + da*inv
			for ch := range 3 {
				d := float64(p.data[pi+ch]) / 255 * da
				v := (l.pix[li+ch] + d*inv) / outA
				p.data[pi+ch] = uint8(clamp255(v*255 + 0.5))
			}
			p.data[pi+3] = uint8(clamp255(outA*255 + 0.5))
		}
	}
}

// Formats returns the pixmap's capability table.
func (p *Pixmap) Formats() FormatTable {
	return p.formats
}
