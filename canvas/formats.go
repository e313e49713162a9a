package canvas

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"slices"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capability is a bit set of operations a format supports.
type Capability uint8

const (
	// CapBlob means the format can be encoded into an in-memory blob.
	CapBlob Capability = 1 << iota
	// CapWrite means the format can be written to a file.
	CapWrite
	// CapRead means images in the format can be loaded.
	CapRead
)

// String returns the operation name used in error messages.
func (c Capability) String() string {
	switch c {
	case CapBlob:
		return "blob export"
	case CapWrite:
		return "file write"
	case CapRead:
		return "read"
	default:
		return "unknown"
	}
}

// JPEGQuality is the quality used by the JPEG encoders.
const JPEGQuality = 90

// EncodeFunc writes img to w in a specific format.
type EncodeFunc func(w io.Writer, img image.Image) error

// FormatInfo describes one entry of a capability table.
type FormatInfo struct {
	Name string
	MIME string
	Caps Capability

	encode EncodeFunc
}

// Can reports whether the format supports capability c.
func (f FormatInfo) Can(c Capability) bool {
	return f.Caps&c != 0 && (c == CapRead || f.encode != nil)
}

// FormatTable maps upper-case format names to their capabilities.
type FormatTable map[string]FormatInfo

var upper = cases.Upper(language.Und)

// NormalizeFormat returns the table key for a user-supplied format name.
func NormalizeFormat(name string) string {
	return upper.String(name)
}

// Lookup finds a format by name, ignoring case.
func (t FormatTable) Lookup(name string) (FormatInfo, bool) {
	f, ok := t[NormalizeFormat(name)]
	return f, ok
}

// Names returns the sorted format names that support capability c.
func (t FormatTable) Names(c Capability) []string {
	var names []string
	for name, f := range t {
		if f.Can(c) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Require returns the format if it supports c, or a *CapabilityError.
func (t FormatTable) Require(name string, c Capability) (FormatInfo, error) {
	f, ok := t.Lookup(name)
	if !ok {
		return FormatInfo{}, &CapabilityError{Format: name, Op: c, Unknown: true}
	}
	if !f.Can(c) {
		return FormatInfo{}, &CapabilityError{Format: name, Op: c}
	}
	return f, nil
}

// DefaultFormats returns the capability table of a Pixmap.
func DefaultFormats() FormatTable {
	all := CapBlob | CapWrite | CapRead
	jpg := func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	}
	gifEnc := func(w io.Writer, img image.Image) error {
		return gif.Encode(w, img, nil)
	}
	return FormatTable{
		"PNG":  {Name: "PNG", MIME: "image/png", Caps: all, encode: png.Encode},
		"JPEG": {Name: "JPEG", MIME: "image/jpeg", Caps: all, encode: jpg},
		"JPG":  {Name: "JPG", MIME: "image/jpeg", Caps: all, encode: jpg},
		"GIF":  {Name: "GIF", MIME: "image/gif", Caps: all, encode: gifEnc},
		"BMP":  {Name: "BMP", MIME: "image/bmp", Caps: all, encode: bmp.Encode},
		"TIFF": {Name: "TIFF", MIME: "image/tiff", Caps: all, encode: encodeTIFF},
		"TIF":  {Name: "TIF", MIME: "image/tiff", Caps: all, encode: encodeTIFF},
		// Headerless pixels are only useful in memory.
		"RGBA": {Name: "RGBA", MIME: "application/octet-stream", Caps: CapBlob, encode: encodeRaw},
		"WEBP": {Name: "WEBP", MIME: "image/webp", Caps: CapRead},
	}
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// encodeRaw writes non-premultiplied RGBA bytes in row-major order.
func encodeRaw(w io.Writer, img image.Image) error {
	var pix []byte
	switch m := img.(type) {
	case *Pixmap:
		pix = m.data
	case *image.NRGBA:
		pix = m.Pix
	default:
		pix = FromImage(img).data
	}
	_, err := w.Write(pix)
	return err
}
