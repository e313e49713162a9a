// Package canvas provides the raster surface that dots are composited onto.
//
// A [Canvas] accepts whole [Batch]es of drawing operations and encodes its
// image into any format listed in its capability table. [Pixmap] is the
// in-memory implementation; [Loader]s produce Pixmaps from image files.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnsupportedFormat is matched by every *CapabilityError.
var ErrUnsupportedFormat = errors.New("canvas: unsupported format")

// Canvas is the drawing surface consumed by dot rendering.
type Canvas interface {
	Width() int
	Height() int

	// Composite draws all operations of b in order as one write.
	Composite(b *Batch) error

	// Encode returns the image encoded in the named format.
	Encode(format string) ([]byte, error)

	// WriteFile writes the image to path in the named format.
	WriteFile(format, path string) error

	// Formats returns the capability table consulted by Encode and WriteFile.
	Formats() FormatTable
}

// CapabilityError reports a format that is unknown or lacks the requested
// capability.
type CapabilityError struct {
	Format  string
	Op      Capability
	Unknown bool
}

func (e *CapabilityError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("canvas: unknown format %q", e.Format)
	}
	return fmt.Sprintf("canvas: format %q does not support %s", e.Format, e.Op)
}

// Unwrap lets errors.Is match ErrUnsupportedFormat.
func (e *CapabilityError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Encode implements Canvas.
func (p *Pixmap) Encode(format string) ([]byte, error) {
	f, err := p.formats.Require(format, CapBlob)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.encode(&buf, p); err != nil {
		return nil, fmt.Errorf("canvas: encode %s: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

// WriteFile implements Canvas. The image is fully encoded before the file
// is created, so a failed encode leaves nothing on disk.
func (p *Pixmap) WriteFile(format, path string) error {
	f, err := p.formats.Require(format, CapWrite)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.encode(&buf, p); err != nil {
		return fmt.Errorf("canvas: encode %s: %w", f.Name, err)
	}
	if err := os.WriteFile(filepath.Clean(path), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("canvas: write %s: %w", path, err)
	}
	return nil
}

// Verify at compile time that Pixmap implements Canvas.
var _ Canvas = (*Pixmap)(nil)
