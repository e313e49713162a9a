package dotmap

import (
	"github.com/gogpu/dotmap/canvas"
)

// Formats returns the canvas capability table, or nil without an image.
func (m *Map) Formats() canvas.FormatTable {
	if m.canvas == nil {
		return nil
	}
	return m.canvas.Formats()
}

// Convert renders queued dots and returns the image encoded in the named
// format, such as "png" or "JPG". The format must support blob export;
// otherwise a *CapabilityError is returned and nothing is rendered.
func (m *Map) Convert(format string) ([]byte, error) {
	if m.canvas == nil {
		return nil, ErrMissingImage
	}
	if _, err := m.canvas.Formats().Require(format, canvas.CapBlob); err != nil {
		return nil, err
	}
	if err := m.Render(); err != nil {
		return nil, err
	}
	return m.canvas.Encode(format)
}

// WriteFile renders queued dots and writes the image to path in the named
// format. No file suffix is added. The format must support file writing;
// otherwise a *CapabilityError is returned and no file is created.
func (m *Map) WriteFile(format, path string) error {
	if m.canvas == nil {
		return ErrMissingImage
	}
	if _, err := m.canvas.Formats().Require(format, canvas.CapWrite); err != nil {
		return err
	}
	if err := m.Render(); err != nil {
		return err
	}
	return m.canvas.WriteFile(format, path)
}
