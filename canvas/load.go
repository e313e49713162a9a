package canvas

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	// Register decoders for every format with CapRead.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/dotmap/internal/cache"
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("canvas: empty image")

// Decode reads an image in any readable format into a new Pixmap.
func Decode(r io.Reader) (*Pixmap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("canvas: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return FromImage(img), nil
}

// Load reads the image file at path into a new Pixmap.
func Load(path string) (*Pixmap, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("canvas: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	pm, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pm, nil
}

// Loader produces a fresh, exclusively owned Canvas for an image file.
type Loader interface {
	Load(path string) (Canvas, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (Canvas, error)

// Load implements Loader.
func (f LoaderFunc) Load(path string) (Canvas, error) {
	return f(path)
}

// FileLoader decodes the file on every call.
var FileLoader Loader = LoaderFunc(func(path string) (Canvas, error) {
	return Load(path)
})

// CachingLoader decodes each file once and hands out clones, so callers
// still own their canvas exclusively. At most capacity decoded images are
// kept; the least recently used is dropped first. It is safe for
// concurrent use.
type CachingLoader struct {
	images *cache.LRU[string, *Pixmap]
}

// NewCachingLoader creates an empty CachingLoader holding at most capacity
// images, or any number if capacity is 0.
func NewCachingLoader(capacity int) *CachingLoader {
	return &CachingLoader{images: cache.NewLRU[string, *Pixmap](capacity)}
}

// Load implements Loader.
func (l *CachingLoader) Load(path string) (Canvas, error) {
	key := filepath.Clean(path)
	if pm, ok := l.images.Get(key); ok {
		return pm.Clone(), nil
	}

	pm, err := Load(key)
	if err != nil {
		return nil, err
	}
	return l.images.Add(key, pm).Clone(), nil
}

// Len returns the number of cached images.
func (l *CachingLoader) Len() int {
	return l.images.Len()
}

// Stats returns the image cache counters.
func (l *CachingLoader) Stats() cache.Stats {
	return l.images.Stats()
}
