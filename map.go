package dotmap

import (
	"fmt"
	"math"

	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
	"github.com/gogpu/dotmap/projection"
)

// Dot is a queued marker: a pixel position and an area in square pixels
// (before PointSize scaling). Area 0 is the smallest visible marker.
type Dot struct {
	X, Y float64
	Area float64
}

// Map is a background image with dots queued for drawing on it.
//
// Dots are only drawn when the map is rendered, which happens explicitly
// through Render or implicitly before a style change or an image export.
// A Map must not be used from several goroutines at once; use one Map per
// worker instead.
type Map struct {
	name     string
	info     catalog.MapInfo
	known    bool
	catalog  *catalog.Catalog
	geocodes *geocode.Table

	canvas canvas.Canvas
	style  Style
	dots   []Dot

	halfSide HalfSide
	marker   PointMarker

	// proj is resolved on the first geographic lookup and never replaced:
	// the catalog entry it derives from cannot change for this map.
	proj     projection.Projection
	projErr  error
	resolved bool

	stats Stats
}

// New creates a map from the catalog entry with the given name and loads
// its image.
//
// A name missing from the catalog is not an error: the map is created
// without an image, dots can still be queued, and operations that need the
// image return ErrMissingImage.
func New(name string, opts ...Option) (*Map, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.style.Validate(); err != nil {
		return nil, err
	}
	if o.catalog == nil {
		o.catalog, _ = catalog.Default()
	}
	if o.geocodes == nil && !o.noGeocodes {
		o.geocodes, _ = geocode.Default()
	}

	m := &Map{
		name:     name,
		catalog:  o.catalog,
		geocodes: o.geocodes,
		canvas:   o.canvas,
		style:    o.style,
		halfSide: o.halfSide,
		marker:   o.marker,
	}
	if o.catalog != nil {
		m.info, m.known = o.catalog.Map(name)
	}
	if !m.known {
		if m.canvas == nil {
			Logger().Warn("dotmap: map not in catalog", "map", name)
		}
		return m, nil
	}

	if m.canvas == nil {
		path := o.catalog.ImagePath(m.info)
		c, err := o.loader.Load(path)
		if err != nil {
			return nil, fmt.Errorf("dotmap: load map %s: %w", name, err)
		}
		m.canvas = c
	}
	Logger().Info("dotmap: map created", "map", name, "width", m.canvas.Width(), "height", m.canvas.Height())
	return m, nil
}

// MapNames returns the names of all maps in the process-wide catalog, or
// nil if it has not been loaded.
func MapNames() []string {
	c, err := catalog.Default()
	if err != nil {
		return nil
	}
	return c.Names()
}

// Name returns the catalog name the map was created with.
func (m *Map) Name() string {
	return m.name
}

// Info returns the catalog entry and whether the name was found.
func (m *Map) Info() (catalog.MapInfo, bool) {
	return m.info, m.known
}

// HasImage reports whether the map has a canvas to draw on.
func (m *Map) HasImage() bool {
	return m.canvas != nil
}

// Canvas returns the canvas for direct manipulation, or nil. Pending dots
// are not flushed; call Render first to see them.
func (m *Map) Canvas() canvas.Canvas {
	return m.canvas
}

// Width returns the image width in pixels, or 0 without an image.
func (m *Map) Width() int {
	if m.canvas == nil {
		return 0
	}
	return m.canvas.Width()
}

// Height returns the image height in pixels, or 0 without an image.
func (m *Map) Height() int {
	if m.canvas == nil {
		return 0
	}
	return m.canvas.Height()
}

// Dimensions returns the image size, or ErrMissingImage.
func (m *Map) Dimensions() (width, height int, err error) {
	if m.canvas == nil {
		return 0, 0, ErrMissingImage
	}
	return m.canvas.Width(), m.canvas.Height(), nil
}

// Pending returns a copy of the queued, not yet rendered dots in the
// order they were added.
func (m *Map) Pending() []Dot {
	return append([]Dot(nil), m.dots...)
}

// PendingLen returns the number of queued dots.
func (m *Map) PendingLen() int {
	return len(m.dots)
}

// AddDot queues a dot at pixel coordinates. Nothing is drawn until the
// map is rendered.
func (m *Map) AddDot(x, y, area float64) error {
	if area < 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidArea, area)
	}
	m.dots = append(m.dots, Dot{X: x, Y: y, Area: area})
	return nil
}

// AddAtLatLon queues a dot at a geographic position.
func (m *Map) AddAtLatLon(lat, lon, area float64) error {
	x, y, err := m.LookupPixel(lat, lon)
	if err != nil {
		return err
	}
	return m.AddDot(x, y, area)
}

// AddAtZip queues a dot at a postal code. Codes missing from the geocode
// table are skipped without error, since postal data is never complete.
func (m *Map) AddAtZip(code string, area float64) error {
	if m.geocodes == nil {
		m.stats.ZipMisses++
		Logger().Debug("dotmap: no geocode table", "map", m.name, "code", code)
		return nil
	}
	loc, ok := m.geocodes.Lookup(code)
	if !ok {
		m.stats.ZipMisses++
		Logger().Debug("dotmap: postal code not found", "map", m.name, "code", code)
		return nil
	}
	return m.AddAtLatLon(loc.Lat, loc.Lon, area)
}

// LookupPixel projects a geographic position to pixel coordinates using
// the map's projection. The result may lie outside the image.
func (m *Map) LookupPixel(lat, lon float64) (x, y float64, err error) {
	p, err := m.lazyProjection()
	if err != nil {
		return 0, 0, err
	}
	x, y = p.Project(lat, lon)
	return x, y, nil
}

// lazyProjection returns the map's projection, resolving it on first use.
// The outcome, error included, is kept for the lifetime of the map.
func (m *Map) lazyProjection() (projection.Projection, error) {
	if m.resolved {
		return m.proj, m.projErr
	}
	m.proj, m.projErr = m.resolveProjection()
	m.resolved = true
	if m.projErr == nil {
		Logger().Debug("dotmap: projection resolved", "map", m.name, "projection", fmt.Sprintf("%T", m.proj))
	}
	return m.proj, m.projErr
}

func (m *Map) resolveProjection() (projection.Projection, error) {
	if !m.known {
		return nil, ErrMissingImage
	}
	spec, err := m.catalog.Spec(m.name)
	if err != nil {
		return nil, fmt.Errorf("dotmap: %w", err)
	}
	var w, h int
	if spec == nil || spec.Kind == projection.KindEquirectangular {
		if w, h, err = m.Dimensions(); err != nil {
			return nil, err
		}
	}
	p, err := projection.Resolve(spec, m.info.Box, w, h)
	if err != nil {
		return nil, fmt.Errorf("dotmap: map %s: %w", m.name, err)
	}
	return p, nil
}

// Stats counts work done by a map.
type Stats struct {
	// Renders is the number of flushes that drew at least one dot.
	Renders int
	// DotsRendered is the total number of dots drawn.
	DotsRendered int
	// ZipMisses is the number of AddAtZip calls skipped for unknown codes.
	ZipMisses int
}

// Stats returns the map's counters.
func (m *Map) Stats() Stats {
	return m.stats
}
