package dotmap

import (
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
)

// Option configures a Map during creation.
// Use functional options to customize Map behavior.
//
// Example:
//
//	// Maps and postal codes from the process-wide defaults
//	m, err := dotmap.New("USA")
//
//	// Explicit catalog, anti-aliased dots
//	m, err := dotmap.New("USA", dotmap.WithCatalog(cat), dotmap.WithStyle(style))
type Option func(*options)

// options holds optional configuration for Map creation.
type options struct {
	catalog    *catalog.Catalog
	geocodes   *geocode.Table
	noGeocodes bool
	loader   canvas.Loader
	canvas   canvas.Canvas
	style    Style
	halfSide HalfSide
	marker   PointMarker
}

// defaultOptions returns the default map options.
func defaultOptions() options {
	return options{
		loader:   canvas.FileLoader,
		style:    DefaultStyle(),
		halfSide: HalfFloor,
		marker:   MarkerPoint,
	}
}

// WithCatalog sets the map catalog. Without it the process-wide
// catalog.Default is used.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithGeocodes sets the postal code table used by AddAtZip. Without it the
// process-wide geocode.Default is used.
func WithGeocodes(t *geocode.Table) Option {
	return func(o *options) {
		o.geocodes = t
		o.noGeocodes = false
	}
}

// WithoutGeocodes disables postal code lookups: every AddAtZip call is a
// miss, even when the process-wide table is loaded.
func WithoutGeocodes() Option {
	return func(o *options) {
		o.geocodes = nil
		o.noGeocodes = true
	}
}

// WithLoader sets how map images are turned into canvases.
//
// Example:
//
//	// Decode each image once per process
//	loader := canvas.NewCachingLoader(8)
//	m, err := dotmap.New("World", dotmap.WithLoader(loader))
func WithLoader(l canvas.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithCanvas supplies the canvas directly instead of loading the catalog
// image. The map takes exclusive ownership of c.
func WithCanvas(c canvas.Canvas) Option {
	return func(o *options) {
		o.canvas = c
	}
}

// WithStyle sets the initial drawing style.
func WithStyle(s Style) Option {
	return func(o *options) {
		o.style = s
	}
}

// WithHalfSide selects how the half side of a square is rounded when
// anti-aliasing is off.
func WithHalfSide(h HalfSide) Option {
	return func(o *options) {
		o.halfSide = h
	}
}

// WithPointMarker selects how dots of side one pixel or less are drawn.
func WithPointMarker(p PointMarker) Option {
	return func(o *options) {
		o.marker = p
	}
}
