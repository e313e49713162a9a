// Package dotmap draws dots of given area onto fixed background map images.
//
// # Overview
//
// A [Map] is created by name from a map catalog (see package catalog). Dots
// are queued by pixel position, by latitude/longitude or by postal code,
// and drawn as filled, bordered squares whose area is proportional to the
// requested area. The image is then exported in any format its canvas
// supports.
//
// # Quick Start
//
//	import "github.com/gogpu/dotmap"
//
//	if _, err := catalog.LoadDefault("maps/_info"); err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := dotmap.New("USA")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = m.AddAtLatLon(41, -74, 100) // West Point, NY
//	_ = m.AddDot(float64(m.Width())/2, float64(m.Height())/2, 25)
//	err = m.WriteFile("png", "usa.png")
//
// # Rendering model
//
// Queued dots are drawn in one batch when the map is rendered: explicitly
// with [Map.Render], before any style change, and before every export.
// A style change therefore affects only dots queued after it. Within a
// batch dots are drawn from largest to smallest area so that small dots
// overlapping large ones remain visible.
//
// Without anti-aliasing, dot centers and sides are rounded to whole pixels
// before the square is placed. With anti-aliasing, squares keep their exact
// fractional geometry and edge pixels are partially covered.
//
// # Projections
//
// Maps without a catalog projection scale their bounding box linearly onto
// the image. Maps with an ALBER projection use the Albers equal-area conic
// projection (see package projection). The projection is built on the first
// geographic lookup and reused for the lifetime of the map.
//
// # Coordinate System
//
// Pixel coordinates address pixel centers with the origin at the top-left
// pixel; x increases right and y increases down.
package dotmap
