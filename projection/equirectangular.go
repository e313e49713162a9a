package projection

import "fmt"

// Equirectangular maps a bounding box onto an image with independent
// linear scaling per axis. Points outside the box map outside the image;
// nothing is clipped.
type Equirectangular struct {
	box      BoundingBox
	lonScale float64
	latScale float64
}

// NewEquirectangular creates the projection of box onto a width x height
// image.
func NewEquirectangular(box BoundingBox, width, height int) (*Equirectangular, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidParams, width, height)
	}
	if box.BotLon == box.TopLon || box.TopLat == box.BotLat {
		return nil, fmt.Errorf("%w: empty bounding box %+v", ErrInvalidParams, box)
	}
	return &Equirectangular{
		box:      box,
		lonScale: float64(width) / (box.BotLon - box.TopLon),
		latScale: float64(height) / (box.TopLat - box.BotLat),
	}, nil
}

// Project implements Projection.
func (e *Equirectangular) Project(lat, lon float64) (x, y float64) {
	return (lon - e.box.TopLon) * e.lonScale, (e.box.TopLat - lat) * e.latScale
}
