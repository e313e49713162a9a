package dotmap

import (
	"errors"

	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/projection"
)

var (
	// ErrMissingImage is returned by operations that need the map image
	// when the map name was not found in the catalog.
	ErrMissingImage = errors.New("dotmap: map has no image")

	// ErrInvalidArea is returned for negative, infinite or NaN dot areas.
	ErrInvalidArea = errors.New("dotmap: invalid dot area")

	// ErrInvalidStyle is returned for out-of-range style values.
	ErrInvalidStyle = errors.New("dotmap: invalid style value")

	// ErrUnknownProjection is returned, on first geographic lookup, for a
	// catalog projection kind that is not implemented.
	ErrUnknownProjection = projection.ErrUnknownProjection

	// ErrUnsupportedFormat matches every *CapabilityError.
	ErrUnsupportedFormat = canvas.ErrUnsupportedFormat
)

// CapabilityError reports an output format the canvas cannot produce.
type CapabilityError = canvas.CapabilityError
