// Package projection maps geographic coordinates to map image pixels.
//
// A map either has no projection configured, in which case its bounding
// box is scaled linearly onto the image ([Equirectangular]), or an Albers
// equal-area conic projection with explicit parameters ([Albers]).
package projection

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrUnknownProjection is returned for projection kinds this package
	// does not implement.
	ErrUnknownProjection = errors.New("projection: unknown projection")

	// ErrInvalidParams is returned when projection parameters are missing
	// or describe a degenerate projection.
	ErrInvalidParams = errors.New("projection: invalid parameters")
)

// Projection converts latitude/longitude in degrees to pixel coordinates.
// Implementations are pure and safe for concurrent use.
type Projection interface {
	Project(lat, lon float64) (x, y float64)
}

// Kind identifies a projection model.
type Kind uint8

const (
	// KindEquirectangular scales the bounding box linearly on each axis.
	KindEquirectangular Kind = iota
	// KindAlbers is the Albers equal-area conic projection.
	KindAlbers
)

// String returns the catalog name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEquirectangular:
		return "EQUIRECTANGULAR"
	case KindAlbers:
		return "ALBER"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// BoundingBox is the geographic extent of a map image. The top-left
// corner of the image is (TopLat, TopLon), the bottom-right corner is
// (BotLat, BotLon).
type BoundingBox struct {
	TopLat, TopLon float64
	BotLat, BotLon float64
}

// AlbersParams configures an Albers projection. Angles are in degrees,
// R and the false offsets are in pixels.
type AlbersParams struct {
	R             float64
	StdParallel1  float64
	StdParallel2  float64
	OriginLat     float64
	OriginLon     float64
	FalseEasting  float64
	FalseNorthing float64
}

// albersParamCount is the number of catalog fields of an ALBER projection.
const albersParamCount = 7

// Spec is a configured projection. Only the field matching Kind is used.
type Spec struct {
	Kind   Kind
	Albers AlbersParams
}

var upper = cases.Upper(language.Und)

// ParseSpec builds a Spec from a catalog projection kind and its numeric
// fields in catalog order.
func ParseSpec(kind string, params []float64) (*Spec, error) {
	switch upper.String(kind) {
	case "ALBER":
		if len(params) < albersParamCount {
			return nil, fmt.Errorf("%w: ALBER needs %d values, got %d",
				ErrInvalidParams, albersParamCount, len(params))
		}
		return &Spec{
			Kind: KindAlbers,
			Albers: AlbersParams{
				R:             params[0],
				StdParallel1:  params[1],
				StdParallel2:  params[2],
				OriginLat:     params[3],
				OriginLon:     params[4],
				FalseEasting:  params[5],
				FalseNorthing: params[6],
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownProjection, kind)
	}
}

// Resolve builds the projection for a map. A nil spec selects the
// bounding-box projection, which needs the image dimensions.
func Resolve(spec *Spec, box BoundingBox, width, height int) (Projection, error) {
	if spec == nil {
		return NewEquirectangular(box, width, height)
	}
	switch spec.Kind {
	case KindEquirectangular:
		return NewEquirectangular(box, width, height)
	case KindAlbers:
		return NewAlbers(spec.Albers)
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownProjection, spec.Kind)
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
