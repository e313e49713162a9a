package projection

import (
	"fmt"
	"math"
)

// Albers is the Albers equal-area conic projection, scaled to pixels and
// shifted by a false easting/northing.
//
// With standard parallels φ1, φ2 and origin (φ0, λ0):
//
//	n = (sin φ1 + sin φ2) / 2
//	C = cos² φ1 + 2n sin φ1
//	ρ(φ) = R √(C − 2n sin φ) / n
//	θ = n (λ − λ0)
//	x = FE + ρ(φ) sin θ
//	y = FN − (ρ(φ0) − ρ(φ) cos θ)
type Albers struct {
	params  AlbersParams
	n, c    float64
	lambda0 float64
	rho0    float64
}

// NewAlbers creates an Albers projection. ρ(φ0) is computed here, once.
func NewAlbers(p AlbersParams) (*Albers, error) {
	phi1 := radians(p.StdParallel1)
	phi2 := radians(p.StdParallel2)
	n := 0.5 * (math.Sin(phi1) + math.Sin(phi2))
	if n == 0 {
		return nil, fmt.Errorf("%w: standard parallels %g and %g are symmetric about the equator",
			ErrInvalidParams, p.StdParallel1, p.StdParallel2)
	}
	a := &Albers{
		params:  p,
		n:       n,
		c:       math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1),
		lambda0: radians(p.OriginLon),
	}
	a.rho0 = a.rho(radians(p.OriginLat))
	return a, nil
}

func (a *Albers) rho(phi float64) float64 {
	return a.params.R * math.Sqrt(a.c-2*a.n*math.Sin(phi)) / a.n
}

// Project implements Projection.
func (a *Albers) Project(lat, lon float64) (x, y float64) {
	rho := a.rho(radians(lat))
	theta := a.n * (radians(lon) - a.lambda0)
	x = a.params.FalseEasting + rho*math.Sin(theta)
	y = a.params.FalseNorthing - (a.rho0 - rho*math.Cos(theta))
	return x, y
}
