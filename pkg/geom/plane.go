package geom

import (
	"errors"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	// ErrCollinearPoints is returned when three points do not span a plane.
	ErrCollinearPoints = errors.New("geom: cannot construct plane from collinear points")
	// ErrDegenerateLine is returned when a line is built from coincident points.
	ErrDegenerateLine = errors.New("geom: cannot construct line from coincident points")
	// ErrInvalidRadius is returned for negative or non-finite radii.
	ErrInvalidRadius = errors.New("geom: invalid radius")
)

// Plane is the set of points p with Normal·p == D. Normal is a unit vector.
type Plane struct {
	Normal v3.Vec  `json:"normal"`
	D      float64 `json:"d"`
}

// PlaneFromPointNormal returns the plane through point with the given
// normal. The normal is normalized; a zero normal yields ok == false.
func PlaneFromPointNormal(point, normal v3.Vec) (Plane, bool) {
	n, ok := Unit(normal)
	if !ok {
		return Plane{}, false
	}
	return Plane{Normal: n, D: n.Dot(point)}, true
}

// PlaneFromPoints returns the plane through a, b and c.
func PlaneFromPoints(a, b, c v3.Vec) (Plane, error) {
	n := b.Sub(a).Cross(c.Sub(a))
	if IsZero(n) {
		return Plane{}, ErrCollinearPoints
	}
	n = mustUnit(n)
	return Plane{Normal: n, D: n.Dot(a)}, nil
}

// SignedDistance returns the signed distance from p to the plane, positive
// on the side the normal points to.
func (pl Plane) SignedDistance(p v3.Vec) float64 {
	return pl.Normal.Dot(p) - pl.D
}

// Contains reports whether p lies on the plane.
func (pl Plane) Contains(p v3.Vec) bool {
	return math.Abs(pl.SignedDistance(p)) < Epsilon
}
