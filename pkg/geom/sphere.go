package geom

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sphere is a sphere in 3-D space.
type Sphere struct {
	Center v3.Vec  `json:"center" yaml:"center"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// NewSphere returns a sphere, rejecting negative or non-finite radii.
func NewSphere(center v3.Vec, radius float64) (Sphere, error) {
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return Sphere{Center: center, Radius: radius}, nil
}

// PointAtSurface returns the surface point in the given unit direction
// from the center.
func (s Sphere) PointAtSurface(dir v3.Vec) v3.Vec {
	return s.Center.Add(dir.MulScalar(s.Radius))
}

// Contains reports whether p lies on the sphere surface.
func (s Sphere) Contains(p v3.Vec) bool {
	return math.Abs(Distance(s.Center, p)-s.Radius) < Epsilon
}
