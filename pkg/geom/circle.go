package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Circle is a circle embedded in 3-D space. Normal is the unit normal of
// the plane the circle lies in.
type Circle struct {
	Center v3.Vec  `json:"center" yaml:"center"`
	Radius float64 `json:"radius" yaml:"radius"`
	Normal v3.Vec  `json:"normal" yaml:"normal"`
}

// Plane returns the supporting plane of the circle.
func (c Circle) Plane() Plane {
	return Plane{Normal: c.Normal, D: c.Normal.Dot(c.Center)}
}

// Contains reports whether p lies on the circle.
func (c Circle) Contains(p v3.Vec) bool {
	return c.Plane().Contains(p) && math.Abs(Distance(c.Center, p)-c.Radius) < Epsilon
}

// PointAt returns the point of the circle at angle theta, measured from an
// arbitrary but fixed reference direction in the circle's plane.
func (c Circle) PointAt(theta float64) v3.Vec {
	u := Perpendicular(c.Normal)
	w := c.Normal.Cross(u)
	dir := u.MulScalar(math.Cos(theta)).Add(w.MulScalar(math.Sin(theta)))
	return c.Center.Add(dir.MulScalar(c.Radius))
}

// PointDistances returns the smallest and largest distance from p to any
// point of the circle.
func (c Circle) PointDistances(p v3.Vec) (closest, farthest float64) {
	cp := p.Sub(c.Center)
	h := cp.Dot(c.Normal)
	// In-plane offset of p from the center.
	rho := cp.Sub(c.Normal.MulScalar(h)).Length()
	closest = math.Hypot(h, rho-c.Radius)
	farthest = math.Hypot(h, rho+c.Radius)
	return closest, farthest
}
