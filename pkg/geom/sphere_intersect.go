package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SphereIntersectKind classifies the intersection of two spheres.
type SphereIntersectKind int

const (
	SphereZero   SphereIntersectKind = iota // no common point
	SpherePoint                             // tangent, one common point
	SphereCircle                            // proper intersection along a circle
	SphereWhole                             // coincident spheres
)

func (k SphereIntersectKind) String() string {
	switch k {
	case SphereZero:
		return "zero"
	case SpherePoint:
		return "point"
	case SphereCircle:
		return "circle"
	case SphereWhole:
		return "whole"
	default:
		return "unknown"
	}
}

// SphereIntersection is the result of Sphere.Intersect. Only the field
// matching Kind is meaningful.
type SphereIntersection struct {
	Kind   SphereIntersectKind
	Point  v3.Vec
	Circle Circle
	Sphere Sphere
}

// Intersect computes the intersection of s with o.
//
// For a circle result the normal points from s towards o, so swapping the
// operands yields the same circle with the opposite normal.
func (s Sphere) Intersect(o Sphere) SphereIntersection {
	diff := s.Radius - o.Radius
	diffAbs := math.Abs(diff)

	axis, err := LineFromPoints(s.Center, o.Center)
	if err != nil {
		if diffAbs < Epsilon {
			return SphereIntersection{Kind: SphereWhole, Sphere: s}
		}
		// Concentric with different radii.
		return SphereIntersection{Kind: SphereZero}
	}

	d := Distance(s.Center, o.Center)
	switch {
	case math.Abs(d-(s.Radius+o.Radius)) < Epsilon:
		return SphereIntersection{Kind: SpherePoint, Point: s.PointAtSurface(axis.Dir)}
	case math.Abs(d-diffAbs) < Epsilon:
		if diff > 0 {
			// o sits inside s and touches it on the far side.
			return SphereIntersection{Kind: SpherePoint, Point: s.PointAtSurface(axis.Dir)}
		}
		return SphereIntersection{Kind: SpherePoint, Point: axis.At(d - o.Radius)}
	case diffAbs < d && d < s.Radius+o.Radius:
		return SphereIntersection{Kind: SphereCircle, Circle: sphereCircle(s, o, axis, d)}
	default:
		return SphereIntersection{Kind: SphereZero}
	}
}

// sphereCircle solves the 2-D circle-circle case along the axis through
// both centers and lifts the result back.
func sphereCircle(s, o Sphere, axis Line, d float64) Circle {
	x := (d*d - o.Radius*o.Radius + s.Radius*s.Radius) / (2 * d)
	a2 := s.Radius*s.Radius - x*x
	if a2 < 0 {
		a2 = 0
	}
	return Circle{
		Center: axis.At(x),
		Radius: math.Sqrt(a2),
		Normal: axis.Dir,
	}
}
