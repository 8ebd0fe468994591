package geom

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CircleIntersectKind classifies the intersection of two circles.
type CircleIntersectKind int

const (
	CircleZeroCoplanar    CircleIntersectKind = iota // same plane, no common point
	CircleZeroNonCoplanar                            // different planes, no common point
	CircleSingle                                     // one common point
	CircleDouble                                     // two common points
	CircleWhole                                      // identical circles
)

func (k CircleIntersectKind) String() string {
	switch k {
	case CircleZeroCoplanar:
		return "zero-coplanar"
	case CircleZeroNonCoplanar:
		return "zero-noncoplanar"
	case CircleSingle:
		return "single"
	case CircleDouble:
		return "double"
	case CircleWhole:
		return "whole"
	default:
		return "unknown"
	}
}

// CircleIntersection is the result of IntersectCircles. Points holds one
// point for CircleSingle and two for CircleDouble; Circle is set for
// CircleWhole.
type CircleIntersection struct {
	Kind   CircleIntersectKind
	Points []v3.Vec
	Circle Circle
}

// IsZero reports whether the circles share no point.
func (r CircleIntersection) IsZero() bool {
	return r.Kind == CircleZeroCoplanar || r.Kind == CircleZeroNonCoplanar
}

// Coplanar reports whether a and b lie in the same plane: parallel normals
// and a center offset orthogonal to them.
func Coplanar(a, b Circle) bool {
	if !IsZero(a.Normal.Cross(b.Normal)) {
		return false
	}
	return math.Abs(b.Center.Sub(a.Center).Dot(a.Normal)) < Epsilon
}

// IntersectCircles computes the common points of two circles.
func IntersectCircles(a, b Circle) CircleIntersection {
	if Coplanar(a, b) {
		return coplanarIntersection(a, b)
	}
	return noncoplanarIntersection(a, b)
}

// coplanarIntersection is the 2-D circle-circle problem, mirroring the
// sphere-sphere classification.
func coplanarIntersection(a, b Circle) CircleIntersection {
	between := b.Center.Sub(a.Center)
	d := between.Length()
	sum := a.Radius + b.Radius
	diff := a.Radius - b.Radius
	diffAbs := math.Abs(diff)

	switch {
	case d < Epsilon && diffAbs < Epsilon:
		return CircleIntersection{Kind: CircleWhole, Circle: a}
	case d < Epsilon:
		return CircleIntersection{Kind: CircleZeroCoplanar}
	case math.Abs(d-sum) < Epsilon:
		u := between.MulScalar(1 / d)
		return single(a.Center.Add(u.MulScalar(a.Radius)))
	case math.Abs(d-diffAbs) < Epsilon:
		u := between.MulScalar(1 / d)
		if diff > 0 {
			return single(a.Center.Add(u.MulScalar(a.Radius)))
		}
		return single(b.Center.Sub(u.MulScalar(b.Radius)))
	case diffAbs < d && d < sum:
		x := (d*d - b.Radius*b.Radius + a.Radius*a.Radius) / (2 * d)
		h := math.Sqrt(math.Max(a.Radius*a.Radius-x*x, 0))
		u := between.MulScalar(1 / d)
		base := a.Center.Add(u.MulScalar(x))
		chord := mustUnit(a.Normal.Cross(u))
		return CircleIntersection{
			Kind: CircleDouble,
			Points: []v3.Vec{
				base.Add(chord.MulScalar(h)),
				base.Sub(chord.MulScalar(h)),
			},
		}
	default:
		return CircleIntersection{Kind: CircleZeroCoplanar}
	}
}

// noncoplanarIntersection intersects both circles with the line shared by
// their planes. A point is common only if both circles produce it, so the
// two point sets are matched against each other after ordering by line
// parameter.
func noncoplanarIntersection(a, b Circle) CircleIntersection {
	line, ok := a.Plane().Intersect(b.Plane())
	if !ok {
		// Parallel planes that are not the same plane.
		return CircleIntersection{Kind: CircleZeroNonCoplanar}
	}
	pa := a.IntersectLine(line)
	pb := b.IntersectLine(line)

	var common []v3.Vec
	used := make([]bool, len(pb))
	for _, p := range pa {
		for j, q := range pb {
			if used[j] || !SamePoint(p, q, Epsilon) {
				continue
			}
			used[j] = true
			common = append(common, p)
			break
		}
	}

	switch len(common) {
	case 0:
		return CircleIntersection{Kind: CircleZeroNonCoplanar}
	case 1:
		return single(common[0])
	default:
		return CircleIntersection{Kind: CircleDouble, Points: common}
	}
}

func single(p v3.Vec) CircleIntersection {
	return CircleIntersection{Kind: CircleSingle, Points: []v3.Vec{p}}
}

// IntersectLine returns the points where l meets the circle, ordered by
// their parameter along l. l is assumed to lie in the circle's plane.
func (c Circle) IntersectLine(l Line) []v3.Vec {
	t0 := l.Param(c.Center)
	dist := Distance(c.Center, l.At(t0))
	switch {
	case dist > c.Radius+Epsilon:
		return nil
	case math.Abs(dist-c.Radius) < Epsilon:
		return []v3.Vec{l.At(t0)}
	}
	h := math.Sqrt(c.Radius*c.Radius - dist*dist)
	ts := []float64{t0 + h, t0 - h}
	sort.Float64s(ts)
	return []v3.Vec{l.At(ts[0]), l.At(ts[1])}
}
