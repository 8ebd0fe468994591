package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Axis unit vectors.
var (
	XAxis = v3.Vec{X: 1}
	YAxis = v3.Vec{Y: 1}
	ZAxis = v3.Vec{Z: 1}
)

// Unit returns v scaled to length 1 and false when v is (close to) the
// zero vector.
func Unit(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if l < Epsilon {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// mustUnit normalizes a vector the caller has already proven non-zero.
func mustUnit(v v3.Vec) v3.Vec {
	return v.MulScalar(1 / v.Length())
}

// IsZero reports whether every component of v is within Epsilon of zero.
func IsZero(v v3.Vec) bool {
	return math.Abs(v.X) < Epsilon && math.Abs(v.Y) < Epsilon && math.Abs(v.Z) < Epsilon
}

// SamePoint reports whether a and b agree on every axis within tol.
func SamePoint(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}

// Perpendicular returns a unit vector orthogonal to the unit vector n.
func Perpendicular(n v3.Vec) v3.Vec {
	// Cross with the axis least aligned with n.
	ref := XAxis
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ay <= ax && ay <= az:
		ref = YAxis
	case az <= ax && az <= ay:
		ref = ZAxis
	}
	return mustUnit(n.Cross(ref))
}

// RoundTo rounds every component of v to the nearest multiple of 1/scale.
// Values already on the grid are returned unchanged.
func RoundTo(v v3.Vec, scale float64) v3.Vec {
	r := func(x float64) float64 {
		return math.Floor(x*scale+0.5) / scale
	}
	return v3.Vec{X: r(v.X), Y: r(v.Y), Z: r(v.Z)}
}

// Less orders points lexicographically by X, then Y, then Z.
func Less(a, b v3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
