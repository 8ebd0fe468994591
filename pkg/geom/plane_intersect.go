package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

// Intersect returns the line shared by pl and o. ok is false when the
// planes are parallel (or identical).
func (pl Plane) Intersect(o Plane) (l Line, ok bool) {
	dir := pl.Normal.Cross(o.Normal)
	if IsZero(dir) {
		return Line{}, false
	}
	origin, ok := commonPoint(pl, o)
	if !ok {
		return Line{}, false
	}
	return Line{Origin: origin, Dir: mustUnit(dir)}, true
}

// pinnedAxes lists the coordinate fixed to zero for each solve attempt,
// with the two free coordinates solved for. z is tried first; x and y
// cover planes whose normals make the z system singular.
var pinnedAxes = [...]struct{ pinned, i, j int }{
	{pinned: 2, i: 0, j: 1},
	{pinned: 0, i: 1, j: 2},
	{pinned: 1, i: 0, j: 2},
}

// commonPoint finds one point on both planes by pinning a coordinate to
// zero and solving the remaining 2x2 linear system.
func commonPoint(p1, p2 Plane) (v3.Vec, bool) {
	n1 := component3(p1.Normal)
	n2 := component3(p2.Normal)
	for _, ax := range pinnedAxes {
		a := mat.NewDense(2, 2, []float64{
			n1[ax.i], n1[ax.j],
			n2[ax.i], n2[ax.j],
		})
		if math.Abs(mat.Det(a)) < Epsilon {
			continue
		}
		b := mat.NewVecDense(2, []float64{p1.D, p2.D})
		var x mat.VecDense
		if err := x.SolveVec(a, b); err != nil {
			continue
		}
		var p [3]float64
		p[ax.i] = x.AtVec(0)
		p[ax.j] = x.AtVec(1)
		return v3.Vec{X: p[0], Y: p[1], Z: p[2]}, true
	}
	return v3.Vec{}, false
}

func component3(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
