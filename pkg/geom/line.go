package geom

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Line is the set of points Origin + t*Dir. Dir is a unit vector.
type Line struct {
	Origin v3.Vec `json:"origin"`
	Dir    v3.Vec `json:"dir"`
}

// LineFromPoints returns the line through origin heading towards dest.
func LineFromPoints(origin, dest v3.Vec) (Line, error) {
	d, ok := Unit(dest.Sub(origin))
	if !ok {
		return Line{}, ErrDegenerateLine
	}
	return Line{Origin: origin, Dir: d}, nil
}

// At returns the point at parameter t.
func (l Line) At(t float64) v3.Vec {
	return l.Origin.Add(l.Dir.MulScalar(t))
}

// Param returns the parameter of the orthogonal projection of p onto l.
func (l Line) Param(p v3.Vec) float64 {
	return p.Sub(l.Origin).Dot(l.Dir)
}

// Distance returns the perpendicular distance from p to l.
func (l Line) Distance(p v3.Vec) float64 {
	return Distance(p, l.At(l.Param(p)))
}
