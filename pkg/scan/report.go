package scan

import (
	"fmt"
	"sort"
)

// FinalReport is the classified outcome of a search.
type FinalReport struct {
	Radius      float64             `json:"radius" yaml:"radius"`
	Spheres     []BondingSphere     `json:"spheres" yaml:"spheres"`
	Circles     []BondingCircle     `json:"circles" yaml:"circles"`
	CutPoints   []CoordinationPoint `json:"cut_points" yaml:"cut_points"`
	MultiPoints []CoordinationPoint `json:"multi_points" yaml:"multi_points"`
}

// SiteKind discriminates the variants of Site.
type SiteKind int

const (
	SiteSphere SiteKind = iota
	SiteCircle
	SiteCutPoint
	SiteMultiPoint
)

func (k SiteKind) String() string {
	switch k {
	case SiteSphere:
		return "sphere"
	case SiteCircle:
		return "circle"
	case SiteCutPoint:
		return "cut-point"
	case SiteMultiPoint:
		return "multi-point"
	default:
		return fmt.Sprintf("SiteKind(%d)", int(k))
	}
}

// MarshalText writes the kind by name.
func (k SiteKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Site is one entry of a report. Only the field matching Kind is set:
// Sphere for SiteSphere, Circle for SiteCircle, Point otherwise.
type Site struct {
	Kind   SiteKind
	Sphere BondingSphere
	Circle BondingCircle
	Point  CoordinationPoint
}

// AtomIDs returns the atoms the site bonds to.
func (s Site) AtomIDs() []int {
	switch s.Kind {
	case SiteSphere:
		return []int{s.Sphere.AtomID}
	case SiteCircle:
		return s.Circle.AtomIDs[:]
	default:
		return s.Point.AtomIDs()
	}
}

// CN returns the number of atoms the site bonds to.
func (s Site) CN() int {
	return len(s.AtomIDs())
}

// Sites flattens the report into spheres, circles, cut points and multi
// points, in that order.
func (r *FinalReport) Sites() []Site {
	out := make([]Site, 0, r.Len())
	for _, s := range r.Spheres {
		out = append(out, Site{Kind: SiteSphere, Sphere: s})
	}
	for _, c := range r.Circles {
		out = append(out, Site{Kind: SiteCircle, Circle: c})
	}
	for _, p := range r.CutPoints {
		out = append(out, Site{Kind: SiteCutPoint, Point: p})
	}
	for _, p := range r.MultiPoints {
		out = append(out, Site{Kind: SiteMultiPoint, Point: p})
	}
	return out
}

// Len returns the total number of sites.
func (r *FinalReport) Len() int {
	return len(r.Spheres) + len(r.Circles) + len(r.CutPoints) + len(r.MultiPoints)
}

// Remap returns a copy of the report with every atom id passed through fn.
// It is used when the search ran over a filtered atom list and ids must be
// translated back to the caller's numbering.
func (r *FinalReport) Remap(fn func(int) int) *FinalReport {
	out := &FinalReport{
		Radius:      r.Radius,
		Spheres:     make([]BondingSphere, len(r.Spheres)),
		Circles:     make([]BondingCircle, len(r.Circles)),
		CutPoints:   remapPoints(r.CutPoints, fn),
		MultiPoints: remapPoints(r.MultiPoints, fn),
	}
	for i, s := range r.Spheres {
		out.Spheres[i] = BondingSphere{Sphere: s.Sphere, AtomID: fn(s.AtomID)}
	}
	for i, c := range r.Circles {
		ids := [2]int{fn(c.AtomIDs[0]), fn(c.AtomIDs[1])}
		if ids[0] > ids[1] {
			ids[0], ids[1] = ids[1], ids[0]
		}
		out.Circles[i] = BondingCircle{Circle: c.Circle, AtomIDs: ids}
	}
	return out
}

func remapPoints(ps []CoordinationPoint, fn func(int) int) []CoordinationPoint {
	out := make([]CoordinationPoint, len(ps))
	for i, p := range ps {
		ids := p.AtomIDs()
		for j := range ids {
			ids[j] = fn(ids[j])
		}
		sort.Ints(ids)
		out[i] = NewCoordinationPoint(p.coord, ids...)
	}
	return out
}

// String summarises the report by site counts.
func (r *FinalReport) String() string {
	return fmt.Sprintf("spheres=%d circles=%d cut=%d multi=%d",
		len(r.Spheres), len(r.Circles), len(r.CutPoints), len(r.MultiPoints))
}
