// Package render turns search results into things that can be looked at:
// marker positions for each bonding site, marker atoms appended to a
// structure, and triangle meshes built through a geometry kernel.
package render

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

// Marker is a single representative position for a site.
type Marker struct {
	Kind     scan.SiteKind `json:"kind"`
	Position v3.Vec        `json:"position"`
	AtomIDs  []int         `json:"atom_ids"`
}

// MarkerFor returns the representative position of a site. A sphere site
// is marked at its top (centre + z*r), a circle at its reference point and
// a point site at the point itself.
func MarkerFor(s scan.Site) (Marker, error) {
	m := Marker{Kind: s.Kind, AtomIDs: s.AtomIDs()}
	switch s.Kind {
	case scan.SiteSphere:
		sp := s.Sphere.Sphere
		m.Position = sp.Center.Add(v3.Vec{Z: sp.Radius})
	case scan.SiteCircle:
		m.Position = s.Circle.Circle.PointAt(0)
	case scan.SiteCutPoint, scan.SiteMultiPoint:
		m.Position = s.Point.Coord()
	default:
		return Marker{}, fmt.Errorf("render: unknown site kind %v", s.Kind)
	}
	return m, nil
}

// Markers returns one marker per site of the report, in report order.
func Markers(r *scan.FinalReport) ([]Marker, error) {
	if r == nil {
		return nil, nil
	}
	sites := r.Sites()
	out := make([]Marker, 0, len(sites))
	for i, s := range sites {
		m, err := MarkerFor(s)
		if err != nil {
			return nil, fmt.Errorf("site %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// WithMarkers returns a copy of m with one atom of the given element
// appended per marker. The original model is not modified.
func WithMarkers(m *structure.Model, markers []Marker, symbol string) *structure.Model {
	out := structure.New(m.Name)
	out.Atoms = append(out.Atoms, m.Atoms...)
	out.Check = append(out.Check, m.Check...)
	if m.CheckBox != nil {
		out.SetCheckBox(*m.CheckBox)
	}
	lo.ForEach(markers, func(mk Marker, _ int) {
		out.AddAtom(symbol, mk.Position)
	})
	return out
}
