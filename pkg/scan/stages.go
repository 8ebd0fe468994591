package scan

import (
	"log/slog"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/geom"
	"github.com/chazu/mountscan/pkg/spatial"
)

// ----------------------------------------------------------------------------
// Sphere stage
// ----------------------------------------------------------------------------

// SphereStage holds one sphere of the bond radius per atom.
type SphereStage struct {
	radius  float64
	coords  []v3.Vec
	spheres []geom.Sphere
	index   *spatial.Index
	scan    []int
	logger  *slog.Logger
}

// Radius returns the bond radius of the search.
func (s *SphereStage) Radius() float64 { return s.radius }

// Spheres returns the atom spheres, indexed by atom id.
func (s *SphereStage) Spheres() []geom.Sphere {
	return append([]geom.Sphere(nil), s.spheres...)
}

// pair is an unordered atom pair with a < b.
type pair struct{ a, b int }

func newPair(i, j int) pair {
	if i > j {
		i, j = j, i
	}
	return pair{a: i, b: j}
}

// CheckSpheres intersects the sphere of every scanned atom with the spheres
// of its neighbours within twice the bond radius. Each unordered pair is
// intersected once.
func (s *SphereStage) CheckSpheres() *CircleStage {
	checked := make(map[pair]struct{})
	touched := make([]bool, len(s.spheres))
	var (
		points  []CoordinationPoint
		circles []BondingCircle
	)

	reach := 2*s.radius + geom.Epsilon
	for _, i := range s.scan {
		for _, nb := range s.index.Within(s.coords[i], reach) {
			if nb.ID == i {
				continue
			}
			key := newPair(i, nb.ID)
			if _, ok := checked[key]; ok {
				continue
			}
			checked[key] = struct{}{}

			res := s.spheres[key.a].Intersect(s.spheres[key.b])
			switch res.Kind {
			case geom.SphereZero:
				continue
			case geom.SpherePoint:
				points = append(points, NewCoordinationPoint(res.Point, key.a, key.b))
			case geom.SphereCircle:
				circles = append(circles, BondingCircle{Circle: res.Circle, AtomIDs: [2]int{key.a, key.b}})
			case geom.SphereWhole:
				s.logger.Warn("coincident atoms", "a", key.a, "b", key.b, "coord", s.coords[key.a])
			}
			touched[key.a] = true
			touched[key.b] = true
		}
	}

	var spheres []BondingSphere
	for _, i := range s.scan {
		if !touched[i] {
			spheres = append(spheres, BondingSphere{Sphere: s.spheres[i], AtomID: i})
		}
	}

	s.logger.Debug("spheres checked",
		"scanned", len(s.scan), "pairs", len(checked),
		"spheres", len(spheres), "points", len(points), "circles", len(circles))

	return &CircleStage{
		radius:  s.radius,
		coords:  s.coords,
		index:   s.index,
		spheres: spheres,
		points:  points,
		circles: circles,
		logger:  s.logger,
	}
}

// ----------------------------------------------------------------------------
// Circle stage
// ----------------------------------------------------------------------------

// CircleStage holds the sphere check results: untouched spheres, tangent
// points and the circles of intersecting pairs.
type CircleStage struct {
	radius  float64
	coords  []v3.Vec
	index   *spatial.Index
	spheres []BondingSphere
	points  []CoordinationPoint
	circles []BondingCircle
	logger  *slog.Logger
}

// Spheres returns atoms whose sphere touches no neighbour.
func (c *CircleStage) Spheres() []BondingSphere {
	return append([]BondingSphere(nil), c.spheres...)
}

// Points returns the raw tangent points.
func (c *CircleStage) Points() []CoordinationPoint {
	return append([]CoordinationPoint(nil), c.points...)
}

// Circles returns the circles of intersecting sphere pairs.
func (c *CircleStage) Circles() []BondingCircle {
	return append([]BondingCircle(nil), c.circles...)
}

// AnalyzeCircleIntersects intersects every pair of circles that can meet.
// Common points become candidate sites bonding all atoms of both circles.
// Circles meeting no other circle are kept as two-atom sites when no third
// atom's sphere covers part of them.
func (c *CircleStage) AnalyzeCircleIntersects() *PointStage {
	points := append([]CoordinationPoint(nil), c.points...)
	intersected := make([]bool, len(c.circles))

	if len(c.circles) > 0 {
		centers := lo.Map(c.circles, func(bc BondingCircle, _ int) v3.Vec { return bc.Circle.Center })
		maxR := lo.MaxBy(c.circles, func(a, b BondingCircle) bool { return a.Circle.Radius > b.Circle.Radius }).Circle.Radius
		cix := spatial.New(centers)

		for i, ci := range c.circles {
			// Circles further apart than the sum of their radii cannot meet.
			for _, nb := range cix.Within(ci.Circle.Center, ci.Circle.Radius+maxR+geom.Epsilon) {
				j := nb.ID
				if j <= i {
					continue
				}
				cj := c.circles[j]
				res := geom.IntersectCircles(ci.Circle, cj.Circle)
				if res.IsZero() {
					continue
				}
				intersected[i] = true
				intersected[j] = true
				if res.Kind == geom.CircleWhole {
					c.logger.Debug("coincident circles", "a", ci.AtomIDs, "b", cj.AtomIDs)
					continue
				}
				for _, p := range res.Points {
					points = append(points, NewCoordinationPoint(p,
						ci.AtomIDs[0], ci.AtomIDs[1], cj.AtomIDs[0], cj.AtomIDs[1]))
				}
			}
		}
	}

	var pure []BondingCircle
	for i, bc := range c.circles {
		if !intersected[i] {
			pure = append(pure, bc)
		}
	}
	kept := c.analyzePureCircles(pure)

	c.logger.Debug("circles analyzed",
		"circles", len(c.circles), "pure", len(pure), "kept", len(kept), "points", len(points))

	return &PointStage{
		radius:  c.radius,
		index:   c.index,
		spheres: c.spheres,
		circles: kept,
		points:  points,
		logger:  c.logger,
	}
}

// analyzePureCircles drops circles that pass closer than the bond radius to
// some other atom. Such a circle lies partly or wholly inside that atom's
// sphere, so it is not a site at the bond radius.
func (c *CircleStage) analyzePureCircles(circles []BondingCircle) []BondingCircle {
	return lo.Filter(circles, func(bc BondingCircle, _ int) bool {
		reach := bc.Circle.Radius + c.radius + geom.Epsilon
		for _, nb := range c.index.Within(bc.Circle.Center, reach) {
			if nb.ID == bc.AtomIDs[0] || nb.ID == bc.AtomIDs[1] {
				continue
			}
			closest, _ := bc.Circle.PointDistances(c.coords[nb.ID])
			if closest < c.radius-geom.Epsilon {
				return false
			}
		}
		return true
	})
}

// ----------------------------------------------------------------------------
// Point stage
// ----------------------------------------------------------------------------

// PointStage holds the resolved spheres and circles and every raw point
// candidate.
type PointStage struct {
	radius  float64
	index   *spatial.Index
	spheres []BondingSphere
	circles []BondingCircle
	points  []CoordinationPoint
	logger  *slog.Logger
}

// Points returns the raw point candidates before merging.
func (p *PointStage) Points() []CoordinationPoint {
	return append([]CoordinationPoint(nil), p.points...)
}

// Circles returns the circles kept as two-atom sites.
func (p *PointStage) Circles() []BondingCircle {
	return append([]BondingCircle(nil), p.circles...)
}

// AnalyzePoints merges the point candidates and keeps a point only if the
// atoms within bonding distance of it are exactly the atoms it records.
// Points bonding two atoms are cut points, the rest are multi points.
func (p *PointStage) AnalyzePoints() *FinalReport {
	merged := MergePoints(p.points)
	report := &FinalReport{
		Radius:  p.radius,
		Spheres: p.spheres,
		Circles: p.circles,
	}

	rejected := 0
	for _, cp := range merged {
		near := spatial.IDs(p.index.Within(cp.coord, p.radius+geom.SiteAcceptTolerance))
		if !cp.BondsExactly(near) {
			rejected++
			continue
		}
		if cp.CN() == 2 {
			report.CutPoints = append(report.CutPoints, cp)
		} else {
			report.MultiPoints = append(report.MultiPoints, cp)
		}
	}

	p.logger.Debug("points analyzed",
		"raw", len(p.points), "merged", len(merged), "rejected", rejected, "report", report.String())
	return report
}
