package scan

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/geom"
	"github.com/chazu/mountscan/pkg/spatial"
)

// MergePoints collapses near-duplicate candidate points into single sites
// and unions their atoms.
//
// Coordinates are rounded half-up (not floored) to geom.PointRoundScale so
// that copies of a site on either side of a grid line agree. They are then
// sorted, merged run by run with a per-axis tolerance and clustered through
// a spatial index so that near-duplicates split apart by the sort are
// joined too.
// Passes repeat until nothing merges, so the result is a fixed point:
// merging it again returns it unchanged. The output is sorted by
// coordinate and every point lists its atom ids in ascending order.
func MergePoints(points []CoordinationPoint) []CoordinationPoint {
	if len(points) == 0 {
		return nil
	}
	cur := points
	for {
		next := mergePass(cur)
		if len(next) == len(cur) {
			return next
		}
		cur = next
	}
}

func mergePass(points []CoordinationPoint) []CoordinationPoint {
	rounded := lo.Map(points, func(p CoordinationPoint, _ int) CoordinationPoint {
		return CoordinationPoint{coord: geom.RoundTo(p.coord, geom.PointRoundScale), atomIDs: p.atomIDs}
	})
	sort.SliceStable(rounded, func(i, j int) bool {
		return geom.Less(rounded[i].coord, rounded[j].coord)
	})
	return clusterPoints(runLengthMerge(rounded))
}

// runLengthMerge folds each point of a sorted list into the current run
// when it agrees with the run's first point on every axis.
func runLengthMerge(sorted []CoordinationPoint) []CoordinationPoint {
	runs := make([]CoordinationPoint, 0, len(sorted))
	for _, p := range sorted {
		if n := len(runs); n > 0 && geom.SamePoint(runs[n-1].coord, p.coord, geom.PointMergeTolerance) {
			runs[n-1] = runs[n-1].MergeWith(p)
			continue
		}
		runs = append(runs, p)
	}
	return runs
}

// clusterPoints joins every pair of points within geom.PointClusterRadius,
// transitively. Each cluster keeps the coordinate of its first member in
// the sorted input.
func clusterPoints(sorted []CoordinationPoint) []CoordinationPoint {
	ix := spatial.New(lo.Map(sorted, func(p CoordinationPoint, _ int) v3.Vec { return p.coord }))
	sets := newDisjointSet(len(sorted))
	for i, p := range sorted {
		for _, nb := range ix.Within(p.coord, geom.PointClusterRadius) {
			sets.union(i, nb.ID)
		}
	}

	merged := make(map[int]CoordinationPoint, len(sorted))
	var roots []int
	for i, p := range sorted {
		root := sets.find(i)
		if acc, ok := merged[root]; ok {
			merged[root] = acc.MergeWith(p)
			continue
		}
		merged[root] = p
		roots = append(roots, root)
	}

	// roots are in first-member order, which is already coordinate order.
	out := make([]CoordinationPoint, len(roots))
	for i, root := range roots {
		out[i] = merged[root].withSortedIDs()
	}
	return out
}

// disjointSet is a union-find forest over 0..n-1.
type disjointSet struct {
	parent []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent}
}

func (s *disjointSet) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

// union keeps the smaller root so roots stay stable under iteration order.
func (s *disjointSet) union(a, b int) {
	ra, rb := s.find(a), s.find(b)
	switch {
	case ra == rb:
	case ra < rb:
		s.parent[rb] = ra
	default:
		s.parent[ra] = rb
	}
}
