// Package spatial provides a nearest-neighbour index over 3-D points.
package spatial

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Neighbour is a query hit: the id of an indexed point and its Euclidean
// distance from the query.
type Neighbour struct {
	ID   int
	Dist float64
}

// Index is an immutable k-d tree over a list of points. Point ids are their
// positions in the list the index was built from.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// New builds an index over points. The slice is not retained.
func New(points []v3.Vec) *Index {
	es := make(entries, len(points))
	for i, p := range points {
		es[i] = entry{pos: p, id: i}
	}
	ix := &Index{n: len(points)}
	if len(es) > 0 {
		ix.tree = kdtree.New(es, false)
	}
	return ix
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.n }

// Nearest returns up to k points closest to q, nearest first. Ties are
// broken by id.
func (ix *Index) Nearest(q v3.Vec, k int) []Neighbour {
	if ix.tree == nil || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keep, entry{pos: q, id: -1})
	return collect(keep.Heap)
}

// Within returns every point whose distance from q is at most r, nearest
// first. Ties are broken by id.
func (ix *Index) Within(q v3.Vec, r float64) []Neighbour {
	if ix.tree == nil || r < 0 {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	ix.tree.NearestSet(keep, entry{pos: q, id: -1})
	return collect(keep.Heap)
}

// IDs returns the ids of ns in order.
func IDs(ns []Neighbour) []int {
	ids := make([]int, len(ns))
	for i, n := range ns {
		ids[i] = n.ID
	}
	return ids
}

func collect(h kdtree.Heap) []Neighbour {
	out := make([]Neighbour, 0, len(h))
	for _, c := range h {
		// Keepers seed their heap with a sentinel that carries no point.
		if c.Comparable == nil {
			continue
		}
		out = append(out, Neighbour{ID: c.Comparable.(entry).id, Dist: math.Sqrt(c.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist {
			return out[i].Dist < out[j].Dist
		}
		return out[i].ID < out[j].ID
	})
	return out
}
