package spatial

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// entry is an indexed point. It satisfies kdtree.Comparable.
type entry struct {
	pos v3.Vec
	id  int
}

func coord(v v3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coord(e.pos, d) - coord(c.(entry).pos, d)
}

func (e entry) Dims() int { return 3 }

// Distance returns the squared Euclidean distance.
func (e entry) Distance(c kdtree.Comparable) float64 {
	dv := e.pos.Sub(c.(entry).pos)
	return dv.Dot(dv)
}

// entries satisfies kdtree.Interface.
type entries []entry

func (es entries) Index(i int) kdtree.Comparable { return es[i] }
func (es entries) Len() int                      { return len(es) }
func (es entries) Slice(start, end int) kdtree.Interface {
	return es[start:end]
}

func (es entries) Pivot(d kdtree.Dim) int {
	return plane{Dim: d, entries: es}.Pivot()
}

// plane orders entries along a single dimension for median selection.
type plane struct {
	kdtree.Dim
	entries
}

func (p plane) Less(i, j int) bool {
	return coord(p.entries[i].pos, p.Dim) < coord(p.entries[j].pos, p.Dim)
}

func (p plane) Swap(i, j int) {
	p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.entries = p.entries[start:end]
	return p
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
