package scan

import (
	"encoding/json"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/geom"
)

// BondingSphere is a single-atom site: the whole sphere of the bond radius
// around one atom, produced when no neighbour sphere touches it.
type BondingSphere struct {
	Sphere geom.Sphere `json:"sphere" yaml:"sphere"`
	AtomID int         `json:"atom_id" yaml:"atom_id"`
}

// BondingCircle is a two-atom site: the circle where the spheres of two
// atoms intersect. AtomIDs is ordered ascending.
type BondingCircle struct {
	Circle  geom.Circle `json:"circle" yaml:"circle"`
	AtomIDs [2]int      `json:"atom_ids" yaml:"atom_ids"`
}

// CoordinationPoint is a point site together with the atoms it bonds to.
// The coordination number is always the number of distinct atom ids.
type CoordinationPoint struct {
	coord   v3.Vec
	atomIDs []int
}

// NewCoordinationPoint returns a point bonding to ids. Duplicate ids are
// dropped, keeping first occurrences in order.
func NewCoordinationPoint(coord v3.Vec, ids ...int) CoordinationPoint {
	return CoordinationPoint{coord: coord, atomIDs: lo.Uniq(ids)}
}

// Coord returns the position of the point.
func (p CoordinationPoint) Coord() v3.Vec { return p.coord }

// AtomIDs returns a copy of the connecting atom ids.
func (p CoordinationPoint) AtomIDs() []int {
	return append([]int(nil), p.atomIDs...)
}

// CN returns the coordination number.
func (p CoordinationPoint) CN() int { return len(p.atomIDs) }

// MergeWith returns p with o's atoms added. p's coordinate is kept.
func (p CoordinationPoint) MergeWith(o CoordinationPoint) CoordinationPoint {
	ids := make([]int, 0, len(p.atomIDs)+len(o.atomIDs))
	ids = append(ids, p.atomIDs...)
	ids = append(ids, o.atomIDs...)
	return NewCoordinationPoint(p.coord, ids...)
}

// BondsExactly reports whether the point's atoms are exactly ids, ignoring
// order and duplicates in ids.
func (p CoordinationPoint) BondsExactly(ids []int) bool {
	set := lo.Uniq(ids)
	if len(set) != len(p.atomIDs) {
		return false
	}
	have := lo.SliceToMap(p.atomIDs, func(id int) (int, struct{}) { return id, struct{}{} })
	return lo.EveryBy(set, func(id int) bool {
		_, ok := have[id]
		return ok
	})
}

// withSortedIDs returns p with its atom ids in ascending order.
func (p CoordinationPoint) withSortedIDs() CoordinationPoint {
	ids := p.AtomIDs()
	sort.Ints(ids)
	return CoordinationPoint{coord: p.coord, atomIDs: ids}
}

type coordinationPointJSON struct {
	Coord   v3.Vec `json:"coord" yaml:"coord"`
	AtomIDs []int  `json:"atom_ids" yaml:"atom_ids,flow"`
	CN      int    `json:"cn" yaml:"cn"`
}

func (p CoordinationPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinationPointJSON{Coord: p.coord, AtomIDs: p.AtomIDs(), CN: p.CN()})
}

func (p *CoordinationPoint) UnmarshalJSON(data []byte) error {
	var raw coordinationPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = NewCoordinationPoint(raw.Coord, raw.AtomIDs...)
	return nil
}

// MarshalYAML writes the same fields as MarshalJSON.
func (p CoordinationPoint) MarshalYAML() (interface{}, error) {
	return coordinationPointJSON{Coord: p.coord, AtomIDs: p.AtomIDs(), CN: p.CN()}, nil
}
