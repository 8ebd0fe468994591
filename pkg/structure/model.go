// Package structure models the atom list a mounting search runs over.
package structure

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Atom is one atom of a structure. Index is its position in Model.Atoms.
type Atom struct {
	Index  int    `json:"index" yaml:"index"`
	Symbol string `json:"symbol" yaml:"symbol"`
	Coord  v3.Vec `json:"coord" yaml:"coord"`
}

// Box is an axis-aligned region given by its min and max corners.
type Box struct {
	Min v3.Vec `json:"min" yaml:"min"`
	Max v3.Vec `json:"max" yaml:"max"`
}

// Contains reports whether p lies inside b, bounds included.
func (b Box) Contains(p v3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Inverted reports whether some max coordinate is below its min.
func (b Box) Inverted() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Model is a list of atoms plus an optional restriction of which atoms a
// search should scan from.
type Model struct {
	Name     string `json:"name" yaml:"name"`
	Atoms    []Atom `json:"atoms" yaml:"atoms"`
	Check    []int  `json:"check,omitempty" yaml:"check,omitempty"`
	CheckBox *Box   `json:"check_box,omitempty" yaml:"check_box,omitempty"`
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{Name: name}
}

// AddAtom appends an atom and returns its index.
func (m *Model) AddAtom(symbol string, coord v3.Vec) int {
	idx := len(m.Atoms)
	m.Atoms = append(m.Atoms, Atom{Index: idx, Symbol: symbol, Coord: coord})
	return idx
}

// AddCheck marks atoms as scan origins.
func (m *Model) AddCheck(ids ...int) {
	m.Check = append(m.Check, ids...)
}

// SetCheckBox restricts scanning to atoms inside b, in addition to any
// atoms added with AddCheck.
func (m *Model) SetCheckBox(b Box) {
	m.CheckBox = &b
}

// Coords returns the atom coordinates in index order.
func (m *Model) Coords() []v3.Vec {
	return lo.Map(m.Atoms, func(a Atom, _ int) v3.Vec { return a.Coord })
}

// Symbols returns the distinct element symbols in first-seen order.
func (m *Model) Symbols() []string {
	return lo.Uniq(lo.Map(m.Atoms, func(a Atom, _ int) string { return a.Symbol }))
}

// Restricted reports whether the model limits which atoms are scanned.
func (m *Model) Restricted() bool {
	return len(m.Check) > 0 || m.CheckBox != nil
}

// CheckIDs returns the sorted union of the explicit check atoms and the
// atoms inside the check box. It returns nil when the model is not
// restricted.
func (m *Model) CheckIDs() []int {
	if !m.Restricted() {
		return nil
	}
	ids := append([]int(nil), m.Check...)
	if m.CheckBox != nil {
		for _, a := range m.Atoms {
			if m.CheckBox.Contains(a.Coord) {
				ids = append(ids, a.Index)
			}
		}
	}
	ids = lo.Uniq(ids)
	sort.Ints(ids)
	return ids
}
