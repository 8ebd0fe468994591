package mount

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

type searchOptions struct {
	check         []int
	restricted    bool
	onlyAvailable bool
}

// SearchOption configures MountSearch.
type SearchOption func(*searchOptions)

// CheckAtoms restricts the scan to the given atom indices.
func CheckAtoms(ids ...int) SearchOption {
	return func(o *searchOptions) {
		o.check = append(o.check, ids...)
		o.restricted = true
	}
}

// OnlyAvailable drops atoms that cannot bond to the target element before
// searching.
func OnlyAvailable() SearchOption {
	return func(o *searchOptions) { o.onlyAvailable = true }
}

// MountSearch runs the site search at the checker's bond length. Atom ids
// in the report are positions in atoms, also when atoms were filtered.
func (c *Checker) MountSearch(atoms []structure.Atom, opts ...SearchOption) (*scan.FinalReport, error) {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}
	for _, id := range o.check {
		if id < 0 || id >= len(atoms) {
			return nil, fmt.Errorf("%w: %d (have %d atoms)", scan.ErrCheckAtomOutOfRange, id, len(atoms))
		}
	}

	// local position -> caller position
	keep := lo.Range(len(atoms))
	if o.onlyAvailable {
		verdict, err := c.verdicts(atoms)
		if err != nil {
			return nil, err
		}
		keep = lo.Filter(keep, func(i int, _ int) bool { return verdict[atoms[i].Symbol] })
		c.logger.Debug("filtered unavailable atoms", "kept", len(keep), "total", len(atoms))
	}

	local := make(map[int]int, len(keep))
	coords := make([]v3.Vec, len(keep))
	for li, ci := range keep {
		local[ci] = li
		coords[li] = atoms[ci].Coord
	}

	scanOpts := []scan.Option{scan.WithLogger(c.logger)}
	if o.restricted {
		ids := make([]int, 0, len(o.check))
		for _, ci := range o.check {
			li, ok := local[ci]
			if !ok {
				c.logger.Debug("check atom cannot bond, skipped", "atom", ci, "symbol", atoms[ci].Symbol)
				continue
			}
			ids = append(ids, li)
		}
		scanOpts = append(scanOpts, scan.WithCheckIDs(ids...))
	}

	report, err := scan.Search(coords, c.BondLength(), scanOpts...)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", c.element, err)
	}
	if o.onlyAvailable {
		report = report.Remap(func(li int) int { return keep[li] })
	}
	c.logger.Info("mount search finished", "element", c.element, "bond_length", c.BondLength(), "sites", report.String())
	return report, nil
}

// SearchModel runs MountSearch over a model, honouring its check atoms and
// check box.
func (c *Checker) SearchModel(m *structure.Model, opts ...SearchOption) (*scan.FinalReport, error) {
	if m.Restricted() {
		opts = append([]SearchOption{CheckAtoms(m.CheckIDs()...)}, opts...)
	}
	return c.MountSearch(m.Atoms, opts...)
}
