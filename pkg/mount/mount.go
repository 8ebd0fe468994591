// Package mount wraps the site search with element-aware bond lengths.
package mount

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/spatial"
	"github.com/chazu/mountscan/pkg/structure"
)

// Default bond acceptance window, as fractions of the ideal bond length.
const (
	DefaultLowerFactor = 0.6
	DefaultUpperFactor = 1.15
	DefaultElement     = "H"
)

// ErrInvalidWindow is returned for a bond window that is empty or not
// positive.
var ErrInvalidWindow = errors.New("mount: invalid bond window")

// RadiusLookup supplies covalent radii by element symbol.
type RadiusLookup interface {
	CovalentRadius(symbol string) (float64, error)
}

// Checker searches mounting sites for one target element.
type Checker struct {
	element    string
	bondLength float64
	lower      float64
	upper      float64
	radii      RadiusLookup
	logger     *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithElement sets the element to be mounted.
func WithElement(symbol string) Option {
	return func(c *Checker) { c.element = element.Normalize(symbol) }
}

// WithBondLength sets the search radius directly. Zero means derive it
// from the target element.
func WithBondLength(l float64) Option {
	return func(c *Checker) { c.bondLength = l }
}

// WithBondWindow sets the acceptance window used by IsBonded.
func WithBondWindow(lower, upper float64) Option {
	return func(c *Checker) {
		c.lower = lower
		c.upper = upper
	}
}

// WithRadii replaces the built-in covalent radius table.
func WithRadii(r RadiusLookup) Option {
	return func(c *Checker) { c.radii = r }
}

// WithLogger sets the logger passed down to the search.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// New returns a Checker. The target element defaults to hydrogen.
func New(opts ...Option) (*Checker, error) {
	c := &Checker{
		element: DefaultElement,
		lower:   DefaultLowerFactor,
		upper:   DefaultUpperFactor,
		radii:   element.Table{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := c.radii.CovalentRadius(c.element); err != nil {
		return nil, fmt.Errorf("target element: %w", err)
	}
	if c.lower <= 0 || c.upper < c.lower || math.IsInf(c.upper, 0) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidWindow, c.lower, c.upper)
	}
	if c.bondLength < 0 || math.IsNaN(c.bondLength) || math.IsInf(c.bondLength, 0) {
		return nil, fmt.Errorf("bond length %v: %w", c.bondLength, errInvalidBondLength)
	}
	return c, nil
}

var errInvalidBondLength = errors.New("mount: bond length must be positive and finite")

// Element returns the target element symbol.
func (c *Checker) Element() string { return c.element }

// BondLength returns the search radius: the configured bond length, or the
// target element's covalent radius when none was set.
func (c *Checker) BondLength() float64 {
	if c.bondLength > 0 {
		return c.bondLength
	}
	r, _ := c.radii.CovalentRadius(c.element)
	return r
}

// Window returns the bond acceptance window as fractions of the ideal
// bond length.
func (c *Checker) Window() (lower, upper float64) { return c.lower, c.upper }

// IdealBondLength returns the sum of the covalent radii of symbol and the
// target element.
func (c *Checker) IdealBondLength(symbol string) (float64, error) {
	return c.idealBetween(symbol, c.element)
}

func (c *Checker) idealBetween(a, b string) (float64, error) {
	ra, err := c.radii.CovalentRadius(a)
	if err != nil {
		return 0, err
	}
	rb, err := c.radii.CovalentRadius(b)
	if err != nil {
		return 0, err
	}
	return ra + rb, nil
}

// IsBonded reports whether distance lies within [lower*ideal, upper*ideal].
func IsBonded(distance, ideal, lower, upper float64) bool {
	return distance >= lower*ideal && distance <= upper*ideal
}

// CanBond reports whether an atom of the given element accepts the target
// element at the checker's bond length.
func (c *Checker) CanBond(symbol string) (bool, error) {
	ideal, err := c.IdealBondLength(symbol)
	if err != nil {
		return false, err
	}
	return IsBonded(c.BondLength(), ideal, c.lower, c.upper), nil
}

// AvailableAtoms returns the atoms that can bond to the target element at
// the checker's bond length.
func (c *Checker) AvailableAtoms(atoms []structure.Atom) ([]structure.Atom, error) {
	verdict, err := c.verdicts(atoms)
	if err != nil {
		return nil, err
	}
	return lo.Filter(atoms, func(a structure.Atom, _ int) bool { return verdict[a.Symbol] }), nil
}

// AvailableElements returns the distinct symbols among atoms that can bond
// to the target element, in first-seen order.
func (c *Checker) AvailableElements(atoms []structure.Atom) ([]string, error) {
	verdict, err := c.verdicts(atoms)
	if err != nil {
		return nil, err
	}
	syms := lo.Uniq(lo.Map(atoms, func(a structure.Atom, _ int) string { return a.Symbol }))
	return lo.Filter(syms, func(s string, _ int) bool { return verdict[s] }), nil
}

// verdicts evaluates CanBond once per distinct symbol.
func (c *Checker) verdicts(atoms []structure.Atom) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, a := range atoms {
		if _, done := out[a.Symbol]; done {
			continue
		}
		ok, err := c.CanBond(a.Symbol)
		if err != nil {
			return nil, fmt.Errorf("atom %d: %w", a.Index, err)
		}
		out[a.Symbol] = ok
	}
	return out, nil
}

// BondedNeighbours returns, per atom, how many other atoms lie within the
// bond window of their pair's ideal bond length. The nearest-neighbour
// query starts at four neighbours and grows by two while every neighbour
// found is bonded.
func (c *Checker) BondedNeighbours(atoms []structure.Atom) ([]int, error) {
	coords := lo.Map(atoms, func(a structure.Atom, _ int) v3.Vec { return a.Coord })
	ix := spatial.New(coords)
	counts := make([]int, len(atoms))
	for i, a := range atoms {
		k := min(len(atoms), 5)
		for {
			n, err := c.bondedAmong(atoms, i, ix.Nearest(a.Coord, k))
			if err != nil {
				return nil, err
			}
			counts[i] = n
			if n < k-1 || k >= len(atoms) {
				break
			}
			k = min(len(atoms), k+2)
		}
	}
	return counts, nil
}

func (c *Checker) bondedAmong(atoms []structure.Atom, self int, found []spatial.Neighbour) (int, error) {
	n := 0
	for _, nb := range found {
		if nb.ID == self {
			continue
		}
		ideal, err := c.idealBetween(atoms[self].Symbol, atoms[nb.ID].Symbol)
		if err != nil {
			return 0, err
		}
		if IsBonded(nb.Dist, ideal, c.lower, c.upper) {
			n++
		}
	}
	return n, nil
}
