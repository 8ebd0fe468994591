package mount

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

func atoms(specs ...any) []structure.Atom {
	var out []structure.Atom
	for i := 0; i < len(specs); i += 2 {
		out = append(out, structure.Atom{
			Index:  len(out),
			Symbol: specs[i].(string),
			Coord:  specs[i+1].(v3.Vec),
		})
	}
	return out
}

type fixedRadii map[string]float64

func (f fixedRadii) CovalentRadius(symbol string) (float64, error) {
	r, ok := f[symbol]
	if !ok {
		return 0, errors.New("no radius")
	}
	return r, nil
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "H", c.Element())
	assert.InDelta(t, 0.31, c.BondLength(), 1e-12)
	lower, upper := c.Window()
	assert.Equal(t, DefaultLowerFactor, lower)
	assert.Equal(t, DefaultUpperFactor, upper)

	c, err = New(WithElement("o"), WithBondLength(1.4))
	require.NoError(t, err)
	assert.Equal(t, "O", c.Element())
	assert.Equal(t, 1.4, c.BondLength())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(WithElement("Xx"))
	assert.ErrorIs(t, err, element.ErrUnknownElement)

	_, err = New(WithBondWindow(1.2, 0.5))
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = New(WithBondWindow(0, 1))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = New(WithBondLength(-1))
	assert.Error(t, err)
}

func TestIsBonded(t *testing.T) {
	assert.True(t, IsBonded(1.0, 1.0, 0.6, 1.15))
	assert.True(t, IsBonded(0.6, 1.0, 0.6, 1.15))
	assert.True(t, IsBonded(1.15, 1.0, 0.6, 1.15))
	assert.False(t, IsBonded(0.59, 1.0, 0.6, 1.15))
	assert.False(t, IsBonded(1.16, 1.0, 0.6, 1.15))
}

func TestAvailableAtomsAndElements(t *testing.T) {
	c, err := New(WithElement("H"), WithBondLength(1.1))
	require.NoError(t, err)

	as := atoms(
		"Cs", v3.Vec{},
		"C", v3.Vec{X: 3},
		"O", v3.Vec{X: 6},
		"Cs", v3.Vec{X: 9},
		"C", v3.Vec{X: 12},
	)
	avail, err := c.AvailableAtoms(as)
	require.NoError(t, err)
	idx := make([]int, len(avail))
	for i, a := range avail {
		idx[i] = a.Index
	}
	assert.Equal(t, []int{1, 2, 4}, idx)

	syms, err := c.AvailableElements(as)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "O"}, syms)

	_, err = c.AvailableAtoms(atoms("Zz", v3.Vec{}))
	assert.ErrorIs(t, err, element.ErrUnknownElement)
}

func TestMountSearch_Tangent(t *testing.T) {
	c, err := New(WithBondLength(1.1))
	require.NoError(t, err)

	report, err := c.MountSearch(atoms("C", v3.Vec{}, "C", v3.Vec{X: 2.2}))
	require.NoError(t, err)
	require.Len(t, report.CutPoints, 1)
	assert.Equal(t, []int{0, 1}, report.CutPoints[0].AtomIDs())
	assert.Equal(t, 1.1, report.Radius)
}

func TestMountSearch_OnlyAvailableKeepsCallerIDs(t *testing.T) {
	c, err := New(WithBondLength(1.1))
	require.NoError(t, err)
	as := atoms(
		"Cs", v3.Vec{},
		"C", v3.Vec{X: 10},
		"C", v3.Vec{X: 12.2},
	)

	report, err := c.MountSearch(as)
	require.NoError(t, err)
	require.Len(t, report.Spheres, 1)
	assert.Equal(t, 0, report.Spheres[0].AtomID)

	report, err = c.MountSearch(as, OnlyAvailable())
	require.NoError(t, err)
	assert.Empty(t, report.Spheres)
	require.Len(t, report.CutPoints, 1)
	assert.Equal(t, []int{1, 2}, report.CutPoints[0].AtomIDs())

	// The only check atom is filtered out, so nothing is scanned.
	report, err = c.MountSearch(as, OnlyAvailable(), CheckAtoms(0))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Len())
}

func TestMountSearch_CheckAtoms(t *testing.T) {
	c, err := New(WithBondLength(1))
	require.NoError(t, err)
	as := atoms(
		"C", v3.Vec{},
		"C", v3.Vec{X: 2},
		"C", v3.Vec{X: 4},
		"C", v3.Vec{X: 30},
	)

	report, err := c.MountSearch(as, CheckAtoms(3))
	require.NoError(t, err)
	require.Len(t, report.Spheres, 1)
	assert.Equal(t, 3, report.Spheres[0].AtomID)
	assert.Empty(t, report.CutPoints)

	_, err = c.MountSearch(as, CheckAtoms(4))
	assert.ErrorIs(t, err, scan.ErrCheckAtomOutOfRange)
}

func TestMountSearch_Empty(t *testing.T) {
	c, err := New(WithBondLength(1))
	require.NoError(t, err)
	_, err = c.MountSearch(nil)
	assert.ErrorIs(t, err, scan.ErrNoCoordinates)
}

func TestSearchModel_UsesCheckBox(t *testing.T) {
	c, err := New(WithBondLength(1))
	require.NoError(t, err)

	m := structure.New("chain")
	m.AddAtom("C", v3.Vec{})
	m.AddAtom("C", v3.Vec{X: 2})
	m.AddAtom("C", v3.Vec{X: 4})
	m.SetCheckBox(structure.Box{Min: v3.Vec{X: 3.5, Y: -1, Z: -1}, Max: v3.Vec{X: 5, Y: 1, Z: 1}})

	report, err := c.SearchModel(m)
	require.NoError(t, err)
	require.Len(t, report.CutPoints, 1)
	assert.Equal(t, []int{1, 2}, report.CutPoints[0].AtomIDs())
}

func TestWithRadii(t *testing.T) {
	c, err := New(WithElement("X"), WithRadii(fixedRadii{"X": 0.5, "Y": 1.0}))
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.BondLength())

	ideal, err := c.IdealBondLength("Y")
	require.NoError(t, err)
	assert.Equal(t, 1.5, ideal)

	ok, err := c.CanBond("Y")
	require.NoError(t, err)
	assert.False(t, ok) // 0.5 < 0.6 * 1.5
}

func TestBondedNeighbours(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	t.Run("chain", func(t *testing.T) {
		var as []structure.Atom
		for i := 0; i < 7; i++ {
			as = append(as, structure.Atom{Index: i, Symbol: "C", Coord: v3.Vec{X: 1.5 * float64(i)}})
		}
		counts, err := c.BondedNeighbours(as)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 2, 2, 2, 2, 1}, counts)
	})

	t.Run("octahedron grows the query", func(t *testing.T) {
		as := atoms(
			"C", v3.Vec{},
			"C", v3.Vec{X: 1.5}, "C", v3.Vec{X: -1.5},
			"C", v3.Vec{Y: 1.5}, "C", v3.Vec{Y: -1.5},
			"C", v3.Vec{Z: 1.5}, "C", v3.Vec{Z: -1.5},
		)
		counts, err := c.BondedNeighbours(as)
		require.NoError(t, err)
		assert.Equal(t, []int{6, 1, 1, 1, 1, 1, 1}, counts)
	})
}
