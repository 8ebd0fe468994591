package render

import (
	"fmt"
	"log/slog"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/kernel"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

// Default sizes, in the model's length unit.
const (
	DefaultAtomRadius = 0.3
	DefaultBeadRadius = 0.12
	DefaultRingBeads  = 24
)

// Mesh labels.
const (
	LabelAtoms    = "atoms"
	LabelCheckBox = "check-box"
)

// checkBoxWall is the shell thickness used to draw the check region.
const checkBoxWall = 0.05

// Renderer builds meshes for a structure and its bonding sites.
type Renderer struct {
	k          kernel.Kernel
	atomRadius float64
	beadRadius float64
	ringBeads  int
	logger     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAtomRadius sets the radius of the sphere drawn for each atom.
func WithAtomRadius(r float64) Option {
	return func(rd *Renderer) { rd.atomRadius = r }
}

// WithBeadRadius sets the radius of the beads drawn for sites.
func WithBeadRadius(r float64) Option {
	return func(rd *Renderer) { rd.beadRadius = r }
}

// WithRingBeads sets how many beads trace a circle site.
func WithRingBeads(n int) Option {
	return func(rd *Renderer) { rd.ringBeads = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rd *Renderer) { rd.logger = l }
}

// New returns a Renderer drawing through k.
func New(k kernel.Kernel, opts ...Option) (*Renderer, error) {
	rd := &Renderer{
		k:          k,
		atomRadius: DefaultAtomRadius,
		beadRadius: DefaultBeadRadius,
		ringBeads:  DefaultRingBeads,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(rd)
	}
	if rd.k == nil {
		return nil, fmt.Errorf("render: nil kernel")
	}
	for name, r := range map[string]float64{"atom radius": rd.atomRadius, "bead radius": rd.beadRadius} {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("render: %s must be positive, got %v", name, r)
		}
	}
	if rd.ringBeads < 3 {
		return nil, fmt.Errorf("render: ring beads must be at least 3, got %d", rd.ringBeads)
	}
	return rd, nil
}

// Render returns one mesh for the atoms, one for the check box when the
// model has one, and one per site kind present in the report. Empty
// groups produce no mesh.
func (rd *Renderer) Render(m *structure.Model, r *scan.FinalReport) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh

	add := func(label string, solids []kernel.Solid) error {
		if len(solids) == 0 {
			return nil
		}
		mesh, err := rd.k.ToMesh(rd.k.Union(solids...))
		if err != nil {
			return fmt.Errorf("render: ToMesh failed for %s: %w", label, err)
		}
		mesh.Label = label
		meshes = append(meshes, mesh)
		return nil
	}

	if m != nil {
		atoms := lo.Map(m.Atoms, func(a structure.Atom, _ int) kernel.Solid {
			return rd.bead(a.Coord, rd.atomRadius)
		})
		if err := add(LabelAtoms, atoms); err != nil {
			return nil, err
		}
		if m.CheckBox != nil && !m.CheckBox.Inverted() {
			if err := add(LabelCheckBox, []kernel.Solid{rd.boxShell(*m.CheckBox)}); err != nil {
				return nil, err
			}
		}
	}

	if r != nil {
		groups := make(map[scan.SiteKind][]kernel.Solid)
		for i, s := range r.Sites() {
			solids, err := rd.siteSolids(s)
			if err != nil {
				return nil, fmt.Errorf("site %d: %w", i, err)
			}
			groups[s.Kind] = append(groups[s.Kind], solids...)
		}
		for _, kind := range []scan.SiteKind{scan.SiteSphere, scan.SiteCircle, scan.SiteCutPoint, scan.SiteMultiPoint} {
			if err := add(kind.String(), groups[kind]); err != nil {
				return nil, err
			}
		}
	}

	rd.logger.Debug("rendered meshes",
		"meshes", len(meshes),
		"triangles", lo.SumBy(meshes, func(m *kernel.Mesh) int { return m.TriangleCount() }))
	return meshes, nil
}

// siteSolids returns the beads drawn for one site: a single bead at the
// marker for spheres and points, a ring of beads for circles.
func (rd *Renderer) siteSolids(s scan.Site) ([]kernel.Solid, error) {
	if s.Kind == scan.SiteCircle {
		c := s.Circle.Circle
		step := 2 * math.Pi / float64(rd.ringBeads)
		return lo.Times(rd.ringBeads, func(i int) kernel.Solid {
			return rd.bead(c.PointAt(float64(i)*step), rd.beadRadius)
		}), nil
	}
	mk, err := MarkerFor(s)
	if err != nil {
		return nil, err
	}
	return []kernel.Solid{rd.bead(mk.Position, rd.beadRadius)}, nil
}

func (rd *Renderer) bead(at v3.Vec, r float64) kernel.Solid {
	return rd.k.Translate(rd.k.Sphere(r), at.X, at.Y, at.Z)
}

// boxShell draws the check region as a hollow box.
func (rd *Renderer) boxShell(b structure.Box) kernel.Solid {
	size := b.Max.Sub(b.Min)
	outer := rd.k.Box(size.X+2*checkBoxWall, size.Y+2*checkBoxWall, size.Z+2*checkBoxWall)
	outer = rd.k.Translate(outer, b.Min.X-checkBoxWall, b.Min.Y-checkBoxWall, b.Min.Z-checkBoxWall)
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return outer
	}
	inner := rd.k.Translate(rd.k.Box(size.X, size.Y, size.Z), b.Min.X, b.Min.Y, b.Min.Z)
	return rd.k.Difference(outer, inner)
}
