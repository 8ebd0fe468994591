// Package scan searches for mounting sites around a set of atoms.
//
// A search is a fixed sequence of stages, each its own type:
//
//	Ready -> SphereStage -> CircleStage -> PointStage -> FinalReport
//
// Every atom is modelled as a sphere of the bond radius. Spheres that touch
// no neighbour are single-atom sites, pairs of intersecting spheres give
// circles, and intersecting circles give points bonding three or more
// atoms. Tangent spheres give two-atom cut points directly.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/mountscan/pkg/geom"
	"github.com/chazu/mountscan/pkg/spatial"
)

var (
	// ErrNoCoordinates is returned when a search is started without atoms.
	ErrNoCoordinates = errors.New("scan: no coordinates")
	// ErrCheckAtomOutOfRange is returned for a check id outside the
	// coordinate list.
	ErrCheckAtomOutOfRange = errors.New("scan: check atom id out of range")
	// ErrCheckAtomNotFound is returned for a check coordinate that matches
	// no atom.
	ErrCheckAtomNotFound = errors.New("scan: check coordinate not in coordinate list")
)

type options struct {
	checkIDs    []int
	checkCoords []v3.Vec
	restricted  bool
	logger      *slog.Logger
}

// Option configures NewChecker.
type Option func(*options)

// WithCheckIDs restricts the scan to the given atoms. Atoms outside the
// subset still take part as neighbours.
func WithCheckIDs(ids ...int) Option {
	return func(o *options) {
		o.checkIDs = append(o.checkIDs, ids...)
		o.restricted = true
	}
}

// WithCheckCoords restricts the scan to the atoms at the given positions.
// Each position must match an atom within geom.Epsilon.
func WithCheckCoords(coords ...v3.Vec) Option {
	return func(o *options) {
		o.checkCoords = append(o.checkCoords, coords...)
		o.restricted = true
	}
}

// WithLogger sets the logger used for stage summaries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Ready holds the validated input of a search.
type Ready struct {
	coords []v3.Vec
	index  *spatial.Index
	scan   []int
	logger *slog.Logger
}

// NewChecker validates coords and the optional check subset.
func NewChecker(coords []v3.Vec, opts ...Option) (*Ready, error) {
	if len(coords) == 0 {
		return nil, ErrNoCoordinates
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	r := &Ready{
		coords: append([]v3.Vec(nil), coords...),
		logger: o.logger,
	}
	r.index = spatial.New(r.coords)

	if !o.restricted {
		r.scan = lo.Range(len(coords))
		return r, nil
	}
	scan := make([]int, 0, len(o.checkIDs)+len(o.checkCoords))
	for _, id := range o.checkIDs {
		if id < 0 || id >= len(coords) {
			return nil, fmt.Errorf("%w: %d (have %d atoms)", ErrCheckAtomOutOfRange, id, len(coords))
		}
		scan = append(scan, id)
	}
	for _, c := range o.checkCoords {
		hits := r.index.Nearest(c, 1)
		if len(hits) == 0 || hits[0].Dist > geom.Epsilon {
			return nil, fmt.Errorf("%w: %v", ErrCheckAtomNotFound, c)
		}
		scan = append(scan, hits[0].ID)
	}
	r.scan = lo.Uniq(scan)
	return r, nil
}

// StartWithRadius builds one sphere of the bond radius per atom.
func (r *Ready) StartWithRadius(radius float64) (*SphereStage, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: %v", geom.ErrInvalidRadius, radius)
	}
	spheres := make([]geom.Sphere, len(r.coords))
	for i, c := range r.coords {
		spheres[i] = geom.Sphere{Center: c, Radius: radius}
	}
	return &SphereStage{
		radius:  radius,
		coords:  r.coords,
		spheres: spheres,
		index:   r.index,
		scan:    r.scan,
		logger:  r.logger,
	}, nil
}

// Search runs every stage over coords at the given bond radius.
func Search(coords []v3.Vec, radius float64, opts ...Option) (*FinalReport, error) {
	ready, err := NewChecker(coords, opts...)
	if err != nil {
		return nil, err
	}
	spheres, err := ready.StartWithRadius(radius)
	if err != nil {
		return nil, err
	}
	return spheres.CheckSpheres().AnalyzeCircleIntersects().AnalyzePoints(), nil
}
