package geom

// Tolerances come in two tiers. Epsilon is the algebraic coincidence
// threshold used by every intersection test. The point tolerances are
// coarser and absorb the noise accumulated when the same site is derived
// independently from different atom pairs or triples.
const (
	// Epsilon is the absolute tolerance for geometric coincidence tests.
	Epsilon = 1e-6

	// PointRoundScale rounds candidate coordinates to the nearest multiple
	// of 1e-5 before they are sorted and merged. Rounding is half-up rather
	// than floor so two copies of a site straddling a grid line land on the
	// same value.
	PointRoundScale = 1e5

	// PointMergeTolerance is the per-axis distance under which two
	// adjacent sorted candidates collapse into one run.
	PointMergeTolerance = 1e-4

	// PointClusterRadius is the radius of the index re-query that joins
	// near-duplicates the sort left apart.
	PointClusterRadius = 1e-4

	// SiteAcceptTolerance is the slack added to the bond radius when a
	// merged point is re-checked against every atom of the structure. It
	// must exceed the shift rounding can introduce (half a grid step per
	// axis, under 1e-5 in length) and stay well below PointClusterRadius.
	SiteAcceptTolerance = 5e-5
)
