// Package geom provides the 3-D primitives (sphere, circle, plane, line)
// used by the mounting-site search, together with the pairwise
// intersection algorithms between them.
//
// Every geometric degeneracy (no intersection, tangency, coincidence) is
// reported as a result variant rather than an error. Errors are reserved
// for inputs that cannot describe a primitive at all, such as three
// collinear points passed to PlaneFromPoints.
package geom
