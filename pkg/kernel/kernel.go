// Package kernel defines the solid geometry interface used to turn
// structures and bonding sites into renderable meshes. The sdfx
// subpackage provides the implementation.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Sphere(radius float64) Solid
	Box(x, y, z float64) Solid

	// Boolean operations
	Union(solids ...Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
