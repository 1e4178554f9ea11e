// Package geomengine declares the geometry/topology engine contract that
// the eliminate core depends on: bounding-box math, a prepared-geometry
// touching predicate with shared-boundary length, a bulk spatial index, and
// unary union. It is the Go analog of the GEOS context handle and STRtree
// that the original C++ implementation links against directly.
//
// The core package never imports a concrete engine; it is handed one
// through eliminate.Context. geomengine/geosgeom is the one implementation
// shipped with this module.
package geomengine

import "math"

// Point is a single X/Y coordinate, independent of any engine's native
// point representation. vectorio.Feature carries geometry as rings of
// Point values so that package can stay free of any geometry-library
// import.
type Point struct {
	X, Y float64
}

// Bounds is an axis-aligned minimum bounding rectangle.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Overlaps reports whether b and o share any area, including their edges.
func (b Bounds) Overlaps(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Empty reports whether b contains no points.
func (b Bounds) Empty() bool {
	return b.MaxX < b.MinX || b.MaxY < b.MinY
}

// NewEmptyBounds returns a bounds value extended by nothing.
func NewEmptyBounds() Bounds {
	return Bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

// Polygonal is the minimal contract the core needs from a cached feature
// geometry, regardless of which engine produced it.
type Polygonal interface {
	Bounds() Bounds
	Area() float64
}

// Prepared is an accelerator for repeated predicate tests against one
// fixed geometry. The core materializes a Prepared only for victims,
// since keep features never need a touching-neighbor test against them.
type Prepared interface {
	// Touches reports whether the prepared geometry and other share at
	// least one boundary point and no interior point. When touching is
	// true, sharedLength is the length of the shared boundary (0 for a
	// point-only touch or a failed length computation).
	Touches(other Polygonal) (touching bool, sharedLength float64, err error)
}

// Index is a bulk-loadable spatial index over Polygonal values. It holds
// non-owning references to whatever was inserted; it must not be used
// after the Engine that created it is closed.
type Index interface {
	Insert(p Polygonal)
	// Query returns every indexed value whose bounds overlap b, in no
	// defined order. The result may include spurious (non-touching)
	// candidates, and querying with an inserted value's own bounds
	// returns that value too; callers filter out such self-matches.
	Query(b Bounds) []Polygonal
}

// Engine owns the topology context for one run. Exactly one Engine exists
// per invocation of eliminate.Run and it is used from a single goroutine.
type Engine interface {
	// NewIndex creates an empty spatial index with the given bulk-load
	// node capacity.
	NewIndex(nodeCapacity int) Index

	// NewPolygon builds a Polygonal from ring coordinates: rings[0] is the
	// outer ring and any further rings are holes, matching
	// vectorio.Feature.Rings. It is how the loader turns a decoded feature
	// into engine-native geometry.
	NewPolygon(rings [][]Point) (Polygonal, error)

	// Prepare builds an accelerator for repeated touching tests against p.
	Prepare(p Polygonal) (Prepared, error)

	// UnaryUnion computes the aggregate union of polys in one operation.
	// It is always called with at least one element.
	UnaryUnion(polys []Polygonal) (Polygonal, error)

	// Close releases the topology context. It must be called after every
	// Index and Prepared value derived from this Engine has gone out of
	// use; geomengine.Index entries are non-owning references into the
	// same underlying representation.
	Close() error
}
