// Package geosgeom implements geomengine.Engine on top of
// github.com/ctessum/geom, github.com/ctessum/geom/op, and
// github.com/ctessum/geom/index/rtree. It plays the role that a GEOS
// context handle and a GEOSSTRtree play in the original implementation:
// one Engine value is created per run, every Polygonal value it produces
// is only valid while that Engine is open, and the rtree-backed Index
// holds non-owning references into the same geometry values.
package geosgeom

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/op"

	"github.com/lnorton/eliminate/geomengine"
)

// Engine is the geosgeom implementation of geomengine.Engine.
type Engine struct {
	closed bool
}

// New returns a ready-to-use Engine. There is no separate initialization
// step because github.com/ctessum/geom keeps no process-global state; this
// mirrors a GEOS context handle without the C allocation.
func New() *Engine {
	return &Engine{}
}

// Close marks the engine closed. Any Polygonal, Prepared, or Index value
// produced by this Engine must not be used afterward.
func (e *Engine) Close() error {
	e.closed = true
	return nil
}

// NewIndex creates a new rtree-backed spatial index. nodeCapacity governs
// the tree's branching factor; the rtree constructor wants a min/max pair,
// so the minimum is half the requested capacity (at least 1).
func (e *Engine) NewIndex(nodeCapacity int) geomengine.Index {
	if nodeCapacity < 2 {
		nodeCapacity = 2
	}
	return &Index{tree: rtree.NewTree(nodeCapacity/2, nodeCapacity)}
}

// NewPolygon builds a Geometry from ring coordinates: rings[0] is the
// outer ring and any further rings are holes.
func (e *Engine) NewPolygon(rings [][]geomengine.Point) (geomengine.Polygonal, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("geosgeom: NewPolygon: no rings")
	}
	poly := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		if len(ring) < 3 {
			return nil, fmt.Errorf("geosgeom: NewPolygon: ring %d has fewer than 3 points", i)
		}
		path := make([]geom.Point, len(ring))
		for j, p := range ring {
			path[j] = geom.Point{X: p.X, Y: p.Y}
		}
		poly[i] = path
	}
	return NewGeometry(poly), nil
}

// Prepare wraps p with its boundary linestrings precomputed, so repeated
// Touches calls against it don't re-derive them.
func (e *Engine) Prepare(p geomengine.Polygonal) (geomengine.Prepared, error) {
	g, ok := p.(*Geometry)
	if !ok {
		return nil, fmt.Errorf("geosgeom: Prepare: %T is not a geosgeom.Geometry", p)
	}
	return &prepared{g: g, boundary: boundaryOf(g.poly)}, nil
}

// UnaryUnion unions polys by folding them pairwise with op.Construct's
// UNION operation. github.com/ctessum/geom exposes no N-ary unary-union
// primitive (unlike GEOSUnaryUnion_r in the original implementation), so
// this is the closest equivalent: each fold absorbs one more polygon into
// the accumulator, and the final accumulator is the aggregate union.
func (e *Engine) UnaryUnion(polys []geomengine.Polygonal) (geomengine.Polygonal, error) {
	if len(polys) == 0 {
		return nil, fmt.Errorf("geosgeom: UnaryUnion called with no geometries")
	}
	var acc geom.Polygon
	for i, p := range polys {
		g, ok := p.(*Geometry)
		if !ok {
			return nil, fmt.Errorf("geosgeom: UnaryUnion: %T is not a geosgeom.Geometry", p)
		}
		if i == 0 {
			acc = g.poly
			continue
		}
		result, err := op.Construct(acc, g.poly, op.UNION)
		if err != nil {
			return nil, fmt.Errorf("geosgeom: UnaryUnion: %w", err)
		}
		poly, ok := result.(geom.Polygon)
		if !ok {
			return nil, fmt.Errorf("geosgeom: UnaryUnion: unexpected union result type %T", result)
		}
		acc = poly
	}
	return NewGeometry(acc), nil
}

// Geometry is the geosgeom value behind geomengine.Polygonal.
type Geometry struct {
	poly geom.Polygon
	area float64
}

// NewGeometry wraps a polygon in a Geometry, caching its area once up
// front so repeated Area calls never recompute it. A NaN or infinite area
// (a failed computation) is reported as 0.
func NewGeometry(poly geom.Polygon) *Geometry {
	a := poly.Area()
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		a = 0
	}
	return &Geometry{poly: poly, area: a}
}

// Polygon returns the wrapped geometry for callers in this package and its
// tests.
func (g *Geometry) Polygon() geom.Polygon { return g.poly }

// Area implements geomengine.Polygonal.
func (g *Geometry) Area() float64 { return g.area }

// Bounds implements geomengine.Polygonal.
func (g *Geometry) Bounds() geomengine.Bounds {
	b := g.poly.Bounds()
	return geomengine.Bounds{MinX: b.Min.X, MinY: b.Min.Y, MaxX: b.Max.X, MaxY: b.Max.Y}
}

// Rings returns the polygon's ring coordinates, outer ring first, so a
// caller outside this package (the emitter) can serialize the geometry
// back into vectorio.Feature.Rings without importing github.com/ctessum/geom.
func (g *Geometry) Rings() [][]geomengine.Point {
	rings := make([][]geomengine.Point, len(g.poly))
	for i, ring := range g.poly {
		pts := make([]geomengine.Point, len(ring))
		for j, pt := range ring {
			pts[j] = geomengine.Point{X: pt.X, Y: pt.Y}
		}
		rings[i] = pts
	}
	return rings
}

// prepared implements geomengine.Prepared.
type prepared struct {
	g        *Geometry
	boundary geom.MultiLineString
}

// Touches reports whether g and other share a boundary point without
// overlapping interiors, and the length of that shared boundary.
//
// github.com/ctessum/geom has no native touches predicate or mixed-
// dimension intersection, so this is built from two operations it does
// support: a polygon/polygon boolean intersection (to rule out interior
// overlap) and a linestring/polygon boolean intersection of the prepared
// geometry's boundary against other (to measure the shared edge). A
// corner-only touch produces no coincident boundary segment under that
// second operation, so it is detected separately by exact vertex
// coincidence and reported with length 0, since a non-linear (point-only)
// intersection has no length to speak of.
func (p *prepared) Touches(other geomengine.Polygonal) (bool, float64, error) {
	o, ok := other.(*Geometry)
	if !ok {
		return false, 0, fmt.Errorf("geosgeom: Touches: %T is not a geosgeom.Geometry", other)
	}
	if !p.g.Bounds().Overlaps(o.Bounds()) {
		return false, 0, nil
	}

	overlapArea, err := interiorOverlapArea(p.g.poly, o.poly)
	if err != nil {
		return false, 0, err
	}
	if overlapArea > areaTolerance {
		// Interiors intersect: this is an overlap, not a touch.
		return false, 0, nil
	}

	length, err := sharedBoundaryLength(p.boundary, o.poly)
	if err != nil {
		return false, 0, err
	}
	if length > 0 {
		return true, length, nil
	}
	if sharesVertex(p.g.poly, o.poly) {
		return true, 0, nil
	}
	return false, 0, nil
}

const areaTolerance = 1e-9

func interiorOverlapArea(a, b geom.Polygon) (float64, error) {
	result, err := op.Construct(a, b, op.INTERSECTION)
	if err != nil {
		return 0, fmt.Errorf("geosgeom: interior intersection: %w", err)
	}
	if result == nil {
		return 0, nil
	}
	poly, ok := result.(geom.Polygon)
	if !ok {
		return 0, nil
	}
	return poly.Area(), nil
}

func sharedBoundaryLength(boundary geom.MultiLineString, other geom.Polygon) (float64, error) {
	result, err := op.Construct(boundary, other, op.INTERSECTION)
	if err != nil {
		return 0, fmt.Errorf("geosgeom: shared boundary: %w", err)
	}
	switch g := result.(type) {
	case nil:
		return 0, nil
	case geom.MultiLineString:
		return g.Length(), nil
	case geom.LineString:
		return g.Length(), nil
	default:
		// Any other result (points only, or a degenerate result) counts
		// as length 0 with a nil error, so nothing is logged for it.
		return 0, nil
	}
}

func sharesVertex(a, b geom.Polygon) bool {
	for _, ra := range a {
		for _, pa := range ra {
			for _, rb := range b {
				for _, pb := range rb {
					if pa == pb {
						return true
					}
				}
			}
		}
	}
	return false
}

// boundaryOf returns the closed-ring outline of p as a MultiLineString so
// it can be intersected against other polygons with op.Construct.
func boundaryOf(p geom.Polygon) geom.MultiLineString {
	out := make(geom.MultiLineString, len(p))
	for i, ring := range p {
		ls := make(geom.LineString, len(ring))
		copy(ls, ring)
		if len(ls) > 0 && ls[0] != ls[len(ls)-1] {
			ls = append(ls, ls[0])
		}
		out[i] = ls
	}
	return out
}

// Index is the geosgeom implementation of geomengine.Index. Entries are
// non-owning: the Rtree holds an indexEntry (which embeds the geometry's
// ring data by value, satisfying geom.Geom) carrying the original
// *Geometry pointer, so a Query preserves the identity of whatever was
// passed to Insert instead of handing back a freshly-wrapped copy.
type Index struct {
	tree *rtree.Rtree
}

// indexEntry embeds geom.Polygon so it satisfies geom.Geom (Bounds,
// Similar, Transform) for insertion into the rtree, while carrying the
// original Geometry pointer alongside it so a Query can hand back the
// exact value passed to Insert instead of a freshly reconstructed one.
type indexEntry struct {
	geom.Polygon
	g *Geometry
}

// Insert implements geomengine.Index.
func (i *Index) Insert(p geomengine.Polygonal) {
	g, ok := p.(*Geometry)
	if !ok {
		panic(fmt.Sprintf("geosgeom: Insert: %T is not a geosgeom.Geometry", p))
	}
	i.tree.Insert(indexEntry{Polygon: g.poly, g: g})
}

// Query implements geomengine.Index.
func (i *Index) Query(b geomengine.Bounds) []geomengine.Polygonal {
	bounds := &geom.Bounds{
		Min: geom.Point{X: b.MinX, Y: b.MinY},
		Max: geom.Point{X: b.MaxX, Y: b.MaxY},
	}
	hits := i.tree.SearchIntersect(bounds)
	out := make([]geomengine.Polygonal, 0, len(hits))
	for _, h := range hits {
		e, ok := h.(indexEntry)
		if !ok {
			continue
		}
		out = append(out, e.g)
	}
	return out
}
