package eliminate

import (
	"math"

	"github.com/lnorton/eliminate/geomengine"
)

// NullFID is the null-FID sentinel, the Go analog of OGR's OGRNullFID. An
// FID equal to NullFID, or one that failed to parse, is invalid and
// ignored by the Selector.
const NullFID = int64(-1)

// NeighborEdge records one candidate neighbor discovered for a victim: the
// neighbor node and the length of the boundary the two share.
type NeighborEdge struct {
	Neighbor *FeatureNode
	Length   float64
}

// FeatureNode is the in-memory representation of one source feature,
// carried through every pipeline stage. Its geometry and prepared
// geometry, once computed, are immutable for the node's lifetime; Area is
// computed once and cached. It is created by the Loader and lives for the
// duration of one Run, torn down only after the spatial index referencing
// it has been closed.
type FeatureNode struct {
	FID    int64
	Values map[string]interface{}

	geom     geomengine.Polygonal
	prepared geomengine.Prepared
	area     float64
	areaSet  bool

	// Victim is true once the Loader classifies this node; the partition
	// between keep and victim is fixed thereafter.
	Victim bool

	// Edges holds every touching neighbor discovered for a victim node,
	// in the order the spatial index returned them. Nil for keep nodes.
	Edges []NeighborEdge

	// Chosen is the neighbor this victim was assigned to merge into, or
	// nil if it was never assigned (no neighbors or no touching
	// neighbors). A victim stranded in a cycle keeps its Chosen neighbor
	// but is never absorbed by a survivor.
	Chosen *FeatureNode

	// AssignedVictims holds every node directly assigned to merge into
	// this node. Collapse.go walks it transitively to build the full
	// union set for a survivor.
	AssignedVictims []*FeatureNode
}

// NewFeatureNode wraps a materialized geometry for fid/values. Area is
// not computed here; Area computes and caches it on first use.
func NewFeatureNode(fid int64, values map[string]interface{}, geom geomengine.Polygonal) *FeatureNode {
	return &FeatureNode{FID: fid, Values: values, geom: geom}
}

// Geometry returns the node's cached base geometry.
func (n *FeatureNode) Geometry() geomengine.Polygonal { return n.geom }

// Area returns the node's cached area, computing it on first use. A
// negative, NaN, or infinite result from the engine is never cached or
// returned; it is normalized to 0 here as a defense-in-depth backstop on
// top of whatever normalization the engine itself performs.
func (n *FeatureNode) Area() float64 {
	if n.areaSet {
		return n.area
	}
	a := n.geom.Area()
	if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		a = 0
	}
	n.area = a
	n.areaSet = true
	return n.area
}

// Prepare materializes the node's prepared geometry, if it has not been
// already. Only victims ever call this, per the Loader's contract.
func (n *FeatureNode) Prepare(engine geomengine.Engine) error {
	if n.prepared != nil {
		return nil
	}
	p, err := engine.Prepare(n.geom)
	if err != nil {
		return err
	}
	n.prepared = p
	return nil
}

// Prepared returns the node's prepared geometry, or nil if Prepare was
// never called.
func (n *FeatureNode) Prepared() geomengine.Prepared { return n.prepared }

// Bounds returns the node's geometry's bounding rectangle, for insertion
// into and querying of the spatial index.
func (n *FeatureNode) Bounds() geomengine.Bounds { return n.geom.Bounds() }
