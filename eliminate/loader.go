package eliminate

import (
	"fmt"
	"log"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/vectorio"
)

// LoadResult is the output of Load: every materialized node, partitioned
// into keep and victim lists in source iteration order, plus a lookup from
// the engine geometry the index hands back on a Query to the owning node.
type LoadResult struct {
	Nodes   []*FeatureNode
	Keep    []*FeatureNode
	Victims []*FeatureNode

	byGeometry map[geomengine.Polygonal]*FeatureNode
}

// NodeFor maps a geomengine.Polygonal returned by an Index.Query back to
// the FeatureNode that owns it. The spatial index holds non-owning
// references to engine geometry, not to FeatureNodes directly, so this
// lookup is how the neighbor resolver recovers node identity from a query
// result.
func (r *LoadResult) NodeFor(p geomengine.Polygonal) *FeatureNode {
	return r.byGeometry[p]
}

// Load streams layer exactly once in natural order, builds a FeatureNode
// per feature, classifies it as keep or victim against victims, and
// inserts every node's geometry into idx. A feature with no geometry is
// dropped with a warning rather than making a node for it. Any FID
// remaining in victims after iteration (selected but never seen in the
// source) is warned once per FID.
func Load(engine geomengine.Engine, layer vectorio.Layer, victims map[int64]bool, idx geomengine.Index, logger *log.Logger) (*LoadResult, error) {
	result := &LoadResult{byGeometry: make(map[geomengine.Polygonal]*FeatureNode)}

	it := layer.Iterate()
	defer it.Close()

	pending := make(map[int64]bool, len(victims))
	for fid := range victims {
		pending[fid] = true
	}

	for it.Next() {
		f := it.Feature()
		if len(f.Rings) == 0 {
			logger.Printf("eliminate: warning: feature %d has no geometry; dropped", f.FID)
			continue
		}
		g, err := engine.NewPolygon(f.Rings)
		if err != nil {
			logger.Printf("eliminate: warning: feature %d: %v; dropped", f.FID, err)
			continue
		}

		node := NewFeatureNode(f.FID, f.Values, g)
		result.Nodes = append(result.Nodes, node)
		result.byGeometry[g] = node
		idx.Insert(g)

		if victims[f.FID] {
			node.Victim = true
			if err := node.Prepare(engine); err != nil {
				logger.Printf("eliminate: warning: feature %d: could not prepare geometry: %v", f.FID, err)
			}
			result.Victims = append(result.Victims, node)
			delete(pending, f.FID)
		} else {
			result.Keep = append(result.Keep, node)
		}
	}
	if err := it.Err(); err != nil {
		return nil, newSourceError(fmt.Errorf("reading features: %w", err))
	}

	for fid := range pending {
		logger.Printf("eliminate: warning: selected FID %d not present in source", fid)
	}

	return result, nil
}

// PrepareDestination creates dstLayerName in dst with src's spatial
// reference, a single polygon geometry field, and every attribute field
// of src cloned in source order.
func PrepareDestination(src vectorio.Layer, dst vectorio.Dataset, dstLayerName string) (vectorio.Layer, error) {
	out, err := dst.CreateLayer(dstLayerName, src.SRS())
	if err != nil {
		return nil, newDestinationError(fmt.Errorf("%w: %v", ErrDestinationLayerCreateFailed, err))
	}
	for _, fd := range src.Fields() {
		if err := out.CreateField(fd); err != nil {
			return nil, newDestinationError(fmt.Errorf("cloning field %q: %w", fd.Name, err))
		}
	}
	return out, nil
}
