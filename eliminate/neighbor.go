package eliminate

import (
	"log"

	"github.com/lnorton/eliminate/geomengine"
)

// MergePolicy selects which touching neighbor a victim is absorbed into.
// It is a tagged variant, not subtype polymorphism: pickNeighbor
// branches on it with a single switch.
type MergePolicy int

const (
	// LargestArea picks the touching neighbor with the greatest area;
	// ties go to the first neighbor encountered in candidate order. This
	// is the default policy.
	LargestArea MergePolicy = iota
	// SmallestArea picks the touching neighbor with the least area, same
	// tie-break.
	SmallestArea
	// LongestBoundary picks the touching neighbor with the greatest
	// shared-boundary length, same tie-break.
	LongestBoundary
)

func (p MergePolicy) String() string {
	switch p {
	case LargestArea:
		return "LARGEST_AREA"
	case SmallestArea:
		return "SMALLEST_AREA"
	case LongestBoundary:
		return "LONGEST_BOUNDARY"
	default:
		return "UNKNOWN"
	}
}

// ResolveNeighbors runs the neighbor-resolution step for every victim in
// victims, in order: query idx for bounding-box candidates, filter to true
// touching neighbors via each victim's prepared geometry, record a
// NeighborEdge per touching candidate, then pick one under policy and
// append the victim to that neighbor's AssignedVictims.
func ResolveNeighbors(victims []*FeatureNode, result *LoadResult, idx geomengine.Index, policy MergePolicy, logger *log.Logger) {
	for _, v := range victims {
		resolveNeighbor(v, result, idx, policy, logger)
	}
}

func resolveNeighbor(v *FeatureNode, result *LoadResult, idx geomengine.Index, policy MergePolicy, logger *log.Logger) {
	candidates := idx.Query(v.Bounds())
	if len(candidates) == 0 {
		logger.Printf("eliminate: warning: feature %d has no neighbors", v.FID)
		return
	}

	prepared := v.Prepared()
	for _, cand := range candidates {
		c := result.NodeFor(cand)
		if c == nil || c == v {
			continue
		}
		touching, length, err := prepared.Touches(cand)
		if err != nil {
			logger.Printf("eliminate: warning: feature %d: touches test against %d failed: %v", v.FID, c.FID, err)
			continue
		}
		if !touching {
			continue
		}
		v.Edges = append(v.Edges, NeighborEdge{Neighbor: c, Length: length})
	}

	if len(v.Edges) == 0 {
		logger.Printf("eliminate: warning: feature %d has no touching neighbors", v.FID)
		return
	}

	chosen := pickNeighbor(v.Edges, policy)
	v.Chosen = chosen
	chosen.AssignedVictims = append(chosen.AssignedVictims, v)
}

func pickNeighbor(edges []NeighborEdge, policy MergePolicy) *FeatureNode {
	best := edges[0]
	for _, e := range edges[1:] {
		switch policy {
		case SmallestArea:
			if e.Neighbor.Area() < best.Neighbor.Area() {
				best = e
			}
		case LongestBoundary:
			if e.Length > best.Length {
				best = e
			}
		default: // LargestArea
			if e.Neighbor.Area() > best.Neighbor.Area() {
				best = e
			}
		}
	}
	return best.Neighbor
}
