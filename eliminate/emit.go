package eliminate

import (
	"log"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/vectorio"
)

// Emit writes one output feature per survivor in keep, in order. A
// survivor with no assigned victims is written with its own geometry
// unchanged; otherwise its geometry and every transitively assigned
// victim's geometry are unioned in one call to engine.UnaryUnion. A
// per-feature union or write failure is logged and that survivor is
// skipped; it does not abort the run.
func Emit(dst vectorio.Layer, keep []*FeatureNode, engine geomengine.Engine, logger *log.Logger) (int, error) {
	written := 0
	for _, s := range keep {
		g := s.Geometry()
		if len(s.AssignedVictims) > 0 {
			polys := make([]geomengine.Polygonal, 0, len(s.AssignedVictims)+1)
			polys = append(polys, g)
			for _, v := range s.AssignedVictims {
				polys = append(polys, v.Geometry())
			}
			unioned, err := engine.UnaryUnion(polys)
			if err != nil {
				logger.Printf("eliminate: warning: feature %d: union of %d assigned victim(s) failed: %v; skipped", s.FID, len(s.AssignedVictims), err)
				continue
			}
			g = unioned
		}

		rings, err := ringsOf(g)
		if err != nil {
			logger.Printf("eliminate: warning: feature %d: %v; skipped", s.FID, err)
			continue
		}

		feature := vectorio.Feature{FID: s.FID, Values: s.Values, Rings: rings}
		if err := dst.WriteFeature(feature); err != nil {
			logger.Printf("eliminate: warning: feature %d: write failed: %v; skipped", s.FID, err)
			continue
		}
		written++
	}
	return written, nil
}

// ringer is implemented by engine geometries that can report their ring
// coordinates back out to vectorio.Feature.Rings. geomengine.Polygonal
// itself has no such method, since most callers never need to serialize a
// geometry back to rings; only the emitter does.
type ringer interface {
	Rings() [][]geomengine.Point
}

func ringsOf(p geomengine.Polygonal) ([][]geomengine.Point, error) {
	r, ok := p.(ringer)
	if !ok {
		return nil, errNotRinger
	}
	return r.Rings(), nil
}

var errNotRinger = errGeometryNotSerializable{}

type errGeometryNotSerializable struct{}

func (errGeometryNotSerializable) Error() string {
	return "engine geometry does not support ring extraction"
}
