// Package eliminate implements the core of the geospatial polygon
// elimination pipeline: victim selection, spatial indexing and
// touching-neighbor discovery, per-victim neighbor ranking, merge-chain
// resolution, and geometric union/emission. It depends only on the
// vectorio and geomengine interfaces, never on a concrete driver or
// engine, so it can run against a real shapefile (vectorio/shpdriver,
// geomengine/geosgeom) or an in-memory test fake (vectorio/memdriver)
// unchanged.
package eliminate

import "fmt"

// Run performs one full elimination: selects victims, loads the source
// layer, resolves neighbors, collapses merge chains, and emits the
// result to ctx.Destination. It is single-threaded and straight-through;
// there is nothing to cancel mid-run.
//
// Resource teardown order is load-bearing: the spatial index holds
// non-owning references into the engine's geometry context, and the
// FeatureNodes hold the only other references to that geometry. Go's
// defer stack tears them down LIFO, so the engine.Close deferral is
// registered before the index is built; by the time Run returns, the
// index has already gone out of scope (it is never deferred at all, since
// nothing explicitly closes a geomengine.Index) and only the engine
// itself needs releasing, last.
func Run(ctx Context, opts Options) (Result, error) {
	if ctx.Engine == nil {
		return Result{}, newTopologyUnavailableError(ErrTopologyEngineUnavailable)
	}
	logger := opts.logger()

	if opts.Predicate != "" && len(opts.IDs) > 0 {
		return Result{}, newConfigError(ErrConflictingVictimSpec)
	}

	srcLayer, err := ctx.Source.LayerByName(ctx.SourceLayer)
	if err != nil {
		return Result{}, newSourceError(err)
	}
	if srcLayer.GeometryColumnName() == "" {
		return Result{}, newSourceError(ErrSourceLayerMissingGeometryColumn)
	}

	var victimFIDs []int64
	switch {
	case opts.Predicate != "":
		victimFIDs, err = SelectByPredicate(srcLayer, opts.Predicate)
	case len(opts.IDs) > 0:
		victimFIDs, err = SelectByIDList(opts.IDs)
	default:
		return Result{}, newConfigError(ErrNoVictimsSpecified)
	}
	if err != nil {
		return Result{}, err
	}

	victims := make(map[int64]bool, len(victimFIDs))
	for _, fid := range victimFIDs {
		victims[fid] = true
	}

	dstLayerName := ctx.DestinationLayer
	if dstLayerName == "" {
		dstLayerName = ctx.SourceLayer
	}
	dstLayer, err := PrepareDestination(srcLayer, ctx.Destination, dstLayerName)
	if err != nil {
		return Result{}, err
	}

	defer ctx.Engine.Close()

	idx := ctx.Engine.NewIndex(opts.indexNodeCapacity())

	loaded, err := Load(ctx.Engine, srcLayer, victims, idx, logger)
	if err != nil {
		return Result{}, err
	}

	ResolveNeighbors(loaded.Victims, loaded, idx, opts.Policy, logger)
	Collapse(loaded.Keep, loaded.Victims, logger)

	written, err := Emit(dstLayer, loaded.Keep, ctx.Engine, logger)
	if err != nil {
		return Result{}, newDestinationError(fmt.Errorf("emitting features: %w", err))
	}

	// absorbed counts only victims present in a survivor's final,
	// post-Collapse AssignedVictims; every other victim (no neighbors, no
	// touching neighbors, or stranded in a cycle with no reachable
	// survivor) is dropped.
	absorbed := 0
	for _, s := range loaded.Keep {
		absorbed += len(s.AssignedVictims)
	}
	dropped := len(loaded.Victims) - absorbed

	return Result{
		FeaturesKept:    written,
		VictimsAbsorbed: absorbed,
		VictimsDropped:  dropped,
	}, nil
}
