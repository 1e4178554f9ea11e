package eliminate

import "log"

// Collapse computes, for every survivor in keep, the transitive closure of
// its assigned-victims tree and replaces its direct AssignedVictims list
// with that closure: the union of its direct victims plus, recursively,
// each of their assigned victims. victims is the full victim list, used
// only to detect and warn about cycles that no survivor reaches.
//
// The assignment graph is a functional graph (each victim has at most one
// outgoing edge), so cycles can only occur among victims with no survivor
// reachable. A visited set, not naive recursion, catches them: a victim
// already seen during one survivor's walk is skipped rather than
// revisited.
func Collapse(keep, victims []*FeatureNode, logger *log.Logger) {
	reached := make(map[*FeatureNode]bool)
	for _, s := range keep {
		direct := s.AssignedVictims
		s.AssignedVictims = nil
		for _, v := range direct {
			collectClosure(s, v, reached, logger)
		}
	}
	warnUnreachedCycles(victims, reached, logger)
}

func collectClosure(survivor, v *FeatureNode, reached map[*FeatureNode]bool, logger *log.Logger) {
	if reached[v] {
		return
	}
	reached[v] = true
	survivor.AssignedVictims = append(survivor.AssignedVictims, v)
	for _, next := range v.AssignedVictims {
		collectClosure(survivor, next, reached, logger)
	}
}

// warnUnreachedCycles finds victims that no survivor's closure walk ever
// reached. By the functional-graph argument (out-degree at most 1), such a
// node is a member of, or leads into, a cycle with no survivor reachable
// from it; its
// geometry is dropped identically to an unassigned victim. Each distinct
// cycle is warned once, keyed by its lowest FID member so the message is
// stable across runs.
func warnUnreachedCycles(victims []*FeatureNode, reached map[*FeatureNode]bool, logger *log.Logger) {
	warnedCycle := make(map[*FeatureNode]bool)
	for _, v := range victims {
		if reached[v] || v.Chosen == nil || warnedCycle[v] {
			continue
		}
		// v was assigned to a neighbor but never absorbed by any
		// survivor: walk its cycle once, marking every member so it is
		// not warned about again, and report the lowest FID in it.
		members := []*FeatureNode{v}
		marker := map[*FeatureNode]bool{v: true}
		cur := v.Chosen
		for cur != nil && cur.Victim && !marker[cur] && !warnedCycle[cur] {
			members = append(members, cur)
			marker[cur] = true
			cur = cur.Chosen
		}
		// A walk that ran into an already-warned cycle is not reported again.
		alreadyWarned := cur != nil && warnedCycle[cur]
		for _, m := range members {
			warnedCycle[m] = true
		}
		if alreadyWarned {
			continue
		}
		lowest := members[0].FID
		for _, m := range members {
			if m.FID < lowest {
				lowest = m.FID
			}
		}
		logger.Printf("eliminate: warning: unresolvable merge cycle among %d victim(s), lowest FID %d; geometries dropped", len(members), lowest)
	}
}
