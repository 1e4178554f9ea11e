package eliminate

import (
	"log"
	"testing"
)

func TestCollapseTransitiveClosure(t *testing.T) {
	p1 := &FeatureNode{FID: 1}
	p2 := &FeatureNode{FID: 2, Victim: true}
	p3 := &FeatureNode{FID: 3, Victim: true}
	p4 := &FeatureNode{FID: 4}

	// p2 -> p3 -> p4 (p4 is the ultimate survivor).
	p2.Chosen = p3
	p3.Chosen = p4
	p4.AssignedVictims = []*FeatureNode{p3}
	p3.AssignedVictims = []*FeatureNode{p2}

	keep := []*FeatureNode{p1, p4}
	victims := []*FeatureNode{p2, p3}

	Collapse(keep, victims, log.Default())

	if len(p1.AssignedVictims) != 0 {
		t.Fatalf("expected p1 to gain no victims, got %v", p1.AssignedVictims)
	}
	if len(p4.AssignedVictims) != 2 {
		t.Fatalf("expected p4 to absorb both p2 and p3, got %d", len(p4.AssignedVictims))
	}
}

func TestCollapseCycleDropped(t *testing.T) {
	a := &FeatureNode{FID: 1, Victim: true}
	b := &FeatureNode{FID: 2, Victim: true}
	a.Chosen = b
	b.Chosen = a
	a.AssignedVictims = []*FeatureNode{}
	b.AssignedVictims = []*FeatureNode{a}
	a.AssignedVictims = []*FeatureNode{b}

	s := &FeatureNode{FID: 3}
	keep := []*FeatureNode{s}
	victims := []*FeatureNode{a, b}

	Collapse(keep, victims, log.Default())

	if len(s.AssignedVictims) != 0 {
		t.Fatalf("expected the survivor to gain nothing from an unreachable cycle, got %v", s.AssignedVictims)
	}
}
