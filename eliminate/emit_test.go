package eliminate

import (
	"log"
	"testing"

	"github.com/lnorton/eliminate/geomengine/geosgeom"
	"github.com/lnorton/eliminate/vectorio/memdriver"
)

func TestEmitNoVictims(t *testing.T) {
	eng := geosgeom.New()
	defer eng.Close()

	g, err := eng.NewPolygon(square(0, 0, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	s := NewFeatureNode(1, map[string]interface{}{"name": "a"}, g)

	ds := memdriver.New()
	dst, err := ds.CreateLayer("out", "")
	if err != nil {
		t.Fatal(err)
	}

	n, err := Emit(dst, []*FeatureNode{s}, eng, log.Default())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 feature written, got %d", n)
	}

	memLayer := dst.(*memdriver.Layer)
	if len(memLayer.Written) != 1 || memLayer.Written[0].FID != 1 {
		t.Fatalf("unexpected written features: %+v", memLayer.Written)
	}
}

func TestEmitUnionsAssignedVictims(t *testing.T) {
	eng := geosgeom.New()
	defer eng.Close()

	g1, err := eng.NewPolygon(square(0, 0, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := eng.NewPolygon(square(1, 0, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	survivor := NewFeatureNode(1, map[string]interface{}{"name": "a"}, g1)
	victim := NewFeatureNode(2, map[string]interface{}{"name": "b"}, g2)
	survivor.AssignedVictims = []*FeatureNode{victim}

	ds := memdriver.New()
	dst, err := ds.CreateLayer("out", "")
	if err != nil {
		t.Fatal(err)
	}

	n, err := Emit(dst, []*FeatureNode{survivor}, eng, log.Default())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 feature written, got %d", n)
	}
	memLayer := dst.(*memdriver.Layer)
	got := memLayer.Written[0]
	if got.Values["name"] != "a" {
		t.Fatalf("expected output to carry the survivor's attributes, got %v", got.Values)
	}
	if len(got.Rings) == 0 {
		t.Fatal("expected a unioned geometry with at least one ring")
	}
}
