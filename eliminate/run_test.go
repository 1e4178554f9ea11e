package eliminate

import (
	"fmt"
	"log"
	"testing"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/geomengine/geosgeom"
	"github.com/lnorton/eliminate/vectorio"
	"github.com/lnorton/eliminate/vectorio/memdriver"
)

func quietLogger() *log.Logger {
	return log.New(discard{}, "", 0)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newSourceDataset(fields []vectorio.FieldDef, features []vectorio.Feature) *memdriver.Dataset {
	ds := memdriver.New()
	layer := memdriver.NewLayer(fields)
	for _, f := range features {
		layer.AddFeature(f)
	}
	ds.AddLayer("features", layer)
	return ds
}

// TestThreeInARowStrip covers three co-linear cells with an equal-area
// victim (P2) between two equal-area neighbors (P1, P3); LARGEST_AREA
// ties break to the first-encountered candidate, P1.
func TestThreeInARowStrip(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 1, 1)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(1, 0, 2, 1)},
		{FID: 3, Values: map[string]interface{}{"name": "P3"}, Rings: square(2, 0, 3, 1)},
	})
	dst := memdriver.New()

	result, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"2"},
		Policy: LargestArea,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeaturesKept != 2 {
		t.Fatalf("expected 2 output features, got %d", result.FeaturesKept)
	}
	if result.VictimsAbsorbed != 1 || result.VictimsDropped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	byName := featuresByName(outputLayer(t, dst).Written)
	p1 := byName["P1"]
	if len(p1.Rings) == 0 {
		t.Fatal("expected P1's output feature to carry geometry")
	}
	if area := ringArea(p1.Rings[0]); area < 1.9 || area > 2.1 {
		t.Fatalf("expected P1∪P2 area ~2, got %v", area)
	}
	if _, ok := byName["P3"]; !ok {
		t.Fatal("expected P3 to survive unchanged")
	}
}

// TestSliverNextToTwoBigCells covers a thin sliver (P2, area 0.1) sitting
// between two large cells of unequal area — P1 (area 100) and P3 (area
// 70.6) — where LARGEST_AREA must assign it to P1.
func TestSliverNextToTwoBigCells(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 10, 10)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(10, 0, 10.01, 10)},
		{FID: 3, Values: map[string]interface{}{"name": "P3"}, Rings: square(10.01, 0, 17.07, 10)},
	})
	dst := memdriver.New()

	result, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"2"},
		Policy: LargestArea,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeaturesKept != 2 {
		t.Fatalf("expected 2 output features, got %d", result.FeaturesKept)
	}
	byName := featuresByName(outputLayer(t, dst).Written)
	p1Out, ok := byName["P1"]
	if !ok {
		t.Fatal("expected P1 in the output")
	}
	if area := ringArea(p1Out.Rings[0]); area < 100.09 || area > 100.11 {
		t.Fatalf("expected P1 to absorb the sliver (area ~100.1), got %v", area)
	}
}

// TestSliverLongestBoundary covers the same sliver-between-two-cells shape
// under LONGEST_BOUNDARY: a sliver spanning P1's whole width but only a
// short stretch of P3's must go to P1 even though P3 has the larger area.
func TestSliverLongestBoundary(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	// P1: 10x10 square at the origin (area 100). P2 (the victim): a thin
	// strip along P1's entire right edge (length 10). P3: a long, low
	// strip (area ~145) whose left edge meets only a 0.5-long stretch of
	// P2, so most of P2's far edge borders empty space instead of P3.
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 10, 10)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(10, 0, 10.1, 10)},
		{FID: 3, Values: map[string]interface{}{"name": "P3"}, Rings: square(10.1, 0, 300, 0.5)},
	})
	dst := memdriver.New()

	_, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"2"},
		Policy: LongestBoundary,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	byName := featuresByName(outputLayer(t, dst).Written)
	p1Out, ok := byName["P1"]
	if !ok {
		t.Fatal("expected P1 in the output")
	}
	if area := ringArea(p1Out.Rings[0]); area < 100.99 || area > 101.01 {
		t.Fatalf("expected P1∪P2 area ~101, got %v", area)
	}
}

// TestVictimTouchesVictimChain covers two adjacent victims (P2, P3) in a
// row between survivors P1 (area 0.5) and P4 (area 10). Under LARGEST_AREA
// P2 chooses P3 (area 1) over P1 and P3 chooses P4, so the chain must
// collapse transitively onto P4.
func TestVictimTouchesVictimChain(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0.5, 0, 1, 1)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(1, 0, 2, 1)},
		{FID: 3, Values: map[string]interface{}{"name": "P3"}, Rings: square(2, 0, 3, 1)},
		{FID: 4, Values: map[string]interface{}{"name": "P4"}, Rings: square(3, 0, 13, 1)},
	})
	dst := memdriver.New()

	result, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"2", "3"},
		Policy: LargestArea,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeaturesKept != 2 {
		t.Fatalf("expected 2 output features, got %d", result.FeaturesKept)
	}
	if result.VictimsAbsorbed != 2 {
		t.Fatalf("expected both P2 and P3 absorbed, got %+v", result)
	}
	byName := featuresByName(outputLayer(t, dst).Written)
	if _, ok := byName["P1"]; !ok {
		t.Fatal("expected P1 unchanged in output")
	}
	p4 := byName["P4"]
	if area := ringArea(p4.Rings[0]); area < 11.9 || area > 12.1 {
		t.Fatalf("expected P4∪P3∪P2 area ~12, got %v", area)
	}
}

// TestIsolatedVictim covers a victim with no touching neighbor: it is
// dropped rather than emitted or merged into something distant.
func TestIsolatedVictim(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 1, 1)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(100, 100, 101, 101)},
	})
	dst := memdriver.New()

	result, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"2"},
		Policy: LargestArea,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeaturesKept != 1 {
		t.Fatalf("expected 1 output feature, got %d", result.FeaturesKept)
	}
	if result.VictimsDropped != 1 {
		t.Fatalf("expected the isolated victim to be dropped, got %+v", result)
	}
}

// TestMinSugarEquivalence covers the "-min" rewrite rule (exercised
// directly here, since the rewrite itself lives in cmd/eliminate): it
// must select exactly the same victims as the equivalent -where predicate.
func TestMinSugarEquivalence(t *testing.T) {
	minPredicate := fmt.Sprintf("OGR_GEOM_AREA < %v", 0.005)
	wherePredicate := "OGR_GEOM_AREA < 0.005"

	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	features := []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 10, 10)},
		{FID: 2, Values: map[string]interface{}{"name": "P2"}, Rings: square(10, 0, 10.001, 0.001)},
	}

	runWith := func(predicate string) Result {
		src := newSourceDataset(fields, features)
		dst := memdriver.New()
		result, err := Run(Context{Source: src, Destination: dst, Engine: geosgeom.New()}, Options{
			Predicate: predicate,
			Policy:    LargestArea,
			Logger:    quietLogger(),
		})
		if err != nil {
			t.Fatalf("Run(%q): %v", predicate, err)
		}
		return result
	}

	a := runWith(minPredicate)
	b := runWith(wherePredicate)
	if a != b {
		t.Fatalf("-min and equivalent -where produced different results: %+v vs %+v", a, b)
	}
}

// TestUnknownFIDInList covers an FID list naming a feature that doesn't
// exist: it must not fail the whole run — the unknown FID is simply never
// matched to a feature.
func TestUnknownFIDInList(t *testing.T) {
	fields := []vectorio.FieldDef{{Name: "name", Type: vectorio.FieldString}}
	src := newSourceDataset(fields, []vectorio.Feature{
		{FID: 1, Values: map[string]interface{}{"name": "P1"}, Rings: square(0, 0, 1, 1)},
	})
	dst := memdriver.New()

	result, err := Run(Context{
		Source:      src,
		Destination: dst,
		Engine:      geosgeom.New(),
	}, Options{
		IDs:    []string{"9999"},
		Policy: LargestArea,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FeaturesKept != 1 {
		t.Fatalf("expected the single feature to survive untouched, got %d", result.FeaturesKept)
	}
}

func outputLayer(t *testing.T, ds *memdriver.Dataset) *memdriver.Layer {
	t.Helper()
	names := ds.LayerNames()
	if len(names) != 1 {
		t.Fatalf("expected exactly one destination layer, got %v", names)
	}
	l, err := ds.LayerByName(names[0])
	if err != nil {
		t.Fatal(err)
	}
	return l.(*memdriver.Layer)
}

func featuresByName(features []vectorio.Feature) map[string]vectorio.Feature {
	out := make(map[string]vectorio.Feature, len(features))
	for _, f := range features {
		name, _ := f.Values["name"].(string)
		out[name] = f
	}
	return out
}

// ringArea computes the shoelace-formula area of a single ring, for
// asserting on output geometry areas in tests.
func ringArea(ring []geomengine.Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var a float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	if a < 0 {
		a = -a
	}
	return a / 2
}
