package eliminate

import (
	"errors"
	"testing"

	"github.com/lnorton/eliminate/vectorio"
	"github.com/lnorton/eliminate/vectorio/memdriver"
)

func TestRewriteAreaToken(t *testing.T) {
	cases := []struct {
		name, predicate, geomCol, want string
	}{
		{"simple", "OGR_GEOM_AREA < 5", "geom", "ST_Area(geom) < 5"},
		{"no match", "pop > 5", "geom", "pop > 5"},
		{"substring not rewritten", "MY_OGR_GEOM_AREA_X < 5", "geom", "MY_OGR_GEOM_AREA_X < 5"},
		{"two occurrences", "OGR_GEOM_AREA < 5 AND OGR_GEOM_AREA > 1", "g", "ST_Area(g) < 5 AND ST_Area(g) > 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := rewriteAreaToken(c.predicate, c.geomCol)
			if got != c.want {
				t.Errorf("rewriteAreaToken(%q, %q) = %q, want %q", c.predicate, c.geomCol, got, c.want)
			}
		})
	}
}

func TestSelectByIDList(t *testing.T) {
	ids, err := SelectByIDList([]string{"3", "1", "3", "-2", "abc", "", "7"})
	if err != nil {
		t.Fatalf("SelectByIDList: %v", err)
	}
	want := []int64{3, 1, 7}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

func TestSelectByIDListAllInvalid(t *testing.T) {
	_, err := SelectByIDList([]string{"-1", "abc", ""})
	if !errors.Is(err, ErrNoVictimsSpecified) {
		t.Fatalf("expected ErrNoVictimsSpecified, got %v", err)
	}
}

func TestSelectByIDListEmpty(t *testing.T) {
	_, err := SelectByIDList(nil)
	if !errors.Is(err, ErrNoVictimsSpecified) {
		t.Fatalf("expected ErrNoVictimsSpecified, got %v", err)
	}
}

func TestSelectByPredicate(t *testing.T) {
	layer := memdriver.NewLayer([]vectorio.FieldDef{{Name: "area", Type: vectorio.FieldReal}})
	layer.AddFeature(vectorio.Feature{FID: 1, Values: map[string]interface{}{"area": 0.01}})
	layer.AddFeature(vectorio.Feature{FID: 2, Values: map[string]interface{}{"area": 50.0}})
	layer.AddFeature(vectorio.Feature{FID: 3, Values: map[string]interface{}{"area": 0.02}})

	ids, err := SelectByPredicate(layer, "area < 1")
	if err != nil {
		t.Fatalf("SelectByPredicate: %v", err)
	}
	want := []int64{1, 3}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("got %v, want %v", ids, want)
	}
}

func TestSelectByPredicateInvalid(t *testing.T) {
	layer := memdriver.NewLayer(nil)
	_, err := SelectByPredicate(layer, "this is not ( valid")
	if err == nil {
		t.Fatal("expected an error for an invalid predicate")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected a *SourceError, got %T: %v", err, err)
	}
}
