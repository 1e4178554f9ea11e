// Package memdriver is an in-memory vectorio.Dataset/Layer fake used by
// the eliminate package's tests, so a collapse scenario can be exercised
// without touching the filesystem or a real vector-format driver. It
// understands the same OGR_GEOM_AREA-bearing attribute filters as
// vectorio/shpdriver, evaluated with the same expression library.
package memdriver

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/vectorio"
)

// DriverName is the value Layer.Driver returns.
const DriverName = "Memory"

// Dataset is a fixed set of named in-memory layers.
type Dataset struct {
	layers map[string]*Layer
	order  []string
}

// New returns an empty Dataset ready to have layers added with AddLayer or
// created with CreateLayer.
func New() *Dataset {
	return &Dataset{layers: make(map[string]*Layer)}
}

// AddLayer registers a pre-populated layer under name, for test setup. It
// panics on a duplicate name since that indicates a broken test fixture.
func (d *Dataset) AddLayer(name string, l *Layer) {
	if _, exists := d.layers[name]; exists {
		panic(fmt.Sprintf("memdriver: layer %q already exists", name))
	}
	l.name = name
	d.layers[name] = l
	d.order = append(d.order, name)
}

// LayerNames implements vectorio.Dataset.
func (d *Dataset) LayerNames() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// LayerByName implements vectorio.Dataset.
func (d *Dataset) LayerByName(name string) (vectorio.Layer, error) {
	if name == "" {
		if len(d.order) != 1 {
			return nil, fmt.Errorf("memdriver: dataset has %d layers; a layer name is required", len(d.order))
		}
		name = d.order[0]
	}
	l, ok := d.layers[name]
	if !ok {
		return nil, fmt.Errorf("memdriver: no such layer %q", name)
	}
	return l, nil
}

// CreateLayer implements vectorio.Dataset.
func (d *Dataset) CreateLayer(name string, srs string) (vectorio.Layer, error) {
	l := &Layer{name: name, srs: srs, write: true}
	d.AddLayer(name, l)
	return l, nil
}

// Layer is an in-memory vectorio.Layer. Construct one with NewLayer and
// populate it with AddFeature before handing it to a Dataset.
type Layer struct {
	name string
	srs  string

	fields   []vectorio.FieldDef
	features []vectorio.Feature

	filter     string
	filterExpr *govaluate.EvaluableExpression

	write    bool
	Written  []vectorio.Feature // every feature passed to WriteFeature, in order
}

// NewLayer returns an empty read-mode layer with the given fields.
func NewLayer(fields []vectorio.FieldDef) *Layer {
	return &Layer{fields: fields}
}

// AddFeature appends a feature to a read-mode layer's source data.
func (l *Layer) AddFeature(f vectorio.Feature) {
	l.features = append(l.features, f)
}

// Name implements vectorio.Layer.
func (l *Layer) Name() string { return l.name }

// Driver implements vectorio.Layer.
func (l *Layer) Driver() string { return DriverName }

// Fields implements vectorio.Layer.
func (l *Layer) Fields() []vectorio.FieldDef { return l.fields }

// GeometryColumnName implements vectorio.Layer.
func (l *Layer) GeometryColumnName() string { return "geometry" }

// SRS implements vectorio.Layer.
func (l *Layer) SRS() string { return l.srs }

// SetAttributeFilter implements vectorio.Layer.
func (l *Layer) SetAttributeFilter(predicate string) error {
	if predicate == "" {
		l.filter = ""
		l.filterExpr = nil
		return nil
	}
	expr, err := govaluate.NewEvaluableExpression(predicate)
	if err != nil {
		return fmt.Errorf("memdriver: invalid filter %q: %w", predicate, err)
	}
	l.filter = predicate
	l.filterExpr = expr
	return nil
}

// ClearAttributeFilter implements vectorio.Layer.
func (l *Layer) ClearAttributeFilter() {
	l.filter = ""
	l.filterExpr = nil
}

// Iterate implements vectorio.Layer.
func (l *Layer) Iterate() vectorio.FeatureIterator {
	return &iterator{layer: l}
}

// CreateField implements vectorio.Layer.
func (l *Layer) CreateField(f vectorio.FieldDef) error {
	if !l.write {
		return fmt.Errorf("memdriver: CreateField called on a read-only layer")
	}
	l.fields = append(l.fields, f)
	return nil
}

// WriteFeature implements vectorio.Layer.
func (l *Layer) WriteFeature(f vectorio.Feature) error {
	if !l.write {
		return fmt.Errorf("memdriver: WriteFeature called on a read-only layer")
	}
	l.Written = append(l.Written, f)
	return nil
}

type iterator struct {
	layer *Layer
	pos   int
	cur   vectorio.Feature
	err   error
}

func (it *iterator) Next() bool {
	for it.err == nil && it.pos < len(it.layer.features) {
		f := it.layer.features[it.pos]
		it.pos++
		if it.matches(f) {
			it.cur = f
			return true
		}
	}
	return false
}

func (it *iterator) matches(f vectorio.Feature) bool {
	if it.layer.filterExpr == nil {
		return true
	}
	params := make(map[string]interface{}, len(f.Values)+1)
	for k, v := range f.Values {
		params[k] = v
	}
	params["OGR_GEOM_AREA"] = polygonArea(f.Rings)
	result, err := it.layer.filterExpr.Evaluate(params)
	if err != nil {
		it.err = fmt.Errorf("memdriver: evaluating filter %q: %w", it.layer.filter, err)
		return false
	}
	ok, _ := result.(bool)
	return ok
}

func (it *iterator) Feature() vectorio.Feature { return it.cur }
func (it *iterator) Err() error                { return it.err }
func (it *iterator) Close()                    {}

func polygonArea(rings [][]geomengine.Point) float64 {
	if len(rings) == 0 {
		return 0
	}
	var area float64
	for i, ring := range rings {
		a := shoelace(ring)
		if i == 0 {
			area += a
		} else {
			area -= a
		}
	}
	if area < 0 {
		area = -area
	}
	return area
}

func shoelace(ring []geomengine.Point) float64 {
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
