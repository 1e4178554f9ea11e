// Package shpdriver implements vectorio.Dataset and vectorio.Layer on top
// of github.com/ctessum/geom/encoding/shp, which itself wraps
// github.com/jonas-p/go-shp. It is the default vector-I/O substrate for
// the eliminate CLI, playing the role OGR's Shapefile driver plays for the
// original C++ tool.
//
// Shapefiles have no SQL engine of their own, so the attribute-filter
// dialect this driver understands is evaluated in-process with
// github.com/Knetic/govaluate, against the feature's field values plus a
// synthetic OGR_GEOM_AREA variable holding the feature's polygon area.
package shpdriver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/vectorio"
)

// DriverName is the value Layer.Driver returns.
const DriverName = "Shapefile"

// Dataset is a shpdriver.Dataset backed either by a single .shp file or by
// a directory containing one .shp file per layer.
type Dataset struct {
	dir      string // "" if opened/created as a single file
	single   string // path to the single .shp file, if dir == ""
	write    bool
	layers   map[string]*Layer
}

// Open opens an existing shapefile (or directory of shapefiles) for
// reading.
func Open(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("shpdriver: open %s: %w", path, err)
	}
	d := &Dataset{layers: make(map[string]*Layer)}
	if info.IsDir() {
		d.dir = path
		return d, nil
	}
	d.single = path
	return d, nil
}

// Create creates a new dataset for writing. If path ends in ".shp" it is
// treated as a single-layer destination; otherwise it is treated as a
// directory that will hold one .shp file per created layer.
func Create(path string) (*Dataset, error) {
	d := &Dataset{layers: make(map[string]*Layer), write: true}
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		d.single = path
		return d, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("shpdriver: create %s: %w", path, err)
	}
	d.dir = path
	return d, nil
}

// LayerNames implements vectorio.Dataset.
func (d *Dataset) LayerNames() []string {
	if d.single != "" {
		return []string{layerNameFromPath(d.single)}
	}
	matches, _ := filepath.Glob(filepath.Join(d.dir, "*.shp"))
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = layerNameFromPath(m)
	}
	return names
}

// LayerByName implements vectorio.Dataset.
func (d *Dataset) LayerByName(name string) (vectorio.Layer, error) {
	names := d.LayerNames()
	if name == "" {
		if len(names) != 1 {
			return nil, fmt.Errorf("shpdriver: dataset has %d layers; a layer name is required", len(names))
		}
		name = names[0]
	}
	if l, ok := d.layers[name]; ok {
		return l, nil
	}
	path := d.pathFor(name)
	l, err := openReadLayer(path, name)
	if err != nil {
		return nil, err
	}
	d.layers[name] = l
	return l, nil
}

// CreateLayer implements vectorio.Dataset. A blank name in single-file
// mode is normalized to the destination file's own base name, so a later
// LayerByName("") or LayerByName(<basename>) both find this layer.
func (d *Dataset) CreateLayer(name string, srs string) (vectorio.Layer, error) {
	if name == "" && d.single != "" {
		name = layerNameFromPath(d.single)
	}
	path := d.pathFor(name)
	l := &Layer{
		name:  name,
		path:  path,
		srs:   srs,
		write: true,
	}
	d.layers[name] = l
	return l, nil
}

// Layers returns every layer this Dataset has created or opened so far,
// in no defined order. cmd/eliminate uses it to flush write-mode layers
// after a Run completes, without needing to know their names.
func (d *Dataset) Layers() []*Layer {
	out := make([]*Layer, 0, len(d.layers))
	for _, l := range d.layers {
		out = append(out, l)
	}
	return out
}

func (d *Dataset) pathFor(name string) string {
	if d.single != "" {
		return d.single
	}
	return filepath.Join(d.dir, name+".shp")
}

func layerNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Layer implements vectorio.Layer for one shapefile.
type Layer struct {
	name string
	path string
	srs  string

	// read-mode state
	fields   []vectorio.FieldDef
	features []vectorio.Feature
	filter   string
	filterExpr *govaluate.EvaluableExpression

	// write-mode state
	write       bool
	pendingFlds []vectorio.FieldDef
	encoder     *shp.Encoder
}

func openReadLayer(path, name string) (*Layer, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("shpdriver: %w", err)
	}
	defer dec.Close()

	shpFields := dec.Fields()
	fields := make([]vectorio.FieldDef, len(shpFields))
	names := make([]string, len(shpFields))
	for i, f := range shpFields {
		fields[i] = vectorio.FieldDef{
			Name:      fieldName(f.Name),
			Type:      fieldType(f.Fieldtype),
			Width:     int(f.Size),
			Precision: int(f.Precision),
		}
		names[i] = fields[i].Name
	}

	srsText := readPRJ(path)
	if srsText != "" {
		if _, err := proj.Parse(srsText); err != nil {
			// The .prj content doesn't parse as a recognized
			// projection; keep the raw text anyway (it is copied
			// verbatim, never reprojected) but surface the problem.
			fmt.Fprintf(os.Stderr, "shpdriver: warning: %s: unrecognized spatial reference: %v\n", path, err)
		}
	}

	var features []vectorio.Feature
	var fid int64
	for {
		g, raw, more := dec.DecodeRowFields(names...)
		if !more {
			break
		}
		values := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			values[f.Name] = convertAttr(raw[f.Name], f.Type)
		}
		rings, _ := geomToRings(g)
		features = append(features, vectorio.Feature{FID: fid, Values: values, Rings: rings})
		fid++
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("shpdriver: %s: %w", path, err)
	}

	return &Layer{
		name:     name,
		path:     path,
		srs:      srsText,
		fields:   fields,
		features: features,
	}, nil
}

func readPRJ(shpPath string) string {
	b, err := os.ReadFile(strings.TrimSuffix(shpPath, ".shp") + ".prj")
	if err != nil {
		return ""
	}
	return string(b)
}

// Name implements vectorio.Layer.
func (l *Layer) Name() string { return l.name }

// Driver implements vectorio.Layer.
func (l *Layer) Driver() string { return DriverName }

// Fields implements vectorio.Layer.
func (l *Layer) Fields() []vectorio.FieldDef {
	if l.write {
		return l.pendingFlds
	}
	return l.fields
}

// GeometryColumnName implements vectorio.Layer. Shapefiles have exactly
// one implicit geometry column with no name of its own; this module names
// it conventionally so the OGR_GEOM_AREA rewrite rule has something to
// substitute, even though the rewrite never fires for this driver (see
// DriverName and the Selector's driver check).
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
		return fmt.Errorf("shpdriver: invalid filter %q: %w", predicate, err)
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
		return fmt.Errorf("shpdriver: CreateField called on a read-only layer")
	}
	if l.encoder != nil {
		return fmt.Errorf("shpdriver: CreateField called after writing has started")
	}
	l.pendingFlds = append(l.pendingFlds, f)
	return nil
}

// WriteFeature implements vectorio.Layer.
func (l *Layer) WriteFeature(f vectorio.Feature) error {
	if !l.write {
		return fmt.Errorf("shpdriver: WriteFeature called on a read-only layer")
	}
	if l.encoder == nil {
		shpFields := make([]goshp.Field, len(l.pendingFlds))
		for i, fd := range l.pendingFlds {
			shpFields[i] = toShpField(fd)
		}
		enc, err := shp.NewEncoderFromFields(l.path, goshp.POLYGON, shpFields...)
		if err != nil {
			return fmt.Errorf("shpdriver: create %s: %w", l.path, err)
		}
		l.encoder = enc
		writePRJ(l.path, l.srs)
	}
	g, err := ringsToGeom(f.Rings)
	if err != nil {
		return fmt.Errorf("shpdriver: %w", err)
	}
	vals := make([]interface{}, len(l.pendingFlds))
	for i, fd := range l.pendingFlds {
		vals[i] = f.Values[fd.Name]
	}
	if err := l.encoder.EncodeFields(g, vals...); err != nil {
		return fmt.Errorf("shpdriver: write feature %d: %w", f.FID, err)
	}
	return nil
}

// Close flushes and closes the underlying shapefile writer, if this layer
// was opened for writing. It is not part of vectorio.Layer because the
// core never closes a destination layer mid-run; cmd/eliminate calls it
// after eliminate.Run returns.
func (l *Layer) Close() {
	if l.encoder != nil {
		l.encoder.Close()
	}
}

func writePRJ(shpPath, srs string) {
	if srs == "" {
		return
	}
	_ = os.WriteFile(strings.TrimSuffix(shpPath, ".shp")+".prj", []byte(srs), 0o644)
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
		it.err = fmt.Errorf("shpdriver: evaluating filter %q: %w", it.layer.filter, err)
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

// fieldName converts a go-shp fixed-width field name (null-padded to 11
// bytes, per the DBF spec) into a plain Go string.
func fieldName(raw [11]byte) string {
	b := raw[:]
	if n := strings.IndexByte(string(b), 0); n >= 0 {
		b = b[:n]
	}
	return strings.TrimSpace(string(b))
}

func fieldType(t byte) vectorio.FieldType {
	switch t {
	case 'N':
		return vectorio.FieldInteger
	case 'F':
		return vectorio.FieldReal
	default:
		return vectorio.FieldString
	}
}

func toShpField(f vectorio.FieldDef) goshp.Field {
	switch f.Type {
	case vectorio.FieldInteger:
		return goshp.NumberField(f.Name, uint8(orDefault(f.Width, 10)))
	case vectorio.FieldReal:
		return goshp.FloatField(f.Name, uint8(orDefault(f.Width, 14)), uint8(orDefault(f.Precision, 6)))
	default:
		return goshp.StringField(f.Name, uint8(orDefault(f.Width, 50)))
	}
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func convertAttr(raw string, t vectorio.FieldType) interface{} {
	raw = strings.TrimSpace(strings.Trim(raw, "\x00"))
	switch t {
	case vectorio.FieldInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return int64(0)
		}
		return n
	case vectorio.FieldReal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return raw
	}
}

func geomToRings(g geom.Geom) ([][]geomengine.Point, bool) {
	switch p := g.(type) {
	case geom.Polygon:
		return polygonToRings(p), len(p) > 0
	case geom.MultiPolygon:
		var rings [][]geomengine.Point
		for _, poly := range p {
			rings = append(rings, polygonToRings(poly)...)
		}
		return rings, len(rings) > 0
	default:
		return nil, false
	}
}

func polygonToRings(p geom.Polygon) [][]geomengine.Point {
	rings := make([][]geomengine.Point, len(p))
	for i, ring := range p {
		pts := make([]geomengine.Point, len(ring))
		for j, pt := range ring {
			pts[j] = geomengine.Point{X: pt.X, Y: pt.Y}
		}
		rings[i] = pts
	}
	return rings
}

func ringsToGeom(rings [][]geomengine.Point) (geom.Geom, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("feature has no geometry to write")
	}
	poly := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		pts := make([]geom.Point, len(ring))
		for j, pt := range ring {
			pts[j] = geom.Point{X: pt.X, Y: pt.Y}
		}
		poly[i] = pts
	}
	return poly, nil
}
