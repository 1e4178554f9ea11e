// Package vectorio declares the vector I/O substrate contract that the
// eliminate core depends on: dataset/layer open and create, field
// enumeration, attribute-filtered feature iteration, and feature write.
// This is the Go analog of the subset of OGR that the original C++
// implementation calls into directly.
//
// The core never imports a concrete driver; it is handed a Layer and a
// Dataset through eliminate.Context. vectorio/shpdriver is the one
// implementation shipped with this module; vectorio/memdriver is an
// in-memory fake used by tests.
package vectorio

import "github.com/lnorton/eliminate/geomengine"

// FieldType enumerates the attribute field types a Layer can declare.
type FieldType int

// Field types supported by this module's drivers.
const (
	FieldString FieldType = iota
	FieldInteger
	FieldReal
)

// FieldDef describes one attribute field, independent of any driver's wire
// representation.
type FieldDef struct {
	Name      string
	Type      FieldType
	Width     int // display width in characters/digits; driver-specific meaning
	Precision int // digits after the decimal point, for FieldReal
}

// Feature is one source or destination record: an FID, a set of attribute
// values keyed by field name, and (if present) polygon ring coordinates.
type Feature struct {
	FID    int64
	Values map[string]interface{}
	// Rings holds the feature's polygon geometry as one ring per element
	// (first ring is the outer ring; subsequent rings are holes), or is
	// nil if the feature has no geometry.
	Rings [][]geomengine.Point
}

// FeatureIterator streams features from a Layer. Callers must call Close
// when done, even after an error.
type FeatureIterator interface {
	// Next advances to the next feature, returning false when iteration
	// is exhausted or an error has occurred; check Err to distinguish.
	Next() bool
	Feature() Feature
	Err() error
	Close()
}

// Layer is one vector layer: a set of typed attribute fields plus a
// sequence of features sharing one spatial reference and geometry type.
type Layer interface {
	Name() string

	// Driver identifies the backing format, used by the Selector to
	// decide whether the OGR_GEOM_AREA filter token needs rewriting for
	// this layer's native filter dialect.
	Driver() string

	Fields() []FieldDef

	// GeometryColumnName names the layer's single geometry field, used
	// when rewriting OGR_GEOM_AREA to ST_Area(<geom-col>).
	GeometryColumnName() string

	// SRS returns the layer's spatial reference, as an opaque string
	// (e.g. a PROJ4 or WKT string) that is copied verbatim and never
	// parsed by the core.
	SRS() string

	// SetAttributeFilter installs a predicate in the layer's native
	// filter dialect; only features matching it are visited by
	// subsequent calls to Iterate. An invalid predicate returns an
	// error instead of silently matching everything or nothing.
	SetAttributeFilter(predicate string) error

	// ClearAttributeFilter removes any filter installed by
	// SetAttributeFilter.
	ClearAttributeFilter()

	// Iterate returns a fresh iterator over the features currently
	// visible under the installed attribute filter, in natural
	// (source) order.
	Iterate() FeatureIterator

	// CreateField declares a new attribute field. Used when preparing a
	// destination layer by cloning the source's field definitions.
	CreateField(FieldDef) error

	// WriteFeature appends one feature to the layer.
	WriteFeature(Feature) error
}

// Dataset is a collection of named layers, open for either reading or
// writing.
type Dataset interface {
	// LayerNames lists the dataset's layers in open order.
	LayerNames() []string

	// LayerByName returns the named layer, or the only layer if the
	// dataset has exactly one and name is empty.
	LayerByName(name string) (Layer, error)

	// CreateLayer creates a new polygon layer with the given spatial
	// reference (copied verbatim from some source layer's SRS) and
	// returns it ready to accept CreateField/WriteFeature calls.
	CreateLayer(name string, srs string) (Layer, error)
}
