package eliminate

import (
	"log"

	"github.com/lnorton/eliminate/geomengine"
	"github.com/lnorton/eliminate/vectorio"
)

// Context bundles the open datasets and layer names a Run operates over.
type Context struct {
	Source      vectorio.Dataset
	SourceLayer string // required if Source has more than one layer

	Destination     vectorio.Dataset
	DestinationLayer string // defaults to SourceLayer if empty

	Engine geomengine.Engine
}

// Options bundles the victim specification and merge policy for a Run.
// Exactly one of Predicate or IDs must be set.
type Options struct {
	Predicate string
	IDs       []string

	Policy MergePolicy

	// IndexNodeCapacity is the spatial index's bulk-load node capacity.
	// Zero selects the default of 10.
	IndexNodeCapacity int

	// Logger receives every PerFeatureWarning. Defaults to log.Default()
	// if nil.
	Logger *log.Logger
}

// Result reports the outcome of a Run for CLI summary output and tests.
type Result struct {
	FeaturesKept     int
	VictimsAbsorbed  int
	VictimsDropped   int
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

const defaultIndexNodeCapacity = 10

func (o Options) indexNodeCapacity() int {
	if o.IndexNodeCapacity > 0 {
		return o.IndexNodeCapacity
	}
	return defaultIndexNodeCapacity
}
