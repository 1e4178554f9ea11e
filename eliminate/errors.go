package eliminate

import "errors"

// Sentinel errors wrapped by the exported error kinds below. Callers that
// need to distinguish a specific cause should use errors.Is against these,
// not against the wrapper types.
var (
	ErrNoVictimsSpecified    = errors.New("no victim specification given")
	ErrConflictingVictimSpec = errors.New("both a predicate and an FID list were given")
	ErrSelectorFilterInvalid = errors.New("attribute filter rejected by the source layer")

	ErrSourceLayerMissingGeometryColumn   = errors.New("source layer has no geometry column")
	ErrSourceLayerMultipleGeometryColumns = errors.New("source layer has more than one geometry column")
	ErrDestinationLayerCreateFailed       = errors.New("could not create destination layer")

	ErrTopologyEngineUnavailable = errors.New("topology engine is not available")
)

// ConfigError reports a problem with the caller-supplied Options: a
// missing or conflicting victim specification. It is always fatal. An
// invalid -min value or an unknown driver is rejected by cmd/eliminate
// with a plain error before Run is called, not with a ConfigError.
type ConfigError struct {
	cause error
}

func newConfigError(cause error) *ConfigError { return &ConfigError{cause: cause} }

func (e *ConfigError) Error() string { return "eliminate: config: " + e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// SourceError reports a problem reading the source dataset or layer:
// cannot open, ambiguous layer, missing/duplicate geometry column, or an
// invalid filter. It is always fatal.
type SourceError struct {
	cause error
}

func newSourceError(cause error) *SourceError { return &SourceError{cause: cause} }

func (e *SourceError) Error() string { return "eliminate: source: " + e.cause.Error() }
func (e *SourceError) Unwrap() error { return e.cause }

// DestinationError reports a problem creating the destination dataset,
// layer, or field. A per-feature write failure is logged as a
// PerFeatureWarning instead and does not produce a DestinationError.
type DestinationError struct {
	cause error
}

func newDestinationError(cause error) *DestinationError { return &DestinationError{cause: cause} }

func (e *DestinationError) Error() string { return "eliminate: destination: " + e.cause.Error() }
func (e *DestinationError) Unwrap() error { return e.cause }

// TopologyUnavailableError reports that the geometry/topology engine could
// not be used at all. It is always fatal and surfaced at entry, before any
// feature is read.
type TopologyUnavailableError struct {
	cause error
}

func newTopologyUnavailableError(cause error) *TopologyUnavailableError {
	return &TopologyUnavailableError{cause: cause}
}

func (e *TopologyUnavailableError) Error() string {
	return "eliminate: topology engine unavailable: " + e.cause.Error()
}
func (e *TopologyUnavailableError) Unwrap() error { return e.cause }
