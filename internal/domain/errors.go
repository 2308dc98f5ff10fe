package domain

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid scoring configuration: weight groups that do
// not sum to one, an unknown aggregation mode, bad percentile bounds. It is
// fatal and surfaced before any district is scored, never silently defaulted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// MissingDataError reports insufficient sub-indicator coverage for one
// district's component under the active missing-data policy. It is scoped to
// that district and never aborts scoring of the others.
type MissingDataError struct {
	District  District
	Component ComponentKey
	Missing   []string
	// MissingWeight is the summed declared weight of the missing
	// sub-indicators, the quantity the lenient policy thresholds on.
	MissingWeight float64
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data: district %q component %q: missing %s (weight %.2f)",
		e.District, e.Component, strings.Join(e.Missing, ", "), e.MissingWeight)
}

// RangeError reports a value outside its contracted [0,100] bound reaching a
// stage that assumes it is already bounded. It marks an upstream bug and is
// always surfaced, never clipped away.
type RangeError struct {
	Stage string
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range: %s: value %g outside [0,100]", e.Stage, e.Value)
}
