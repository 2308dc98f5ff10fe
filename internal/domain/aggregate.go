package domain

import (
	"fmt"
	"math"
	"sort"
)

// ComponentKey names one of the three risk components.
type ComponentKey string

const (
	ComponentHazard           ComponentKey = "hazard"
	ComponentExposure         ComponentKey = "exposure"
	ComponentAdaptiveCapacity ComponentKey = "adaptive_capacity"
)

// weightTolerance is the slack allowed when checking that a weight group
// sums to one.
const weightTolerance = 1e-6

// SubIndicatorWeight declares one sub-indicator's contribution to a
// component. Invert flips the normalized score (100 - s) before weighting,
// for indicators where a high raw value means low contribution, e.g. the
// poverty rate lowering adaptive capacity.
type SubIndicatorWeight struct {
	Weight float64 `yaml:"weight" json:"weight"`
	Invert bool    `yaml:"invert,omitempty" json:"invert,omitempty"`
}

// ComponentWeights maps sub-indicator names to their declared weights.
type ComponentWeights map[string]SubIndicatorWeight

// Validate checks that the group's weights are positive and sum to 1.0
// within tolerance. Called once at configuration load, not per district.
func (w ComponentWeights) Validate(component ComponentKey) error {
	if len(w) == 0 {
		return &ConfigError{Field: string(component), Reason: "no sub-indicator weights declared"}
	}
	sum := 0.0
	for name, sw := range w {
		if sw.Weight <= 0 {
			return &ConfigError{
				Field:  fmt.Sprintf("%s.%s", component, name),
				Reason: fmt.Sprintf("weight %g must be positive", sw.Weight),
			}
		}
		sum += sw.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return &ConfigError{
			Field:  string(component),
			Reason: fmt.Sprintf("weights sum to %g, want 1.0", sum),
		}
	}
	return nil
}

// Indicators returns the declared sub-indicator names, sorted.
func (w ComponentWeights) Indicators() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MissingPolicy controls how a district with missing sub-indicators is
// handled. Strict fails the component on any missing sub-indicator. Lenient
// re-normalizes the declared weights over the present sub-indicators and
// proceeds, unless the summed weight of the missing ones exceeds
// MaxMissingWeight.
type MissingPolicy struct {
	Strict           bool    `yaml:"strict" json:"strict"`
	MaxMissingWeight float64 `yaml:"max_missing_weight" json:"max_missing_weight"`
}

// DefaultMissingPolicy allows up to half of a component's weight to be
// missing before the district's component fails.
func DefaultMissingPolicy() MissingPolicy {
	return MissingPolicy{Strict: false, MaxMissingWeight: 0.5}
}

// Validate checks the threshold range.
func (p MissingPolicy) Validate() error {
	if p.MaxMissingWeight < 0 || p.MaxMissingWeight >= 1 {
		return &ConfigError{Field: "missing_data.max_missing_weight", Reason: "must be in [0,1)"}
	}
	return nil
}

// Aggregate combines a district's normalized sub-indicator scores into one
// component score via the declared weights. Scores must already be in
// [0,100]; weights must already be validated. Missing sub-indicators are
// handled per the policy; when the component survives with gaps, weights are
// re-normalized over the present sub-indicators so the result stays on the
// 0-100 scale.
func Aggregate(district District, component ComponentKey, scores map[string]float64, weights ComponentWeights, policy MissingPolicy) (float64, error) {
	var missing []string
	var missingWeight float64
	for _, name := range weights.Indicators() {
		if _, ok := scores[name]; !ok {
			missing = append(missing, name)
			missingWeight += weights[name].Weight
		}
	}

	if len(missing) > 0 {
		if policy.Strict || missingWeight > policy.MaxMissingWeight+weightTolerance {
			return 0, &MissingDataError{
				District:      district,
				Component:     component,
				Missing:       missing,
				MissingWeight: missingWeight,
			}
		}
	}

	var weighted, presentWeight float64
	for name, sw := range weights {
		s, ok := scores[name]
		if !ok {
			continue
		}
		if s < 0 || s > 100 {
			return 0, &RangeError{Stage: fmt.Sprintf("aggregate %s.%s", component, name), Value: s}
		}
		if sw.Invert {
			s = 100 - s
		}
		weighted += s * sw.Weight
		presentWeight += sw.Weight
	}

	if presentWeight == 0 {
		// Unreachable when weights are validated and MaxMissingWeight < 1,
		// but guard the division anyway.
		return 0, &MissingDataError{District: district, Component: component, Missing: missing, MissingWeight: missingWeight}
	}

	return weighted / presentWeight, nil
}
