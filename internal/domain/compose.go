package domain

import (
	"fmt"
	"math"
)

// AggregationMode selects how the three component scores combine into the
// final risk score. The two published methodology drafts disagree on the
// formula, so both are first-class and the caller must pick one.
type AggregationMode string

const (
	// ModeMultiplicative composes risk as the geometric mean
	// cube_root(H * E * V), so risk vanishes when any component does.
	ModeMultiplicative AggregationMode = "multiplicative"
	// ModeAdditive composes risk as the weighted sum H*wh + E*we + V*wv.
	ModeAdditive AggregationMode = "additive"
)

// Validate checks the mode name.
func (m AggregationMode) Validate() error {
	switch m {
	case ModeMultiplicative, ModeAdditive:
		return nil
	default:
		return &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown aggregation mode %q", string(m))}
	}
}

// RiskWeights are the top-level component weights used by additive mode.
// They must sum to 1.0.
type RiskWeights struct {
	Hazard           float64 `yaml:"hazard" json:"hazard"`
	Exposure         float64 `yaml:"exposure" json:"exposure"`
	AdaptiveCapacity float64 `yaml:"adaptive_capacity" json:"adaptive_capacity"`
}

// DefaultRiskWeights returns the baseline 0.40/0.30/0.30 weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{Hazard: 0.40, Exposure: 0.30, AdaptiveCapacity: 0.30}
}

// Validate checks positivity and the unit sum.
func (w RiskWeights) Validate() error {
	if w.Hazard <= 0 || w.Exposure <= 0 || w.AdaptiveCapacity <= 0 {
		return &ConfigError{Field: "component_weights", Reason: "all component weights must be positive"}
	}
	sum := w.Hazard + w.Exposure + w.AdaptiveCapacity
	if math.Abs(sum-1.0) > weightTolerance {
		return &ConfigError{
			Field:  "component_weights",
			Reason: fmt.Sprintf("weights sum to %g, want 1.0", sum),
		}
	}
	return nil
}

// Compose combines the three component scores into the final risk score.
// Adaptive capacity is inverted into vulnerability (100 - AC) first. Inputs
// must already be in [0,100]; out-of-range values surface as a RangeError
// rather than being clipped, since they indicate an upstream bug.
//
// In multiplicative mode a zero component short-circuits to an exact 0
// instead of relying on floating-point cube-root precision.
func Compose(hazard, exposure, adaptiveCapacity float64, mode AggregationMode, weights RiskWeights) (float64, error) {
	for _, in := range []struct {
		name  string
		value float64
	}{
		{"hazard", hazard},
		{"exposure", exposure},
		{"adaptive_capacity", adaptiveCapacity},
	} {
		if in.value < 0 || in.value > 100 {
			return 0, &RangeError{Stage: "compose " + in.name, Value: in.value}
		}
	}

	vulnerability := 100 - adaptiveCapacity

	switch mode {
	case ModeMultiplicative:
		if hazard == 0 || exposure == 0 || vulnerability == 0 {
			return 0, nil
		}
		product := (hazard / 100) * (exposure / 100) * (vulnerability / 100)
		risk := math.Cbrt(product) * 100
		return math.Min(100, risk), nil
	case ModeAdditive:
		return hazard*weights.Hazard + exposure*weights.Exposure + vulnerability*weights.AdaptiveCapacity, nil
	default:
		return 0, mode.Validate()
	}
}
