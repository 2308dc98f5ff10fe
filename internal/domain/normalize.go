package domain

import (
	"math"
	"sort"
)

// NormalizationMethod selects how raw indicator values are rescaled to 0-100.
type NormalizationMethod string

const (
	// NormalizationRobust rescales between the 5th and 95th percentile
	// (configurable), clipping outliers to the bounds.
	NormalizationRobust NormalizationMethod = "robust"
	// NormalizationMinMax rescales between the column minimum and maximum.
	NormalizationMinMax NormalizationMethod = "minmax"
)

// NormalizationParams controls one normalization pass. Percentile bounds are
// only consulted by the robust method.
type NormalizationParams struct {
	Method         NormalizationMethod `yaml:"method" json:"method"`
	PercentileLow  float64             `yaml:"percentile_low" json:"percentile_low"`
	PercentileHigh float64             `yaml:"percentile_high" json:"percentile_high"`
}

// DefaultNormalizationParams returns robust normalization over p5/p95.
func DefaultNormalizationParams() NormalizationParams {
	return NormalizationParams{
		Method:         NormalizationRobust,
		PercentileLow:  5,
		PercentileHigh: 95,
	}
}

// Validate checks the method, and the percentile bounds when the robust
// method is selected. Min-max never reads the bounds, so they are not
// constrained there.
func (p NormalizationParams) Validate() error {
	switch p.Method {
	case NormalizationRobust:
		if p.PercentileLow < 0 || p.PercentileHigh > 100 || p.PercentileLow >= p.PercentileHigh {
			return &ConfigError{Field: "normalization.percentiles", Reason: "require 0 <= low < high <= 100"}
		}
	case NormalizationMinMax:
	default:
		return &ConfigError{Field: "normalization.method", Reason: "must be \"robust\" or \"minmax\""}
	}
	return nil
}

// Normalize rescales one indicator column to [0,100]. Districts absent from
// the input stay absent from the output; missing values propagate as missing
// and are excluded from the bound computation. A degenerate column (identical
// values, or fewer than two values) carries no discriminative signal and maps
// every present district to the 50 midpoint.
func Normalize(values map[District]float64, p NormalizationParams) (map[District]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	scores := make(map[District]float64, len(values))
	if len(values) == 0 {
		return scores, nil
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	var lo, hi float64
	switch p.Method {
	case NormalizationMinMax:
		lo, hi = sorted[0], sorted[len(sorted)-1]
	default:
		lo = percentile(sorted, p.PercentileLow)
		hi = percentile(sorted, p.PercentileHigh)
	}

	if hi == lo {
		for d := range values {
			scores[d] = 50
		}
		return scores, nil
	}

	for d, v := range values {
		s := (v - lo) / (hi - lo) * 100
		scores[d] = math.Min(100, math.Max(0, s))
	}
	return scores, nil
}

// percentile computes the pct-th percentile of an ascending-sorted slice
// using linear interpolation between closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := pct / 100 * float64(len(sorted)-1)
	idx := int(math.Floor(pos))
	if idx >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(idx)
	return sorted[idx] + frac*(sorted[idx+1]-sorted[idx])
}
