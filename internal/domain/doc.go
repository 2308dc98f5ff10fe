// Package domain models climate-risk scoring for Malawi's 28 administrative
// districts.
//
// # Framework
//
// Scores follow the IPCC AR5 risk framing: Risk = f(Hazard, Exposure,
// Vulnerability), where Vulnerability is the inverse of Adaptive Capacity
// (V = 100 - AC). Each of the three components is a weighted combination of
// normalized sub-indicators derived upstream from gridded climate time
// series, national socioeconomic statistics, population rasters, and
// historical disaster records. This service receives those raw per-district
// indicator values as a snapshot table; it never fetches or parses the
// source datasets itself.
//
// # Normalization
//
// Raw indicators arrive on wildly different scales (percentages, counts,
// mm/year) and with outliers. The default robust method computes the 5th and
// 95th percentile of an indicator across all districts and rescales
//
//	score = clip((value - p5) / (p95 - p5) * 100, 0, 100)
//
// so a single extreme district cannot compress everyone else's scores.
// Min-max normalization is selectable for sensitivity comparison. A column
// with no variance maps every district to 50: no discriminative signal.
// Missing raw values stay missing: they are excluded from the percentile
// computation and never imputed. Because the percentile bounds depend on
// every district's value, normalization is inherently full-batch.
//
// # Composition
//
// Two published methodology drafts combine the components differently and
// are not interchangeable, so both are explicit modes:
//
//	multiplicative: risk = cbrt(H * E * V)         (geometric mean, 0-100)
//	additive:       risk = H*0.40 + E*0.30 + V*0.30 (weights configurable)
//
// The multiplicative form encodes that risk requires all three components:
// a zero hazard, exposure, or vulnerability yields exactly zero risk, and
// the implementation short-circuits rather than trusting cube-root
// floating-point behavior near zero. Every result records which mode
// produced it.
//
// # Categories
//
// Final scores map to five ordered levels with half-open lower bounds:
//
//	[0,25) very_low | [25,40) low | [40,60) medium | [60,75) high | [75,100] very_high
//
// # Degraded data
//
// A district missing sub-indicators either fails its component (strict
// policy) or proceeds with weights re-normalized over the present
// sub-indicators, up to a configurable missing-weight threshold. Failures
// are scoped to the district and collected into the run's issue list;
// the remaining districts score normally.
package domain
