package domain

// RiskCategory is one of five ordered risk levels.
type RiskCategory string

const (
	CategoryVeryLow  RiskCategory = "very_low"
	CategoryLow      RiskCategory = "low"
	CategoryMedium   RiskCategory = "medium"
	CategoryHigh     RiskCategory = "high"
	CategoryVeryHigh RiskCategory = "very_high"
)

// Categories lists the risk levels in ascending order.
func Categories() []RiskCategory {
	return []RiskCategory{CategoryVeryLow, CategoryLow, CategoryMedium, CategoryHigh, CategoryVeryHigh}
}

// CategoryBounds holds the lower bound of each category above very-low.
// Ranges are half-open on the lower bound: [0,Low) very-low, [Low,Medium)
// low, [Medium,High) medium, [High,VeryHigh) high, [VeryHigh,100] very-high.
type CategoryBounds struct {
	Low      float64 `yaml:"low" json:"low"`
	Medium   float64 `yaml:"medium" json:"medium"`
	High     float64 `yaml:"high" json:"high"`
	VeryHigh float64 `yaml:"very_high" json:"very_high"`
}

// DefaultCategoryBounds returns the published 25/40/60/75 cut points.
func DefaultCategoryBounds() CategoryBounds {
	return CategoryBounds{Low: 25, Medium: 40, High: 60, VeryHigh: 75}
}

// Validate checks that the cut points ascend strictly within (0,100).
func (b CategoryBounds) Validate() error {
	if !(0 < b.Low && b.Low < b.Medium && b.Medium < b.High && b.High < b.VeryHigh && b.VeryHigh < 100) {
		return &ConfigError{Field: "category_bounds", Reason: "cut points must ascend strictly within (0,100)"}
	}
	return nil
}

// Classify maps a risk score to its category. Scores outside [0,100] surface
// as a RangeError.
func Classify(score float64, bounds CategoryBounds) (RiskCategory, error) {
	if score < 0 || score > 100 {
		return "", &RangeError{Stage: "classify", Value: score}
	}
	switch {
	case score >= bounds.VeryHigh:
		return CategoryVeryHigh, nil
	case score >= bounds.High:
		return CategoryHigh, nil
	case score >= bounds.Medium:
		return CategoryMedium, nil
	case score >= bounds.Low:
		return CategoryLow, nil
	default:
		return CategoryVeryLow, nil
	}
}
