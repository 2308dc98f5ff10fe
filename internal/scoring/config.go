package scoring

import (
	"fmt"
	"runtime"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
)

// Config is the full scoring methodology for one engine instance. The zero
// value is not usable; start from DefaultConfig and override fields, or load
// a YAML document over the defaults.
type Config struct {
	Mode             domain.AggregationMode     `yaml:"mode" json:"mode"`
	Normalization    domain.NormalizationParams `yaml:"normalization" json:"normalization"`
	ComponentWeights domain.RiskWeights         `yaml:"component_weights" json:"component_weights"`
	Hazard           domain.ComponentWeights    `yaml:"hazard_weights" json:"hazard_weights"`
	Exposure         domain.ComponentWeights    `yaml:"exposure_weights" json:"exposure_weights"`
	AdaptiveCapacity domain.ComponentWeights    `yaml:"adaptive_capacity_weights" json:"adaptive_capacity_weights"`
	CategoryBounds   domain.CategoryBounds      `yaml:"category_bounds" json:"category_bounds"`
	MissingData      domain.MissingPolicy       `yaml:"missing_data" json:"missing_data"`
	Scenarios        []Scenario                 `yaml:"scenarios" json:"scenarios"`
	StabilityTopK    int                        `yaml:"stability_top_k" json:"stability_top_k"`
	MonteCarlo       MonteCarloConfig           `yaml:"monte_carlo" json:"monte_carlo"`
}

// Scenario is one alternative weighting used by the sensitivity analyzer.
// Component-level weights are required; sub-indicator overrides are optional
// and fall back to the base configuration when nil.
type Scenario struct {
	Name             string                  `yaml:"name" json:"name"`
	ComponentWeights domain.RiskWeights      `yaml:"component_weights" json:"component_weights"`
	Hazard           domain.ComponentWeights `yaml:"hazard_weights,omitempty" json:"hazard_weights,omitempty"`
	Exposure         domain.ComponentWeights `yaml:"exposure_weights,omitempty" json:"exposure_weights,omitempty"`
	AdaptiveCapacity domain.ComponentWeights `yaml:"adaptive_capacity_weights,omitempty" json:"adaptive_capacity_weights,omitempty"`
}

// MonteCarloConfig bounds the uncertainty simulation. Weight and bound
// jitters are relative half-widths of a uniform perturbation, e.g. 0.10
// draws each weight from [0.9w, 1.1w] before re-normalization. Workers
// defaults to GOMAXPROCS when zero.
type MonteCarloConfig struct {
	Trials       int     `yaml:"trials" json:"trials"`
	WeightJitter float64 `yaml:"weight_jitter" json:"weight_jitter"`
	BoundJitter  float64 `yaml:"bound_jitter" json:"bound_jitter"`
	Seed         int64   `yaml:"seed" json:"seed"`
	Workers      int     `yaml:"workers" json:"workers"`
}

func (m MonteCarloConfig) workerCount() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// DefaultConfig returns the baseline methodology: multiplicative composition,
// robust 5th/95th percentile normalization, the published component and
// sub-indicator weight tables, and the four standard sensitivity scenarios.
func DefaultConfig() Config {
	return Config{
		Mode:             domain.ModeMultiplicative,
		Normalization:    domain.DefaultNormalizationParams(),
		ComponentWeights: domain.DefaultRiskWeights(),
		Hazard: domain.ComponentWeights{
			"rainfall_variability": {Weight: 0.20},
			"drought_frequency":    {Weight: 0.20},
			"flood_risk":           {Weight: 0.25},
			"temperature_extremes": {Weight: 0.20},
			"cyclone_exposure":     {Weight: 0.15},
		},
		Exposure: domain.ComponentWeights{
			"exposed_population":      {Weight: 0.35},
			"agricultural_dependence": {Weight: 0.35},
			"infrastructure_deficit":  {Weight: 0.20},
			"cropland_exposure":       {Weight: 0.10},
		},
		AdaptiveCapacity: domain.ComponentWeights{
			"poverty_rate":    {Weight: 0.35, Invert: true},
			"education_level": {Weight: 0.25},
			"service_access":  {Weight: 0.25},
			"local_capacity":  {Weight: 0.15},
		},
		CategoryBounds: domain.DefaultCategoryBounds(),
		MissingData:    domain.DefaultMissingPolicy(),
		Scenarios: []Scenario{
			{Name: "baseline", ComponentWeights: domain.RiskWeights{Hazard: 0.40, Exposure: 0.30, AdaptiveCapacity: 0.30}},
			{Name: "hazard_focused", ComponentWeights: domain.RiskWeights{Hazard: 0.50, Exposure: 0.25, AdaptiveCapacity: 0.25}},
			{Name: "equity_focused", ComponentWeights: domain.RiskWeights{Hazard: 0.30, Exposure: 0.30, AdaptiveCapacity: 0.40}},
			{Name: "equal_weights", ComponentWeights: domain.RiskWeights{Hazard: 0.333, Exposure: 0.333, AdaptiveCapacity: 0.334}},
		},
		StabilityTopK: 10,
		MonteCarlo: MonteCarloConfig{
			Trials:       500,
			WeightJitter: 0.10,
			BoundJitter:  0.05,
			Seed:         1,
		},
	}
}

// Validate checks every weight table, bound, and simulation parameter.
// Engines and analyzers refuse configurations that do not pass.
func (c Config) Validate() error {
	if err := c.Mode.Validate(); err != nil {
		return err
	}
	if err := c.Normalization.Validate(); err != nil {
		return err
	}
	if err := c.ComponentWeights.Validate(); err != nil {
		return err
	}
	if err := c.Hazard.Validate(domain.ComponentHazard); err != nil {
		return err
	}
	if err := c.Exposure.Validate(domain.ComponentExposure); err != nil {
		return err
	}
	if err := c.AdaptiveCapacity.Validate(domain.ComponentAdaptiveCapacity); err != nil {
		return err
	}
	if err := c.CategoryBounds.Validate(); err != nil {
		return err
	}
	if err := c.MissingData.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		if sc.Name == "" {
			return &domain.ConfigError{Field: fmt.Sprintf("scenarios[%d].name", i), Reason: "must not be empty"}
		}
		if seen[sc.Name] {
			return &domain.ConfigError{Field: "scenarios", Reason: fmt.Sprintf("duplicate scenario name %q", sc.Name)}
		}
		seen[sc.Name] = true
		if err := sc.ComponentWeights.Validate(); err != nil {
			return &domain.ConfigError{Field: "scenarios." + sc.Name, Reason: err.Error()}
		}
		for key, w := range map[domain.ComponentKey]domain.ComponentWeights{
			domain.ComponentHazard:           sc.Hazard,
			domain.ComponentExposure:         sc.Exposure,
			domain.ComponentAdaptiveCapacity: sc.AdaptiveCapacity,
		} {
			if w == nil {
				continue
			}
			if err := w.Validate(key); err != nil {
				return &domain.ConfigError{Field: "scenarios." + sc.Name, Reason: err.Error()}
			}
		}
	}
	if c.StabilityTopK <= 0 {
		return &domain.ConfigError{Field: "stability_top_k", Reason: "must be positive"}
	}
	if c.MonteCarlo.Trials < 0 {
		return &domain.ConfigError{Field: "monte_carlo.trials", Reason: "must not be negative"}
	}
	if c.MonteCarlo.WeightJitter < 0 || c.MonteCarlo.WeightJitter > 0.5 {
		return &domain.ConfigError{Field: "monte_carlo.weight_jitter", Reason: "must be in [0, 0.5]"}
	}
	if c.MonteCarlo.BoundJitter < 0 || c.MonteCarlo.BoundJitter > 0.5 {
		return &domain.ConfigError{Field: "monte_carlo.bound_jitter", Reason: "must be in [0, 0.5]"}
	}
	if c.MonteCarlo.Workers < 0 {
		return &domain.ConfigError{Field: "monte_carlo.workers", Reason: "must not be negative"}
	}
	return nil
}

// componentWeights returns the three sub-indicator weight tables keyed by
// component, with a scenario's overrides applied when present.
func (c Config) componentWeights(sc *Scenario) map[domain.ComponentKey]domain.ComponentWeights {
	out := map[domain.ComponentKey]domain.ComponentWeights{
		domain.ComponentHazard:           c.Hazard,
		domain.ComponentExposure:         c.Exposure,
		domain.ComponentAdaptiveCapacity: c.AdaptiveCapacity,
	}
	if sc == nil {
		return out
	}
	if sc.Hazard != nil {
		out[domain.ComponentHazard] = sc.Hazard
	}
	if sc.Exposure != nil {
		out[domain.ComponentExposure] = sc.Exposure
	}
	if sc.AdaptiveCapacity != nil {
		out[domain.ComponentAdaptiveCapacity] = sc.AdaptiveCapacity
	}
	return out
}
