package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

// LoadScoring reads the scoring methodology from a YAML file, layered over
// the built-in defaults so a file only needs to state what it changes. An
// empty path returns the defaults unchanged.
//
// Weight tables are replaced wholesale when their key is present; decoding
// them over the default maps would merge entries and silently break the
// unit-sum invariant.
func LoadScoring(path string) (scoring.Config, error) {
	cfg := scoring.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return scoring.Config{}, fmt.Errorf("read scoring config: %w", err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return scoring.Config{}, fmt.Errorf("parse scoring config %s: %w", path, err)
	}
	for key, node := range doc {
		if err := applyOverride(&cfg, key, node); err != nil {
			return scoring.Config{}, fmt.Errorf("parse scoring config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return scoring.Config{}, fmt.Errorf("scoring config %s: %w", path, err)
	}
	return cfg, nil
}

func applyOverride(cfg *scoring.Config, key string, node yaml.Node) error {
	switch key {
	case "mode":
		return node.Decode(&cfg.Mode)
	case "normalization":
		return node.Decode(&cfg.Normalization)
	case "component_weights":
		return node.Decode(&cfg.ComponentWeights)
	case "hazard_weights":
		cfg.Hazard = nil
		return node.Decode(&cfg.Hazard)
	case "exposure_weights":
		cfg.Exposure = nil
		return node.Decode(&cfg.Exposure)
	case "adaptive_capacity_weights":
		cfg.AdaptiveCapacity = nil
		return node.Decode(&cfg.AdaptiveCapacity)
	case "category_bounds":
		return node.Decode(&cfg.CategoryBounds)
	case "missing_data":
		return node.Decode(&cfg.MissingData)
	case "scenarios":
		cfg.Scenarios = nil
		return node.Decode(&cfg.Scenarios)
	case "stability_top_k":
		return node.Decode(&cfg.StabilityTopK)
	case "monte_carlo":
		return node.Decode(&cfg.MonteCarlo)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
}
