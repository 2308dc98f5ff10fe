package scoring

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
)

// Engine scores a full indicator table against one configuration. It is
// stateless and safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the engine's validated configuration.
func (e *Engine) Config() Config { return e.cfg }

// Result is one complete scoring run: every district that produced a score,
// ranked by descending risk, plus the issues for districts that could not be
// scored. A district appears in exactly one of the two lists.
type Result struct {
	Scores   []domain.RiskScore     `json:"scores"`
	Issues   []domain.Issue         `json:"issues,omitempty"`
	Mode     domain.AggregationMode `json:"mode"`
	ScoredAt time.Time              `json:"scored_at"`
}

// ScoreAll normalizes every referenced indicator column across the table,
// aggregates the three components per district, composes and classifies the
// final score, and ranks the results. Districts that fail a stage are
// reported as Issues rather than failing the run.
func (e *Engine) ScoreAll(table *domain.IndicatorTable) (*Result, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("score: empty indicator table")
	}

	weights := e.cfg.componentWeights(nil)
	normalized, err := normalizeColumns(table, e.cfg.Normalization, weights)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	scoredAt := domain.Now()

	result := &Result{Mode: e.cfg.Mode, ScoredAt: scoredAt}
	for _, district := range table.Districts() {
		score, issue := scoreDistrict(district, normalized, weights, e.cfg)
		if issue != nil {
			e.logger.Warn("district not scored",
				slog.String("district", string(district)),
				slog.String("stage", issue.Stage),
				slog.String("reason", issue.Message))
			result.Issues = append(result.Issues, *issue)
			continue
		}
		score.Mode = e.cfg.Mode
		score.ScoredAt = scoredAt
		score.Centroid = district.Centroid()
		result.Scores = append(result.Scores, score)
	}

	rankScores(result.Scores)
	return result, nil
}

// normalizeColumns scores each indicator column referenced by any of the
// given weight tables across all districts at once. Normalization is
// table-wide: a district's normalized value depends on the whole column's
// distribution. Callers with scenario overrides pass every weight set so
// indicators unique to an override get a column too.
func normalizeColumns(table *domain.IndicatorTable, params domain.NormalizationParams, weightSets ...map[domain.ComponentKey]domain.ComponentWeights) (map[string]map[domain.District]float64, error) {
	out := make(map[string]map[domain.District]float64)
	for _, weights := range weightSets {
		for _, group := range weights {
			for _, name := range group.Indicators() {
				if _, done := out[name]; done {
					continue
				}
				col, err := domain.Normalize(table.Column(name), params)
				if err != nil {
					return nil, fmt.Errorf("normalize %s: %w", name, err)
				}
				out[name] = col
			}
		}
	}
	return out, nil
}

// scoreDistrict runs one district through aggregate, compose, and classify
// using already-normalized columns. cfg supplies the mode, component
// weights, category bounds, and missing-data policy.
func scoreDistrict(district domain.District, normalized map[string]map[domain.District]float64, weights map[domain.ComponentKey]domain.ComponentWeights, cfg Config) (domain.RiskScore, *domain.Issue) {
	components := make(map[domain.ComponentKey]float64, len(weights))
	for _, key := range []domain.ComponentKey{domain.ComponentHazard, domain.ComponentExposure, domain.ComponentAdaptiveCapacity} {
		group := weights[key]
		sub := make(map[string]float64, len(group))
		for _, name := range group.Indicators() {
			if v, ok := normalized[name][district]; ok {
				sub[name] = v
			}
		}
		score, err := domain.Aggregate(district, key, sub, group, cfg.MissingData)
		if err != nil {
			return domain.RiskScore{}, &domain.Issue{District: district, Stage: "aggregate " + string(key), Message: err.Error()}
		}
		components[key] = score
	}

	risk, err := domain.Compose(
		components[domain.ComponentHazard],
		components[domain.ComponentExposure],
		components[domain.ComponentAdaptiveCapacity],
		cfg.Mode, cfg.ComponentWeights)
	if err != nil {
		return domain.RiskScore{}, &domain.Issue{District: district, Stage: "compose", Message: err.Error()}
	}

	category, err := domain.Classify(risk, cfg.CategoryBounds)
	if err != nil {
		return domain.RiskScore{}, &domain.Issue{District: district, Stage: "classify", Message: err.Error()}
	}

	return domain.RiskScore{
		District:         district,
		Risk:             risk,
		Category:         category,
		Hazard:           components[domain.ComponentHazard],
		Exposure:         components[domain.ComponentExposure],
		AdaptiveCapacity: components[domain.ComponentAdaptiveCapacity],
		Vulnerability:    100 - components[domain.ComponentAdaptiveCapacity],
	}, nil
}

// rankScores sorts by descending risk, then district name for stable output,
// and assigns competition ranks: districts with equal risk share a rank and
// the next distinct risk skips past them.
func rankScores(scores []domain.RiskScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Risk != scores[j].Risk {
			return scores[i].Risk > scores[j].Risk
		}
		return scores[i].District < scores[j].District
	})
	for i := range scores {
		if i > 0 && scores[i].Risk == scores[i-1].Risk {
			scores[i].Rank = scores[i-1].Rank
			continue
		}
		scores[i].Rank = i + 1
	}
}
