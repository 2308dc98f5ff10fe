package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
)

// Analyzer probes how stable the risk ranking is under alternative weightings
// and random perturbation. It shares the engine's configuration and is safe
// for concurrent use.
type Analyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewAnalyzer validates the configuration and returns a ready analyzer.
func NewAnalyzer(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	if len(cfg.Scenarios) == 0 {
		return nil, &domain.ConfigError{Field: "scenarios", Reason: "sensitivity analysis needs at least one scenario"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}, nil
}

// DistrictRank is one district's position within a scenario's ranking.
type DistrictRank struct {
	District domain.District `json:"district"`
	Risk     float64         `json:"risk"`
	Rank     int             `json:"rank"`
}

// ScenarioRanking is the full ranking under one scenario's weights.
type ScenarioRanking struct {
	Scenario string         `json:"scenario"`
	Ranking  []DistrictRank `json:"ranking"`
	Issues   []domain.Issue `json:"issues,omitempty"`
}

// StabilityReport summarizes rank stability across scenarios. Ranks holds
// each district's rank per scenario, in scenario order; RobustHighRisk lists
// the districts that place in the top K under every scenario.
type StabilityReport struct {
	TopK           int                       `json:"top_k"`
	Scenarios      []ScenarioRanking         `json:"scenarios"`
	Ranks          map[domain.District][]int `json:"ranks"`
	RobustHighRisk []domain.District         `json:"robustly_high_risk"`
}

// Analyze re-scores the table under every configured scenario. Normalized
// indicator values are computed once from the base configuration and held
// fixed, so scenarios isolate the effect of the weights alone.
func (a *Analyzer) Analyze(table *domain.IndicatorTable) (*StabilityReport, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("sensitivity: empty indicator table")
	}

	weightSets := []map[domain.ComponentKey]domain.ComponentWeights{a.cfg.componentWeights(nil)}
	for i := range a.cfg.Scenarios {
		weightSets = append(weightSets, a.cfg.componentWeights(&a.cfg.Scenarios[i]))
	}
	normalized, err := normalizeColumns(table, a.cfg.Normalization, weightSets...)
	if err != nil {
		return nil, fmt.Errorf("sensitivity: %w", err)
	}

	report := &StabilityReport{
		TopK:  a.cfg.StabilityTopK,
		Ranks: make(map[domain.District][]int),
	}

	for i := range a.cfg.Scenarios {
		sc := a.cfg.Scenarios[i]
		cfg := a.cfg
		cfg.ComponentWeights = sc.ComponentWeights
		weights := a.cfg.componentWeights(&sc)

		ranking := ScenarioRanking{Scenario: sc.Name}
		var scores []domain.RiskScore
		for _, district := range table.Districts() {
			score, issue := scoreDistrict(district, normalized, weights, cfg)
			if issue != nil {
				ranking.Issues = append(ranking.Issues, *issue)
				continue
			}
			scores = append(scores, score)
		}
		rankScores(scores)
		for _, s := range scores {
			ranking.Ranking = append(ranking.Ranking, DistrictRank{District: s.District, Risk: s.Risk, Rank: s.Rank})
		}
		report.Scenarios = append(report.Scenarios, ranking)
	}

	// A district only counts toward stability when every scenario ranked it.
	counts := make(map[domain.District]int)
	for _, sr := range report.Scenarios {
		for _, dr := range sr.Ranking {
			counts[dr.District]++
			report.Ranks[dr.District] = append(report.Ranks[dr.District], dr.Rank)
		}
	}
	for district, ranks := range report.Ranks {
		if counts[district] != len(report.Scenarios) {
			continue
		}
		robust := true
		for _, r := range ranks {
			if r > a.cfg.StabilityTopK {
				robust = false
				break
			}
		}
		if robust {
			report.RobustHighRisk = append(report.RobustHighRisk, district)
		}
	}
	sort.Slice(report.RobustHighRisk, func(i, j int) bool {
		return report.RobustHighRisk[i] < report.RobustHighRisk[j]
	})

	return report, nil
}

// UncertaintyBand is one district's risk distribution across trials.
type UncertaintyBand struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Trials int     `json:"trials"`
}

// UncertaintyReport is the outcome of a Monte Carlo run. Bands only include
// districts that scored in at least one trial; a district's Trials field
// counts the trials where it produced a score.
type UncertaintyReport struct {
	Trials       int                                 `json:"trials"`
	WeightJitter float64                             `json:"weight_jitter"`
	BoundJitter  float64                             `json:"bound_jitter"`
	Bands        map[domain.District]UncertaintyBand `json:"bands"`
}

// MonteCarlo re-scores the table under randomly perturbed weights and
// normalization bounds. Each trial seeds its own generator from the
// configured seed plus the trial index, so runs are reproducible regardless
// of worker scheduling.
func (a *Analyzer) MonteCarlo(ctx context.Context, table *domain.IndicatorTable) (*UncertaintyReport, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("sensitivity: empty indicator table")
	}
	trials := a.cfg.MonteCarlo.Trials
	if trials == 0 {
		return nil, fmt.Errorf("sensitivity: monte carlo disabled (trials is 0)")
	}

	risks := make([]map[domain.District]float64, trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MonteCarlo.workerCount())
	for trial := 0; trial < trials; trial++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(a.cfg.MonteCarlo.Seed + int64(trial)))
			cfg := a.perturb(rng)
			weights := cfg.componentWeights(nil)
			normalized, err := normalizeColumns(table, cfg.Normalization, weights)
			if err != nil {
				return err
			}

			out := make(map[domain.District]float64, table.Len())
			for _, district := range table.Districts() {
				score, issue := scoreDistrict(district, normalized, weights, cfg)
				if issue != nil {
					continue
				}
				out[district] = score.Risk
			}
			risks[trial] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}

	report := &UncertaintyReport{
		Trials:       trials,
		WeightJitter: a.cfg.MonteCarlo.WeightJitter,
		BoundJitter:  a.cfg.MonteCarlo.BoundJitter,
		Bands:        make(map[domain.District]UncertaintyBand),
	}
	for _, district := range table.Districts() {
		var values []float64
		for _, trial := range risks {
			if v, ok := trial[district]; ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		report.Bands[district] = summarize(values)
	}
	return report, nil
}

// perturb returns a copy of the configuration with every weight drawn
// uniformly within the jitter band and re-normalized to sum to one, and the
// percentile bounds nudged within their own band.
func (a *Analyzer) perturb(rng *rand.Rand) Config {
	cfg := a.cfg
	wj := cfg.MonteCarlo.WeightJitter

	jitter := func(w float64, width float64) float64 {
		return w * (1 + width*(2*rng.Float64()-1))
	}

	rw := cfg.ComponentWeights
	h, e, ac := jitter(rw.Hazard, wj), jitter(rw.Exposure, wj), jitter(rw.AdaptiveCapacity, wj)
	sum := h + e + ac
	cfg.ComponentWeights = domain.RiskWeights{Hazard: h / sum, Exposure: e / sum, AdaptiveCapacity: ac / sum}

	perturbGroup := func(group domain.ComponentWeights) domain.ComponentWeights {
		out := make(domain.ComponentWeights, len(group))
		total := 0.0
		for name, sw := range group {
			w := jitter(sw.Weight, wj)
			out[name] = domain.SubIndicatorWeight{Weight: w, Invert: sw.Invert}
			total += w
		}
		for name, sw := range out {
			sw.Weight /= total
			out[name] = sw
		}
		return out
	}
	cfg.Hazard = perturbGroup(cfg.Hazard)
	cfg.Exposure = perturbGroup(cfg.Exposure)
	cfg.AdaptiveCapacity = perturbGroup(cfg.AdaptiveCapacity)

	bj := cfg.MonteCarlo.BoundJitter
	lo := math.Max(0, jitter(cfg.Normalization.PercentileLow, bj))
	hi := math.Min(100, jitter(cfg.Normalization.PercentileHigh, bj))
	// Narrow base bounds can cross after jitter; keep the originals then.
	if lo < hi {
		cfg.Normalization.PercentileLow = lo
		cfg.Normalization.PercentileHigh = hi
	}
	return cfg
}

func summarize(values []float64) UncertaintyBand {
	band := UncertaintyBand{Min: values[0], Max: values[0], Trials: len(values)}
	var sum float64
	for _, v := range values {
		sum += v
		band.Min = math.Min(band.Min, v)
		band.Max = math.Max(band.Max, v)
	}
	band.Mean = sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - band.Mean
		sq += d * d
	}
	band.StdDev = math.Sqrt(sq / float64(len(values)))
	return band
}
