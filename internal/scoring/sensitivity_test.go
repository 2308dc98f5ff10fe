package scoring

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
)

func TestNewAnalyzer(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		_, err := NewAnalyzer(DefaultConfig(), nil)
		require.NoError(t, err)
	})

	t.Run("rejects empty scenario list", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scenarios = nil
		_, err := NewAnalyzer(cfg, nil)
		var cerr *domain.ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "scenarios", cerr.Field)
	})

	t.Run("rejects scenario weights off the unit sum", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scenarios = append(cfg.Scenarios, Scenario{
			Name:             "broken",
			ComponentWeights: domain.RiskWeights{Hazard: 0.5, Exposure: 0.3, AdaptiveCapacity: 0.1},
		})
		_, err := NewAnalyzer(cfg, nil)
		var cerr *domain.ConfigError
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("rejects duplicate scenario names", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scenarios = append(cfg.Scenarios, cfg.Scenarios[0])
		_, err := NewAnalyzer(cfg, nil)
		require.Error(t, err)
	})
}

func TestAnalyze(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StabilityTopK = 2
	analyzer, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)

	report, err := analyzer.Analyze(testTable(t))
	require.NoError(t, err)
	require.Len(t, report.Scenarios, 4)
	assert.Equal(t, 2, report.TopK)

	t.Run("scenario names keep config order", func(t *testing.T) {
		var names []string
		for _, sr := range report.Scenarios {
			names = append(names, sr.Scenario)
		}
		assert.Equal(t, []string{"baseline", "hazard_focused", "equity_focused", "equal_weights"}, names)
	})

	t.Run("every scenario ranks every district", func(t *testing.T) {
		for _, sr := range report.Scenarios {
			assert.Len(t, sr.Ranking, len(testDistricts), sr.Scenario)
			assert.Empty(t, sr.Issues, sr.Scenario)
			for i, dr := range sr.Ranking {
				assert.GreaterOrEqual(t, dr.Risk, 0.0)
				assert.LessOrEqual(t, dr.Risk, 100.0)
				if i > 0 {
					assert.LessOrEqual(t, dr.Risk, sr.Ranking[i-1].Risk)
				}
			}
		}
	})

	t.Run("rank history covers all scenarios", func(t *testing.T) {
		for _, district := range testDistricts {
			assert.Len(t, report.Ranks[district], 4, district)
		}
	})

	t.Run("dominant district is robust", func(t *testing.T) {
		// The test table orders districts by a single riskiness factor, so the
		// two top districts stay on top under any weighting.
		assert.Equal(t, []domain.District{"Chikwawa", "Nsanje"}, report.RobustHighRisk)
		assert.Equal(t, []int{1, 1, 1, 1}, report.Ranks["Nsanje"])
	})
}

func TestAnalyzeEmptyTable(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = analyzer.Analyze(nil)
	assert.ErrorContains(t, err, "empty indicator table")
}

func TestAnalyzeScenarioIndicatorOverride(t *testing.T) {
	// A scenario override may reference an indicator the base weight tables
	// never name. Its column must still get normalized from the table, or
	// every district in that scenario degrades to a missing-data issue.
	var records []domain.RawIndicatorRecord
	for i, district := range testDistricts {
		risk := 100 * float64(len(testDistricts)-1-i) / float64(len(testDistricts)-1)
		for _, name := range allIndicators {
			value := risk
			if acFavorable[name] {
				value = 100 - risk
			}
			records = append(records, domain.RawIndicatorRecord{District: district, Indicator: name, Value: value})
		}
		records = append(records, domain.RawIndicatorRecord{District: district, Indicator: "landslide_risk", Value: 100 - risk})
	}
	table, err := domain.NewIndicatorTable(records)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Scenarios = []Scenario{
		{Name: "baseline", ComponentWeights: domain.DefaultRiskWeights()},
		{
			Name:             "landslide_hazard",
			ComponentWeights: domain.DefaultRiskWeights(),
			Hazard:           domain.ComponentWeights{"landslide_risk": {Weight: 1}},
		},
	}
	analyzer, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)

	report, err := analyzer.Analyze(table)
	require.NoError(t, err)
	require.Len(t, report.Scenarios, 2)

	override := report.Scenarios[1]
	assert.Equal(t, "landslide_hazard", override.Scenario)
	assert.Empty(t, override.Issues)
	assert.Len(t, override.Ranking, len(testDistricts))
	for _, district := range testDistricts {
		assert.Len(t, report.Ranks[district], 2, district)
	}
}

func TestMonteCarlo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarlo.Trials = 50
	cfg.MonteCarlo.Seed = 7
	analyzer, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)
	table := testTable(t)

	report, err := analyzer.MonteCarlo(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 50, report.Trials)
	assert.Equal(t, 0.10, report.WeightJitter)
	assert.Equal(t, 0.05, report.BoundJitter)
	require.Len(t, report.Bands, len(testDistricts))

	t.Run("bands stay on scale", func(t *testing.T) {
		for district, band := range report.Bands {
			assert.Equal(t, 50, band.Trials, district)
			assert.GreaterOrEqual(t, band.Min, 0.0, district)
			assert.LessOrEqual(t, band.Max, 100.0, district)
			assert.LessOrEqual(t, band.Min, band.Mean, district)
			assert.LessOrEqual(t, band.Mean, band.Max, district)
			assert.GreaterOrEqual(t, band.StdDev, 0.0, district)
		}
	})

	t.Run("band ordering follows riskiness", func(t *testing.T) {
		assert.Greater(t, report.Bands["Nsanje"].Mean, report.Bands["Mzimba"].Mean)
	})

	t.Run("same seed reproduces the report", func(t *testing.T) {
		again, err := analyzer.MonteCarlo(context.Background(), table)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(report, again))
	})

	t.Run("different seed moves the bands", func(t *testing.T) {
		other := cfg
		other.MonteCarlo.Seed = 8
		analyzer2, err := NewAnalyzer(other, nil)
		require.NoError(t, err)
		again, err := analyzer2.MonteCarlo(context.Background(), table)
		require.NoError(t, err)
		assert.NotEmpty(t, cmp.Diff(report, again))
	})
}

func TestMonteCarloDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarlo.Trials = 0
	analyzer, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)
	_, err = analyzer.MonteCarlo(context.Background(), testTable(t))
	assert.ErrorContains(t, err, "trials is 0")
}

func TestMonteCarloCancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonteCarlo.Trials = 1000
	cfg.MonteCarlo.Workers = 1
	analyzer, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = analyzer.MonteCarlo(ctx, testTable(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPerturbKeepsUnitSums(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig(), nil)
	require.NoError(t, err)

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		cfg := analyzer.perturb(rng)
		require.NoError(t, cfg.ComponentWeights.Validate(), "seed %d", seed)
		require.NoError(t, cfg.Hazard.Validate(domain.ComponentHazard), "seed %d", seed)
		require.NoError(t, cfg.Exposure.Validate(domain.ComponentExposure), "seed %d", seed)
		require.NoError(t, cfg.AdaptiveCapacity.Validate(domain.ComponentAdaptiveCapacity), "seed %d", seed)
		require.NoError(t, cfg.Normalization.Validate(), "seed %d", seed)
		// Invert flags survive perturbation.
		assert.True(t, cfg.AdaptiveCapacity["poverty_rate"].Invert)
	}
}
