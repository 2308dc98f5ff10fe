package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scoring service.
type Metrics struct {
	SnapshotsConsumed prometheus.Counter
	ScoresProduced    prometheus.Counter
	ScoringErrors     prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Per-run scoring metrics.
	RunDuration     prometheus.Histogram
	DistrictsPerRun prometheus.Histogram
	DistrictIssues  *prometheus.CounterVec // labels: stage={aggregate hazard,...,compose,classify}

	// Sensitivity analysis metrics.
	SensitivityRuns   prometheus.Counter
	MonteCarloTrials  prometheus.Counter
	AnalysisDurations *prometheus.HistogramVec // labels: kind={scenarios,monte_carlo}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "snapshots_consumed_total",
			Help:      "Total indicator snapshots read from the source topic.",
		}),
		ScoresProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "scores_produced_total",
			Help:      "Total district risk scores written to the sink topic.",
		}),
		ScoringErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "scoring_errors_total",
			Help:      "Total snapshots that failed to score.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_risk",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_risk",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete snapshot scoring run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		DistrictsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_risk",
			Name:      "districts_per_run",
			Help:      "Number of districts scored per snapshot.",
			Buckets:   []float64{1, 5, 10, 15, 20, 25, 28},
		}),
		DistrictIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "district_issues_total",
			Help:      "Districts that could not be scored, by failing stage.",
		}, []string{"stage"}),
		SensitivityRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "sensitivity_runs_total",
			Help:      "Total sensitivity analyses served.",
		}),
		MonteCarloTrials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_risk",
			Name:      "monte_carlo_trials_total",
			Help:      "Total Monte Carlo trials executed.",
		}),
		AnalysisDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_risk",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of sensitivity analyses by kind.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
	}

	prometheus.MustRegister(
		m.SnapshotsConsumed,
		m.ScoresProduced,
		m.ScoringErrors,
		m.PipelineRunning,
		m.RunDuration,
		m.DistrictsPerRun,
		m.DistrictIssues,
		m.SensitivityRuns,
		m.MonteCarloTrials,
		m.AnalysisDurations,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_risk", Name: "snapshots_consumed_total"}),
		ScoresProduced:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_risk", Name: "scores_produced_total"}),
		ScoringErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_risk", Name: "scoring_errors_total"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_risk", Name: "pipeline_running"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_risk", Name: "run_duration_seconds"}),
		DistrictsPerRun:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_risk", Name: "districts_per_run"}),
		DistrictIssues:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_risk", Name: "district_issues_total"}, []string{"stage"}),
		SensitivityRuns:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_risk", Name: "sensitivity_runs_total"}),
		MonteCarloTrials:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_risk", Name: "monte_carlo_trials_total"}),
		AnalysisDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "climate_risk", Name: "analysis_duration_seconds"}, []string{"kind"}),
	}
}
