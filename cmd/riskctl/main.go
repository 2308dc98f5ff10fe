// Command riskctl scores indicator snapshots from the command line, without
// Kafka or a running service. It shares the engine, analyzer, and YAML
// methodology loading with the riskd daemon, so its output matches pipeline
// behavior exactly.
//
// Usage:
//
//	riskctl score --input snapshot.json
//	riskctl score --input snapshot.json --mode additive --json
//	riskctl sensitivity --input snapshot.json --monte-carlo
//	riskctl check-config --config scoring.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-risk-scoring/internal/config"
	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

var (
	configPath string
	inputPath  string
	modeFlag   string
	jsonOut    bool
	monteCarlo bool
)

func main() {
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Score Malawi district climate risk from indicator snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to scoring methodology YAML (defaults built in)")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score every district in a snapshot and print the ranking",
		RunE:  runScore,
	}
	scoreCmd.Flags().StringVar(&inputPath, "input", "", "snapshot JSON file (required)")
	scoreCmd.Flags().StringVar(&modeFlag, "mode", "", "override aggregation mode (multiplicative or additive)")
	scoreCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full result as JSON")
	_ = scoreCmd.MarkFlagRequired("input")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Probe rank stability across weighting scenarios",
		RunE:  runSensitivity,
	}
	sensitivityCmd.Flags().StringVar(&inputPath, "input", "", "snapshot JSON file (required)")
	sensitivityCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full report as JSON")
	sensitivityCmd.Flags().BoolVar(&monteCarlo, "monte-carlo", false, "also run the Monte Carlo uncertainty simulation")
	_ = sensitivityCmd.MarkFlagRequired("input")

	checkCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate a scoring methodology file",
		RunE:  runCheckConfig,
	}

	root.AddCommand(scoreCmd, sensitivityCmd, checkCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "riskctl: %v\n", err)
		os.Exit(1)
	}
}

func loadTable() (*domain.IndicatorTable, domain.Snapshot, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, domain.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", inputPath, err)
	}
	table, err := domain.NewIndicatorTable(snap.Records)
	if err != nil {
		return nil, domain.Snapshot{}, fmt.Errorf("snapshot %s: %w", inputPath, err)
	}
	return table, snap, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func runScore(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadScoring(configPath)
	if err != nil {
		return err
	}
	if modeFlag != "" {
		cfg.Mode = domain.AggregationMode(modeFlag)
	}

	table, snap, err := loadTable()
	if err != nil {
		return err
	}
	engine, err := scoring.NewEngine(cfg, quietLogger())
	if err != nil {
		return err
	}
	result, err := engine.ScoreAll(table)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(result)
	}

	fmt.Printf("snapshot %s: %d districts scored, %d issues (mode=%s)\n\n",
		snap.SnapshotID, len(result.Scores), len(result.Issues), result.Mode)
	fmt.Printf("%4s  %-12s %7s  %-9s  %7s %9s %5s\n",
		"rank", "district", "risk", "category", "hazard", "exposure", "ac")
	for _, s := range result.Scores {
		fmt.Printf("%4d  %-12s %7.2f  %-9s  %7.1f %9.1f %5.1f\n",
			s.Rank, s.District, s.Risk, s.Category, s.Hazard, s.Exposure, s.AdaptiveCapacity)
	}
	for _, issue := range result.Issues {
		fmt.Printf("\n  %s not scored: %s (%s)\n", issue.District, issue.Message, issue.Stage)
	}
	return nil
}

func runSensitivity(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadScoring(configPath)
	if err != nil {
		return err
	}
	table, snap, err := loadTable()
	if err != nil {
		return err
	}
	analyzer, err := scoring.NewAnalyzer(cfg, quietLogger())
	if err != nil {
		return err
	}

	stability, err := analyzer.Analyze(table)
	if err != nil {
		return err
	}

	var uncertainty *scoring.UncertaintyReport
	if monteCarlo {
		uncertainty, err = analyzer.MonteCarlo(context.Background(), table)
		if err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(map[string]any{"stability": stability, "uncertainty": uncertainty})
	}

	fmt.Printf("snapshot %s: %d scenarios, top-%d stability\n\n",
		snap.SnapshotID, len(stability.Scenarios), stability.TopK)
	for _, sr := range stability.Scenarios {
		top := sr.Ranking
		if len(top) > stability.TopK {
			top = top[:stability.TopK]
		}
		fmt.Printf("%s:\n", sr.Scenario)
		for _, dr := range top {
			fmt.Printf("  %2d. %-12s %6.2f\n", dr.Rank, dr.District, dr.Risk)
		}
	}

	fmt.Printf("\nrobustly high risk (top-%d in every scenario):", stability.TopK)
	if len(stability.RobustHighRisk) == 0 {
		fmt.Print(" none")
	}
	for _, d := range stability.RobustHighRisk {
		fmt.Printf(" %s", d)
	}
	fmt.Println()

	if uncertainty != nil {
		fmt.Printf("\nmonte carlo (%d trials, weight jitter ±%.0f%%, bound jitter ±%.0f%%):\n",
			uncertainty.Trials, uncertainty.WeightJitter*100, uncertainty.BoundJitter*100)
		for _, district := range domain.AllDistricts() {
			band, ok := uncertainty.Bands[district]
			if !ok {
				continue
			}
			fmt.Printf("  %-12s mean=%6.2f sd=%5.2f range=[%.2f, %.2f]\n",
				district, band.Mean, band.StdDev, band.Min, band.Max)
		}
	}
	return nil
}

func runCheckConfig(_ *cobra.Command, _ []string) error {
	fmt.Println("=== Scoring Methodology Validation ===")
	fmt.Println()

	cfg, err := config.LoadScoring(configPath)
	status := "\033[32mPASS\033[0m"
	if err != nil {
		status = "\033[31mFAIL\033[0m"
	}
	source := configPath
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Printf("  %-42s %s\n", source, status)

	if err != nil {
		fmt.Printf("\n  %v\n", err)
		return fmt.Errorf("validation failed")
	}

	fmt.Printf("\nmode=%s normalization=%s[%g,%g] scenarios=%d top_k=%d mc_trials=%d\n",
		cfg.Mode, cfg.Normalization.Method,
		cfg.Normalization.PercentileLow, cfg.Normalization.PercentileHigh,
		len(cfg.Scenarios), cfg.StabilityTopK, cfg.MonteCarlo.Trials)
	fmt.Println("\nAll validations passed.")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
