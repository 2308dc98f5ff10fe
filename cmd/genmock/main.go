// Command genmock generates a deterministic sample indicator snapshot for all
// 28 districts, suitable for seeding the source topic or driving the test
// suites. Values follow Malawi's broad climate geography: the Lower Shire
// valley districts carry the worst hazard and poverty profiles, the northern
// highlands the mildest. The snapshot is scored with the actual engine so the
// printed ranking matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/indicator_snapshot.json \
//	  -seed 1 \
//	  -missing-rate 0.02
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

// nsanje anchors the cyclone exposure gradient: cyclones enter from the
// Mozambique channel and lose intensity moving north and inland.
var nsanje = domain.Geo{Lat: -16.92, Lon: 35.26}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the snapshot JSON")
	seed := flag.Int64("seed", 1, "random seed for reproducible noise")
	snapshotID := flag.String("snapshot-id", "sample-snapshot", "snapshot identifier")
	missingRate := flag.Float64("missing-rate", 0, "fraction of cells marked missing, in [0,0.3]")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *missingRate < 0 || *missingRate > 0.3 {
		return fmt.Errorf("-missing-rate must be in [0,0.3]")
	}

	// Fix the clock for a reproducible ProducedAt timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(clockwork.NewRealClock())

	snap := generateSnapshot(*snapshotID, *seed, *missingRate)
	if err := writeJSON(*out, snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log.Printf("wrote snapshot: %s (%d records)", *out, len(snap.Records))

	return printRanking(snap)
}

// indicatorShape describes how one indicator's raw values are synthesized.
// base and span set the scale; southness weights the south-north gradient
// and cyclone weights the distance-to-Nsanje decay.
type indicatorShape struct {
	name      string
	base      float64
	span      float64
	southness float64
	cyclone   float64
	unit      string
}

var shapes = []indicatorShape{
	{name: "rainfall_variability", base: 10, span: 25, southness: 0.7, unit: "cv_percent"},
	{name: "drought_frequency", base: 1, span: 6, southness: 0.8, unit: "events_per_decade"},
	{name: "flood_risk", base: 5, span: 60, southness: 0.9, unit: "index"},
	{name: "temperature_extremes", base: 8, span: 40, southness: 0.85, unit: "days_over_35c"},
	{name: "cyclone_exposure", base: 2, span: 70, cyclone: 1, unit: "index"},
	{name: "exposed_population", base: 50, span: 900, southness: 0.3, unit: "thousands"},
	{name: "agricultural_dependence", base: 55, span: 35, southness: 0.5, unit: "percent"},
	{name: "infrastructure_deficit", base: 20, span: 55, southness: 0.6, unit: "index"},
	{name: "cropland_exposure", base: 10, span: 50, southness: 0.55, unit: "percent"},
	{name: "poverty_rate", base: 35, span: 45, southness: 0.75, unit: "percent"},
	{name: "education_level", base: 75, span: -35, southness: 0.6, unit: "index"},
	{name: "service_access", base: 70, span: -40, southness: 0.65, unit: "index"},
	{name: "local_capacity", base: 60, span: -30, southness: 0.5, unit: "index"},
}

func generateSnapshot(id string, seed int64, missingRate float64) domain.Snapshot {
	rng := rand.New(rand.NewSource(seed))
	snap := domain.Snapshot{
		SnapshotID: id,
		ProducedAt: domain.Now(),
	}

	for _, district := range domain.AllDistricts() {
		centroid := district.Centroid()
		south := southness(centroid)
		cyclone := cycloneDecay(centroid)

		for _, shape := range shapes {
			rec := domain.RawIndicatorRecord{
				District:  district,
				Indicator: shape.name,
				Unit:      shape.unit,
				Source:    "genmock",
				Year:      2025,
			}
			if rng.Float64() < missingRate {
				rec.Missing = true
				snap.Records = append(snap.Records, rec)
				continue
			}

			gradient := shape.southness*south + shape.cyclone*cyclone
			noise := 1 + 0.1*(2*rng.Float64()-1)
			rec.Value = (shape.base + shape.span*gradient) * noise
			snap.Records = append(snap.Records, rec)
		}
	}
	return snap
}

// southness maps a centroid latitude onto [0,1]: 0 at Chitipa in the far
// north, 1 at Nsanje in the far south.
func southness(g domain.Geo) float64 {
	const north, south = -9.70, -16.92
	return (g.Lat - north) / (south - north)
}

// cycloneDecay falls off linearly with great-circle-ish distance from
// Nsanje, reaching zero around 6 degrees out.
func cycloneDecay(g domain.Geo) float64 {
	dist := math.Hypot(g.Lat-nsanje.Lat, g.Lon-nsanje.Lon)
	return math.Max(0, 1-dist/6)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printRanking(snap domain.Snapshot) error {
	table, err := domain.NewIndicatorTable(snap.Records)
	if err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	engine, err := scoring.NewEngine(scoring.DefaultConfig(), slog.Default())
	if err != nil {
		return err
	}
	result, err := engine.ScoreAll(table)
	if err != nil {
		return fmt.Errorf("scoring snapshot: %w", err)
	}

	fmt.Println("\n=== Ranking for updating test assertions ===")
	for _, score := range result.Scores {
		fmt.Printf("%2d. %-12s risk=%6.2f  category=%-9s  H=%.1f E=%.1f AC=%.1f\n",
			score.Rank, score.District, score.Risk, score.Category,
			score.Hazard, score.Exposure, score.AdaptiveCapacity)
	}
	for _, issue := range result.Issues {
		fmt.Printf("    %-12s not scored: %s (%s)\n", issue.District, issue.Message, issue.Stage)
	}
	return nil
}
