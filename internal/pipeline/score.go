package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

// EngineScorer implements Scorer on top of a scoring engine.
type EngineScorer struct {
	engine *scoring.Engine
	logger *slog.Logger
}

// NewScorer wraps a validated engine for use in the pipeline.
func NewScorer(engine *scoring.Engine, logger *slog.Logger) *EngineScorer {
	return &EngineScorer{
		engine: engine,
		logger: logger,
	}
}

func (s *EngineScorer) Score(_ context.Context, snap domain.Snapshot) (*scoring.Result, error) {
	table, err := domain.NewIndicatorTable(snap.Records)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.SnapshotID, err)
	}
	return s.engine.ScoreAll(table)
}
