package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/observability"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

// SnapshotExtractor reads the next raw indicator snapshot from the source.
type SnapshotExtractor interface {
	Extract(ctx context.Context) (domain.RawMessage, error)
}

// Scorer turns one snapshot into a ranked scoring result.
type Scorer interface {
	Score(ctx context.Context, snap domain.Snapshot) (*scoring.Result, error)
}

// ResultLoader writes scored districts to the destination.
type ResultLoader interface {
	LoadBatch(ctx context.Context, scores []domain.RiskScore) error
}

// Pipeline orchestrates the extract-score-load loop. One snapshot is one
// complete scoring run: normalization is table-wide, so a snapshot cannot be
// split across cycles.
type Pipeline struct {
	extractor SnapshotExtractor
	scorer    Scorer
	loader    ResultLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e SnapshotExtractor, s Scorer, l ResultLoader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		scorer:    s,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil if the pipeline has scored at least one
// snapshot, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not scored any snapshots yet")
	}
	return nil
}

// Run executes the scoring loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processSnapshot(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processSnapshot runs one extract-score-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processSnapshot(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract snapshot failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.SnapshotsConsumed.Inc()
	*backoff = 200 * time.Millisecond

	start := time.Now()
	snap, err := domain.ParseSnapshot(raw)
	if err != nil {
		// A snapshot that cannot be parsed will never succeed; skip past it.
		p.logger.Warn("skipping malformed snapshot",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.ScoringErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	result, err := p.scorer.Score(ctx, snap)
	if err != nil {
		p.logger.Warn("skipping unscorable snapshot",
			"error", err,
			"snapshot_id", snap.SnapshotID,
			"offset", raw.Offset,
		)
		p.metrics.ScoringErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	for _, issue := range result.Issues {
		p.metrics.DistrictIssues.WithLabelValues(issue.Stage).Inc()
	}

	if err := p.loader.LoadBatch(ctx, result.Scores); err != nil {
		// Load failures are retryable; the uncommitted snapshot is re-read
		// after the backoff.
		p.logger.Error("load scores failed", "error", err, "snapshot_id", snap.SnapshotID)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ScoresProduced.Add(float64(len(result.Scores)))
	p.metrics.DistrictsPerRun.Observe(float64(len(result.Scores)))
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	p.commitOffset(ctx, raw)
	p.ready.Store(true)

	p.logger.Info("snapshot scored",
		"snapshot_id", snap.SnapshotID,
		"districts", len(result.Scores),
		"issues", len(result.Issues),
	)
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
