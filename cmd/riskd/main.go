package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-risk-scoring/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/climate-risk-scoring/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-scoring/internal/config"
	"github.com/couchcryptid/climate-risk-scoring/internal/observability"
	"github.com/couchcryptid/climate-risk-scoring/internal/pipeline"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	scoringCfg, err := config.LoadScoring(cfg.ScoringConfigPath)
	if err != nil {
		logger.Error("failed to load scoring config", "error", err)
		os.Exit(1)
	}

	engine, err := scoring.NewEngine(scoringCfg, logger)
	if err != nil {
		logger.Error("failed to build scoring engine", "error", err)
		os.Exit(1)
	}
	logger.Info("scoring engine ready",
		"mode", scoringCfg.Mode,
		"scenarios", len(scoringCfg.Scenarios),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	scorer := pipeline.NewScorer(engine, logger)

	p := pipeline.New(reader, scorer, writer, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, scoringCfg, p, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scoring pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
