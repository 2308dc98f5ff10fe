package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/observability"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and synchronous scoring
// endpoints. Synchronous scoring serves ad-hoc what-if requests; the Kafka
// pipeline remains the production path.
type Server struct {
	httpServer *http.Server
	cfg        scoring.Config
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with operational and scoring routes.
func NewServer(addr string, cfg scoring.Config, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/score", s.handleScore)
	mux.HandleFunc("POST /v1/sensitivity", s.handleSensitivity)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// scoreRequest carries an ad-hoc indicator table, with an optional
// aggregation mode override for comparing the two composition formulas.
type scoreRequest struct {
	SnapshotID string                      `json:"snapshot_id,omitempty"`
	Records    []domain.RawIndicatorRecord `json:"records"`
	Mode       domain.AggregationMode      `json:"mode,omitempty"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, table, ok := s.decodeTable(w, r)
	if !ok {
		return
	}

	cfg := s.cfg
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	engine, err := scoring.NewEngine(cfg, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result, err := engine.ScoreAll(table)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	s.metrics.DistrictsPerRun.Observe(float64(len(result.Scores)))
	for _, issue := range result.Issues {
		s.metrics.DistrictIssues.WithLabelValues(issue.Stage).Inc()
	}

	writeJSON(w, http.StatusOK, result)
}

// sensitivityRequest carries an ad-hoc indicator table and, optionally, the
// caller's own weighting scenarios. When Scenarios is empty the configured
// scenario set applies.
type sensitivityRequest struct {
	SnapshotID        string                      `json:"snapshot_id,omitempty"`
	Records           []domain.RawIndicatorRecord `json:"records"`
	Scenarios         []scoring.Scenario          `json:"scenarios,omitempty"`
	IncludeMonteCarlo bool                        `json:"include_monte_carlo,omitempty"`
}

type sensitivityResponse struct {
	Stability   *scoring.StabilityReport   `json:"stability"`
	Uncertainty *scoring.UncertaintyReport `json:"uncertainty,omitempty"`
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	table, err := domain.NewIndicatorTable(req.Records)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := s.cfg
	if len(req.Scenarios) > 0 {
		cfg.Scenarios = req.Scenarios
	}
	analyzer, err := scoring.NewAnalyzer(cfg, s.logger)
	if err != nil {
		// Scenario validation failures are the caller's input; everything
		// else means the server's own config regressed.
		status := http.StatusInternalServerError
		if len(req.Scenarios) > 0 {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	start := time.Now()
	stability, err := analyzer.Analyze(table)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.metrics.SensitivityRuns.Inc()
	s.metrics.AnalysisDurations.WithLabelValues("scenarios").Observe(time.Since(start).Seconds())

	resp := sensitivityResponse{Stability: stability}
	if req.IncludeMonteCarlo {
		start = time.Now()
		uncertainty, err := analyzer.MonteCarlo(r.Context(), table)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.metrics.MonteCarloTrials.Add(float64(uncertainty.Trials))
		s.metrics.AnalysisDurations.WithLabelValues("monte_carlo").Observe(time.Since(start).Seconds())
		resp.Uncertainty = uncertainty
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeTable parses the request body and builds an indicator table,
// answering 400 on any input problem.
func (s *Server) decodeTable(w http.ResponseWriter, r *http.Request) (scoreRequest, *domain.IndicatorTable, bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return req, nil, false
	}
	table, err := domain.NewIndicatorTable(req.Records)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return req, nil, false
	}
	return req, table, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	var cerr *domain.ConfigError
	if errors.As(err, &cerr) {
		writeJSON(w, status, map[string]string{"error": cerr.Error(), "field": cerr.Field})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
