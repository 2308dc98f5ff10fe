package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-risk-scoring/internal/adapter/httpapi"
	"github.com/couchcryptid/climate-risk-scoring/internal/domain"
	"github.com/couchcryptid/climate-risk-scoring/internal/observability"
	"github.com/couchcryptid/climate-risk-scoring/internal/scoring"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpapi.Server {
	cfg := scoring.DefaultConfig()
	cfg.MonteCarlo.Trials = 20
	return httpapi.NewServer(":0", cfg, &mockReadiness{err: readyErr}, observability.NewMetricsForTesting(), slog.Default())
}

var testIndicators = []string{
	"rainfall_variability", "drought_frequency", "flood_risk", "temperature_extremes", "cyclone_exposure",
	"exposed_population", "agricultural_dependence", "infrastructure_deficit", "cropland_exposure",
	"poverty_rate", "education_level", "service_access", "local_capacity",
}

func testRecords(t *testing.T) []domain.RawIndicatorRecord {
	t.Helper()
	var records []domain.RawIndicatorRecord
	for i, district := range []domain.District{"Nsanje", "Chikwawa", "Lilongwe", "Mzimba", "Karonga"} {
		for _, name := range testIndicators {
			records = append(records, domain.RawIndicatorRecord{
				District:  district,
				Indicator: name,
				Value:     float64(10 * (i + 1)),
			})
		}
	}
	return records
}

func postJSON(t *testing.T, srv *httpapi.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no snapshots yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no snapshots yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestScoreEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/score", map[string]any{
		"snapshot_id": "adhoc-1",
		"records":     testRecords(t),
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result scoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.ModeMultiplicative, result.Mode)
	require.Len(t, result.Scores, 5)
	assert.Equal(t, 1, result.Scores[0].Rank)
	assert.False(t, result.ScoredAt.IsZero())
}

func TestScoreEndpoint_ModeOverride(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/score", map[string]any{
		"records": testRecords(t),
		"mode":    "additive",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result scoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.ModeAdditive, result.Mode)
}

func TestScoreEndpoint_RejectsBadMode(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/score", map[string]any{
		"records": testRecords(t),
		"mode":    "harmonic",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "mode", body["field"])
}

func TestScoreEndpoint_RejectsUnknownDistrict(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/score", map[string]any{
		"records": []domain.RawIndicatorRecord{
			{District: "Atlantis", Indicator: "flood_risk", Value: 5},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown district")
}

func TestScoreEndpoint_RejectsMalformedBody(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/score", bytes.NewReader([]byte("not json")))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreEndpoint_RejectsEmptyTable(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/score", map[string]any{"records": []domain.RawIndicatorRecord{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSensitivityEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/sensitivity", map[string]any{
		"records": testRecords(t),
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stability   *scoring.StabilityReport   `json:"stability"`
		Uncertainty *scoring.UncertaintyReport `json:"uncertainty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Stability)
	assert.Len(t, resp.Stability.Scenarios, 4)
	assert.Nil(t, resp.Uncertainty)
}

func TestSensitivityEndpoint_RequestScenarios(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/sensitivity", map[string]any{
		"records": testRecords(t),
		"scenarios": []scoring.Scenario{
			{Name: "hazard_only", ComponentWeights: domain.RiskWeights{Hazard: 0.8, Exposure: 0.1, AdaptiveCapacity: 0.1}},
			{Name: "capacity_only", ComponentWeights: domain.RiskWeights{Hazard: 0.1, Exposure: 0.1, AdaptiveCapacity: 0.8}},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stability *scoring.StabilityReport `json:"stability"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Stability)
	require.Len(t, resp.Stability.Scenarios, 2)
	assert.Equal(t, "hazard_only", resp.Stability.Scenarios[0].Scenario)
	assert.Equal(t, "capacity_only", resp.Stability.Scenarios[1].Scenario)
}

func TestSensitivityEndpoint_RejectsBadScenario(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/sensitivity", map[string]any{
		"records": testRecords(t),
		"scenarios": []scoring.Scenario{
			{Name: "broken", ComponentWeights: domain.RiskWeights{Hazard: 0.9, Exposure: 0.9, AdaptiveCapacity: 0.9}},
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["field"], "scenarios")
}

func TestSensitivityEndpoint_WithMonteCarlo(t *testing.T) {
	srv := newTestServer(nil)
	rec := postJSON(t, srv, "/v1/sensitivity", map[string]any{
		"records":             testRecords(t),
		"include_monte_carlo": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Uncertainty *scoring.UncertaintyReport `json:"uncertainty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Uncertainty)
	assert.Equal(t, 20, resp.Uncertainty.Trials)
	assert.Len(t, resp.Uncertainty.Bands, 5)
}
