package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
)

type stubEngine struct {
	assessments []domain.RiskAssessment
	trained     *model.TrainedModel
	retrainErr  error
	prediction  model.Prediction
	predictErr  error
	readyErr    error
}

func (s *stubEngine) Assessments() []domain.RiskAssessment { return s.assessments }
func (s *stubEngine) Model() *model.TrainedModel           { return s.trained }

func (s *stubEngine) Retrain(context.Context) (*model.TrainedModel, error) {
	if s.retrainErr != nil {
		return nil, s.retrainErr
	}
	return s.trained, nil
}

func (s *stubEngine) Predict(map[string]float64) (model.Prediction, error) {
	if s.predictErr != nil {
		return model.Prediction{}, s.predictErr
	}
	return s.prediction, nil
}

func (s *stubEngine) CheckReadiness(context.Context) error { return s.readyErr }

func newTestServer(engine RiskEngine) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", engine, logger)
}

// trainedFixture fits a small real model so the introspection handler has
// honest data to serve.
func trainedFixture(t *testing.T) *model.TrainedModel {
	t.Helper()

	cfg := domain.DefaultEngineConfig()
	samples := make([]model.Sample, 0, 60)
	for i := 0; i < 60; i++ {
		features := make(map[string]float64, len(domain.FeatureNames))
		for j, name := range domain.FeatureNames {
			features[name] = float64((i*7+j*13)%100) / 100
		}
		samples = append(samples, model.Sample{
			Features: features,
			Label:    domain.Classify(domain.Score(features, cfg), cfg),
		})
	}

	mcfg := model.DefaultConfig()
	mcfg.Trees = 10
	m, err := model.Train(samples, mcfg)
	require.NoError(t, err)
	return m
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("healthz always ok", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", decode(t, rec)["status"])
	})

	t.Run("readyz before first refresh", func(t *testing.T) {
		engine := &stubEngine{readyErr: errors.New("engine has not completed a refresh yet")}
		rec := doRequest(t, newTestServer(engine), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not ready", decode(t, rec)["status"])
	})

	t.Run("readyz after refresh", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssessmentsEndpoint(t *testing.T) {
	engine := &stubEngine{assessments: []domain.RiskAssessment{
		{SourceID: "obs-1", RegionID: "tokyo-japan", Score: 42.5, Category: domain.CategoryWarning, Severity: domain.SeverityMedium},
		{SourceID: "evt-1", RegionID: "mumbai-india", Score: 88, Category: domain.CategoryDanger, Severity: domain.SeverityCritical},
	}}

	rec := doRequest(t, newTestServer(engine), http.MethodGet, "/api/v1/assessments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["count"])

	items := body["assessments"].([]any)
	first := items[0].(map[string]any)
	assert.Equal(t, "obs-1", first["source_id"])
	assert.Equal(t, "Warning", first["category"])
	assert.Equal(t, "Medium", first["alert_severity"])
}

func TestRollupsEndpoint(t *testing.T) {
	engine := &stubEngine{assessments: []domain.RiskAssessment{
		{RegionID: "tokyo-japan", Score: 20, Category: domain.CategorySafe},
		{RegionID: "tokyo-japan", Score: 80, Category: domain.CategoryDanger},
		{RegionID: "london-uk", Score: 40, Category: domain.CategoryWarning},
	}}

	rec := doRequest(t, newTestServer(engine), http.MethodGet, "/api/v1/rollups", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	regions := body["regions"].(map[string]any)
	tokyo := regions["tokyo-japan"].(map[string]any)
	assert.Equal(t, float64(50), tokyo["mean_score"])
	assert.Equal(t, "Danger", tokyo["max_category"])
	assert.Equal(t, float64(2), tokyo["event_count"])

	categories := body["categories"].(map[string]any)
	assert.Equal(t, float64(1), categories["Safe"])
	assert.Equal(t, float64(1), categories["Warning"])
	assert.Equal(t, float64(1), categories["Danger"])
}

func TestTrendEndpoint(t *testing.T) {
	base := time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)
	engine := &stubEngine{assessments: []domain.RiskAssessment{
		{Timestamp: base.Add(1 * time.Hour), Score: 10},
		{Timestamp: base.Add(26 * time.Hour), Score: 30},
	}}

	t.Run("default daily window", func(t *testing.T) {
		rec := doRequest(t, newTestServer(engine), http.MethodGet, "/api/v1/trend", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "24h0m0s", body["window"])
		assert.Len(t, body["points"].([]any), 2)
	})

	t.Run("custom window", func(t *testing.T) {
		rec := doRequest(t, newTestServer(engine), http.MethodGet, "/api/v1/trend?window=1h", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["points"].([]any), 2)
	})

	t.Run("invalid window", func(t *testing.T) {
		rec := doRequest(t, newTestServer(engine), http.MethodGet, "/api/v1/trend?window=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestModelEndpoint(t *testing.T) {
	t.Run("before first training", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodGet, "/api/v1/model", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "no trained model")
	})

	t.Run("serves the trained snapshot", func(t *testing.T) {
		m := trainedFixture(t)
		rec := doRequest(t, newTestServer(&stubEngine{trained: m}), http.MethodGet, "/api/v1/model", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, m.Accuracy(), body["accuracy_estimate"])
		assert.Equal(t, float64(10), body["trees"])
		assert.Equal(t, float64(42), body["seed"])

		imps := body["feature_importances"].([]any)
		require.Len(t, imps, len(domain.FeatureNames))
		var sum float64
		for _, raw := range imps {
			sum += raw.(map[string]any)["weight"].(float64)
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	})
}

func TestRetrainEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &stubEngine{trained: trainedFixture(t)}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/model/retrain", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decode(t, rec), "accuracy_estimate")
	})

	t.Run("insufficient data", func(t *testing.T) {
		engine := &stubEngine{retrainErr: &model.InsufficientDataError{Got: 5, Min: 40}}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/model/retrain", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("other failure", func(t *testing.T) {
		engine := &stubEngine{retrainErr: errors.New("boom")}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/model/retrain", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodGet, "/api/v1/model/retrain", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestPredictEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &stubEngine{prediction: model.Prediction{
			Category:   domain.CategoryDanger,
			Confidence: 0.91,
			Probabilities: map[domain.Category]float64{
				domain.CategorySafe:    0.02,
				domain.CategoryWarning: 0.07,
				domain.CategoryDanger:  0.91,
			},
		}}

		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/predict", `{"temperature": 45, "wind_speed": 110}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "Danger", body["category"])
		assert.Equal(t, 0.91, body["confidence"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&stubEngine{}), http.MethodPost, "/api/v1/predict", `["not", "an", "object"]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("model not trained", func(t *testing.T) {
		engine := &stubEngine{predictErr: model.ErrNotTrained}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/predict", `{"temperature": 45}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("feature mismatch", func(t *testing.T) {
		engine := &stubEngine{predictErr: &model.FeatureMismatchError{Feature: "wind_speed"}}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/predict", `{"temperature": 45}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "wind_speed")
	})

	t.Run("unexpected failure", func(t *testing.T) {
		engine := &stubEngine{predictErr: errors.New("boom")}
		rec := doRequest(t, newTestServer(engine), http.MethodPost, "/api/v1/predict", `{"temperature": 45}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
