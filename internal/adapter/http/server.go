// Package http exposes the engine's output boundary to rendering
// collaborators: assessments for map coloring and KPI cards, rollups and
// trends for charts, and model introspection for the prediction page.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
)

// RiskEngine is the slice of the engine the server consumes.
type RiskEngine interface {
	Assessments() []domain.RiskAssessment
	Model() *model.TrainedModel
	Retrain(ctx context.Context) (*model.TrainedModel, error)
	Predict(attrs map[string]float64) (model.Prediction, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, metrics, and the risk API over HTTP.
type Server struct {
	httpServer *http.Server
	engine     RiskEngine
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, engine RiskEngine, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/assessments", s.handleAssessments)
	mux.HandleFunc("GET /api/v1/rollups", s.handleRollups)
	mux.HandleFunc("GET /api/v1/trend", s.handleTrend)
	mux.HandleFunc("GET /api/v1/model", s.handleModel)
	mux.HandleFunc("POST /api/v1/model/retrain", s.handleRetrain)
	mux.HandleFunc("POST /api/v1/predict", s.handlePredict)

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAssessments(w http.ResponseWriter, _ *http.Request) {
	assessments := s.engine.Assessments()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(assessments),
		"assessments": assessments,
	})
}

func (s *Server) handleRollups(w http.ResponseWriter, _ *http.Request) {
	assessments := s.engine.Assessments()

	categories := make(map[string]int)
	for category, n := range domain.CategoryCounts(assessments) {
		categories[category.String()] = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"regions":    domain.RollupByRegion(assessments),
		"categories": categories,
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window duration")
			return
		}
		window = parsed
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window": window.String(),
		"points": domain.Trend(s.engine.Assessments(), window),
	})
}

// modelResponse is the introspection payload for the prediction page.
type modelResponse struct {
	Accuracy       float64            `json:"accuracy_estimate"`
	ClassAccuracy  map[string]float64 `json:"class_accuracy"`
	FeatureOrder   []string           `json:"feature_order"`
	Importances    []model.Importance `json:"feature_importances"`
	TrainedSamples int                `json:"trained_samples"`
	HoldoutSamples int                `json:"holdout_samples"`
	Trees          int                `json:"trees"`
	Seed           int64              `json:"seed"`
}

func (s *Server) handleModel(w http.ResponseWriter, _ *http.Request) {
	m := s.engine.Model()
	if m == nil {
		writeError(w, http.StatusServiceUnavailable, "no trained model available")
		return
	}

	classAcc := make(map[string]float64)
	for category, acc := range m.ClassAccuracy() {
		classAcc[category.String()] = acc
	}

	writeJSON(w, http.StatusOK, modelResponse{
		Accuracy:       m.Accuracy(),
		ClassAccuracy:  classAcc,
		FeatureOrder:   m.FeatureOrder(),
		Importances:    m.FeatureImportances(),
		TrainedSamples: m.TrainedSamples(),
		HoldoutSamples: m.HoldoutSamples(),
		Trees:          m.Trees(),
		Seed:           m.Seed(),
	})
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.Retrain(r.Context())
	if err != nil {
		var insufficient *model.InsufficientDataError
		if errors.As(err, &insufficient) {
			writeError(w, http.StatusConflict, insufficient.Error())
			return
		}
		s.logger.Error("retrain failed", "error", err)
		writeError(w, http.StatusInternalServerError, "training failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accuracy_estimate": m.Accuracy(),
		"trained_samples":   m.TrainedSamples(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var attrs map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object of attribute values")
		return
	}

	p, err := s.engine.Predict(attrs)
	if err != nil {
		var mismatch *model.FeatureMismatchError
		switch {
		case errors.Is(err, model.ErrNotTrained):
			writeError(w, http.StatusServiceUnavailable, "prediction unavailable: no trained model")
		case errors.As(err, &mismatch):
			writeError(w, http.StatusBadRequest, mismatch.Error())
		default:
			s.logger.Error("predict failed", "error", err)
			writeError(w, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
