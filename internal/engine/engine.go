// Package engine orchestrates the risk pipeline: fetch records from the
// acquisition boundary, run the deterministic rule pipeline over them,
// keep the results as an immutable snapshot, and train/serve the learned
// classifier on top.
//
// Both the assessment set and the trained model are copy-on-write
// snapshots behind atomic pointers. A refresh or retrain builds a
// complete new value and swaps it in; readers holding the previous
// snapshot are never affected mid-request.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
	"github.com/couchcryptid/disaster-risk-engine/internal/observability"
)

// Source is the input boundary: the data-acquisition collaborator hands
// the engine record sets to assess.
type Source interface {
	Fetch(ctx context.Context) ([]domain.WeatherObservation, []domain.DisasterEvent, error)
}

// AlertPublisher is the outbound alert feed boundary.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, assessments []domain.RiskAssessment) error
}

// Engine coordinates assessment refreshes and the classifier lifecycle.
type Engine struct {
	source   Source
	cfg      domain.EngineConfig
	modelCfg model.Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	publisher AlertPublisher
	alertMin  domain.Severity

	assessments atomic.Pointer[[]domain.RiskAssessment]
	trained     atomic.Pointer[model.TrainedModel]
	ready       atomic.Bool
}

// New creates an Engine. The engine config must already be validated.
func New(source Source, cfg domain.EngineConfig, modelCfg model.Config, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:   source,
		cfg:      cfg,
		modelCfg: modelCfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetAlertFeed attaches an outbound alert publisher. Assessments at or
// above min severity are published on every refresh.
func (e *Engine) SetAlertFeed(p AlertPublisher, min domain.Severity) {
	e.publisher = p
	e.alertMin = min
}

// Refresh fetches the current record set, reassesses every record, and
// swaps in the new snapshot. Idempotent and side-effect-free apart from
// the snapshot swap and the alert feed: no state accumulates across
// refreshes.
func (e *Engine) Refresh(ctx context.Context) error {
	start := time.Now()

	observations, events, err := e.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}

	assessments := make([]domain.RiskAssessment, 0, len(observations)+len(events))
	clampedTotal := 0

	for _, o := range observations {
		a, clamped := domain.AssessObservation(o, e.cfg)
		e.noteClamped(a.SourceID, clamped)
		clampedTotal += len(clamped)
		assessments = append(assessments, a)
	}
	for _, ev := range events {
		a, clamped := domain.AssessEvent(ev, e.cfg)
		e.noteClamped(a.SourceID, clamped)
		clampedTotal += len(clamped)
		assessments = append(assessments, a)
	}

	e.assessments.Store(&assessments)
	e.ready.Store(true)

	e.metrics.AssessmentsComputed.Add(float64(len(assessments)))
	e.metrics.ValuesClamped.Add(float64(clampedTotal))
	e.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("assessments refreshed",
		"observations", len(observations),
		"events", len(events),
		"clamped_values", clampedTotal,
	)

	if e.publisher != nil {
		e.publishAlerts(ctx, assessments)
	}
	return nil
}

// Run refreshes immediately, then on every interval tick until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	e.metrics.EngineRunning.Set(1)
	defer e.metrics.EngineRunning.Set(0)

	if err := e.Refresh(ctx); err != nil {
		e.logger.Error("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				e.logger.Error("refresh failed", "error", err)
			}
		}
	}
}

// Assessments returns the current snapshot. The returned slice is shared
// and must be treated as read-only; a refresh replaces the snapshot
// rather than mutating it.
func (e *Engine) Assessments() []domain.RiskAssessment {
	p := e.assessments.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Retrain fits a new classifier on the current assessment snapshot and,
// on success, swaps it in. On failure the previous model stays current
// and remains valid to callers.
func (e *Engine) Retrain(_ context.Context) (*model.TrainedModel, error) {
	start := time.Now()

	m, err := model.Train(TrainingSet(e.Assessments()), e.modelCfg)
	if err != nil {
		e.metrics.Trainings.WithLabelValues("error").Inc()
		return nil, err
	}

	e.trained.Store(m)
	e.metrics.Trainings.WithLabelValues("success").Inc()
	e.metrics.ModelAccuracy.Set(m.Accuracy())
	e.metrics.TrainingDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("model trained",
		"accuracy", m.Accuracy(),
		"trained_samples", m.TrainedSamples(),
		"holdout_samples", m.HoldoutSamples(),
		"trees", m.Trees(),
		"seed", m.Seed(),
	)
	return m, nil
}

// Model returns the current trained snapshot, or nil before the first
// successful training.
func (e *Engine) Model() *model.TrainedModel {
	return e.trained.Load()
}

// Predict normalizes raw record attributes and classifies them against
// the current model snapshot. Returns ErrNotTrained when no model exists
// yet, so callers can surface a "prediction unavailable" state.
func (e *Engine) Predict(attrs map[string]float64) (model.Prediction, error) {
	m := e.trained.Load()
	if m == nil {
		e.metrics.Predictions.WithLabelValues("unavailable").Inc()
		return model.Prediction{}, model.ErrNotTrained
	}

	features, clamped := domain.NormalizeRaw(attrs)
	e.noteClamped("predict", clamped)
	e.metrics.ValuesClamped.Add(float64(len(clamped)))

	p, err := m.Predict(features)
	if err != nil {
		e.metrics.Predictions.WithLabelValues("error").Inc()
		return model.Prediction{}, err
	}
	e.metrics.Predictions.WithLabelValues("success").Inc()
	return p, nil
}

// CheckReadiness reports whether at least one refresh has completed.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("engine has not completed a refresh yet")
	}
	return nil
}

// TrainingSet converts assessments into labeled samples, with the
// rule-derived category as ground truth.
func TrainingSet(assessments []domain.RiskAssessment) []model.Sample {
	samples := make([]model.Sample, 0, len(assessments))
	for _, a := range assessments {
		samples = append(samples, model.Sample{Features: a.Features, Label: a.Category})
	}
	return samples
}

func (e *Engine) publishAlerts(ctx context.Context, assessments []domain.RiskAssessment) {
	var alerts []domain.RiskAssessment
	for _, a := range assessments {
		if a.Severity >= e.alertMin {
			alerts = append(alerts, a)
		}
	}
	if len(alerts) == 0 {
		return
	}

	if err := e.publisher.PublishAlerts(ctx, alerts); err != nil {
		e.metrics.AlertErrors.Inc()
		e.logger.Error("alert publish failed", "error", err, "alerts", len(alerts))
		return
	}
	e.metrics.AlertsPublished.Add(float64(len(alerts)))
	e.logger.Info("alerts published", "alerts", len(alerts), "min_severity", e.alertMin.String())
}

func (e *Engine) noteClamped(sourceID string, clamped []string) {
	if len(clamped) == 0 {
		return
	}
	e.logger.Warn("out-of-domain values clamped", "source_id", sourceID, "attributes", clamped)
}
