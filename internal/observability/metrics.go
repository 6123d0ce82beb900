package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk engine.
type Metrics struct {
	AssessmentsComputed prometheus.Counter
	ValuesClamped       prometheus.Counter
	RefreshDuration     prometheus.Histogram
	EngineRunning       prometheus.Gauge

	// Model metrics.
	Trainings        *prometheus.CounterVec // labels: outcome={success,error}
	ModelAccuracy    prometheus.Gauge
	TrainingDuration prometheus.Histogram
	Predictions      *prometheus.CounterVec // labels: outcome={success,error,unavailable}

	// Alert feed metrics.
	AlertsPublished prometheus.Counter
	AlertErrors     prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsComputed,
		m.ValuesClamped,
		m.RefreshDuration,
		m.EngineRunning,
		m.Trainings,
		m.ModelAccuracy,
		m.TrainingDuration,
		m.Predictions,
		m.AlertsPublished,
		m.AlertErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "assessments_computed_total",
			Help:      "Total risk assessments produced across all refreshes.",
		}),
		ValuesClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "values_clamped_total",
			Help:      "Total out-of-domain raw attributes clamped during normalization.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one full fetch-assess-publish refresh cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_engine",
			Name:      "running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		Trainings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "trainings_total",
			Help:      "Model training attempts by outcome.",
		}, []string{"outcome"}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_engine",
			Name:      "model_accuracy",
			Help:      "Holdout accuracy of the current trained model.",
		}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "training_duration_seconds",
			Help:      "Duration of model training runs.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "alerts_published_total",
			Help:      "Assessments published to the alert feed.",
		}),
		AlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "alert_errors_total",
			Help:      "Alert feed publish failures.",
		}),
	}
}
