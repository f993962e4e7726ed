// Package metrics defines the Prometheus metrics of the recognition service.
//
// Every method is safe on a nil *Metrics, so components can be built
// without instrumentation in tests and offline tools.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	Predictions        prometheus.Counter     // successful classifications
	PredictionFailures *prometheus.CounterVec // failed classifications by error code
	PredictionLatency  prometheus.Histogram   // classification latency
	PredictionScores   prometheus.Histogram   // distribution of confidence scores
	Announcements      prometheus.Counter     // labels emitted by stabilizers
	DatasetAppends     prometheus.Counter     // rows written to the dataset
	TrainingRuns       *prometheus.CounterVec // training runs by outcome
	TrainingDuration   prometheus.Histogram   // wall time of training runs
	ModelAccuracy      prometheus.Gauge       // held-out accuracy of the active model
	ModelLoaded        prometheus.Gauge       // 1 when a model is installed
	ActiveSessions     prometheus.Gauge       // live stabilizer sessions
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, for isolated tests.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "silexa_predictions_total",
			Help: "Total number of gesture classifications",
		}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "silexa_prediction_failures_total",
			Help: "Total number of failed gesture classifications by error code",
		}, []string{"code"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silexa_prediction_latency_seconds",
			Help:    "Gesture classification latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silexa_prediction_confidence",
			Help:    "Distribution of prediction confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Announcements: factory.NewCounter(prometheus.CounterOpts{
			Name: "silexa_announcements_total",
			Help: "Total number of announced gestures",
		}),
		DatasetAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: "silexa_dataset_appends_total",
			Help: "Total number of examples appended to the dataset",
		}),
		TrainingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "silexa_training_runs_total",
			Help: "Total number of training runs by outcome",
		}, []string{"status"}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "silexa_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ModelAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "silexa_model_accuracy",
			Help: "Held-out accuracy of the active model",
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "silexa_model_loaded",
			Help: "Whether a gesture model is installed (1) or not (0)",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "silexa_active_sessions",
			Help: "Number of detection sessions with live stabilizer state",
		}),
	}
}

// ObservePrediction records a successful classification.
func (m *Metrics) ObservePrediction(latency time.Duration, confidence float64) {
	if m == nil {
		return
	}
	m.Predictions.Inc()
	m.PredictionLatency.Observe(latency.Seconds())
	m.PredictionScores.Observe(confidence)
}

// PredictionFailed counts a failed classification under code.
func (m *Metrics) PredictionFailed(code string) {
	if m == nil {
		return
	}
	m.PredictionFailures.WithLabelValues(code).Inc()
}

// Announced counts one announcement.
func (m *Metrics) Announced() {
	if m == nil {
		return
	}
	m.Announcements.Inc()
}

// Appended counts one dataset row.
func (m *Metrics) Appended() {
	if m == nil {
		return
	}
	m.DatasetAppends.Inc()
}

// TrainingFinished records a training run. Accuracy is only published for succeeded runs.
func (m *Metrics) TrainingFinished(status string, d time.Duration, accuracy float64) {
	if m == nil {
		return
	}
	m.TrainingRuns.WithLabelValues(status).Inc()
	m.TrainingDuration.Observe(d.Seconds())
	if status == "succeeded" {
		m.ModelAccuracy.Set(accuracy)
	}
}

// SetModelLoaded updates the model gauge.
func (m *Metrics) SetModelLoaded(loaded bool) {
	if m == nil {
		return
	}
	if loaded {
		m.ModelLoaded.Set(1)
	} else {
		m.ModelLoaded.Set(0)
	}
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
