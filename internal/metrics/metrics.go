// Package metrics exposes Prometheus instrumentation for the training loop
// and inference paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutord"

var (
	// ModelAccuracy is the serving model's accuracy per task category.
	ModelAccuracy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_accuracy",
		Help:      "Accuracy score of the current model snapshot.",
	}, []string{"task_category"})

	// ModelReady reports whether the category's model meets the target
	// accuracy (1) or not (0).
	ModelReady = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_ready",
		Help:      "Whether the current model meets target accuracy.",
	}, []string{"task_category"})

	// SamplesTotal is the sample pool size per task category.
	SamplesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "samples_total",
		Help:      "Stored training samples per task category.",
	}, []string{"task_category"})

	// NewSamples counts samples newer than the current snapshot.
	NewSamples = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "new_samples",
		Help:      "Samples accumulated since the last training run.",
	}, []string{"task_category"})

	// TrainingRuns counts training attempts by outcome.
	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "training_runs_total",
		Help:      "Training runs by task category and result.",
	}, []string{"task_category", "result"})

	// CycleDuration observes full orchestrator cycle latency.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of orchestrator training cycles.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// InferenceRequests counts served inferences by match tier.
	InferenceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inference_requests_total",
		Help:      "Inference requests by task category and match tier.",
	}, []string{"task_category", "tier"})

	// ReplenishedSamples counts synthetic samples inserted by the
	// replenisher.
	ReplenishedSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replenished_samples_total",
		Help:      "Synthetic samples inserted per task category.",
	}, []string{"task_category"})
)
