// Package main generates sample tutord metrics for testing Grafana
// dashboards without a running daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	modelAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutord_model_accuracy",
			Help: "Accuracy score of the current model snapshot.",
		},
		[]string{"task_category"},
	)
	modelReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutord_model_ready",
			Help: "Whether the current model meets target accuracy.",
		},
		[]string{"task_category"},
	)
	samplesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutord_samples_total",
			Help: "Stored training samples per task category.",
		},
		[]string{"task_category"},
	)
	newSamples = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutord_new_samples",
			Help: "Samples accumulated since the last training run.",
		},
		[]string{"task_category"},
	)
	trainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutord_training_runs_total",
			Help: "Training runs by task category and result.",
		},
		[]string{"task_category", "result"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutord_cycle_duration_seconds",
			Help:    "Duration of orchestrator training cycles.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	inferenceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutord_inference_requests_total",
			Help: "Inference requests by task category and match tier.",
		},
		[]string{"task_category", "tier"},
	)
	replenishedSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutord_replenished_samples_total",
			Help: "Synthetic samples inserted per task category.",
		},
		[]string{"task_category"},
	)
)

var (
	categories = []string{"conversation_ai", "translation_check", "speaking_practice", "game_conversation"}
	results    = []string{"trained", "skipped", "error"}
	tiers      = []string{"topic", "context", "keyword", "fallback"}
)

func init() {
	prometheus.MustRegister(
		modelAccuracy,
		modelReady,
		samplesTotal,
		newSamples,
		trainingRuns,
		cycleDuration,
		inferenceRequests,
		replenishedSamples,
	)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9100"
	}

	generateSampleData()

	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'tutord-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func generateSampleData() {
	for _, cat := range categories {
		accuracy := 0.4 + rand.Float64()*0.55
		modelAccuracy.WithLabelValues(cat).Set(accuracy)
		if accuracy >= 0.85 {
			modelReady.WithLabelValues(cat).Set(1)
		} else {
			modelReady.WithLabelValues(cat).Set(0)
		}
		samplesTotal.WithLabelValues(cat).Set(float64(rand.Intn(200) + 30))
		newSamples.WithLabelValues(cat).Set(float64(rand.Intn(25)))
	}

	for i := 0; i < 40; i++ {
		trainingRuns.WithLabelValues(randomChoice(categories), randomChoice(results)).Inc()
		cycleDuration.Observe(rand.Float64() * 5.0)
	}

	for i := 0; i < 300; i++ {
		inferenceRequests.WithLabelValues(randomChoice(categories), randomChoice(tiers)).Inc()
	}

	for i := 0; i < 20; i++ {
		replenishedSamples.WithLabelValues(randomChoice(categories)).Add(float64(rand.Intn(10) + 1))
	}
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rand.Float64() > 0.3 {
				inferenceRequests.WithLabelValues(randomChoice(categories), randomChoice(tiers)).Inc()
			}
			if rand.Float64() > 0.7 {
				cat := randomChoice(categories)
				trainingRuns.WithLabelValues(cat, randomChoice(results)).Inc()
				cycleDuration.Observe(rand.Float64() * 5.0)
				accuracy := 0.4 + rand.Float64()*0.55
				modelAccuracy.WithLabelValues(cat).Set(accuracy)
				if accuracy >= 0.85 {
					modelReady.WithLabelValues(cat).Set(1)
				} else {
					modelReady.WithLabelValues(cat).Set(0)
				}
			}
			if rand.Float64() > 0.8 {
				replenishedSamples.WithLabelValues(randomChoice(categories)).Add(float64(rand.Intn(5) + 1))
			}
			for _, cat := range categories {
				samplesTotal.WithLabelValues(cat).Add(float64(rand.Intn(3)))
				newSamples.WithLabelValues(cat).Set(float64(rand.Intn(25)))
			}
		}
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
