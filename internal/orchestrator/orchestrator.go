// Package orchestrator runs the continuous learning loop: it keeps sample
// pools topped up, watches model health, applies the retraining policy, and
// triggers training runs.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/engine"
	"github.com/ashgrovelabs/tutord/internal/metrics"
	"github.com/ashgrovelabs/tutord/internal/policy"
	"github.com/ashgrovelabs/tutord/internal/replenish"
	"github.com/ashgrovelabs/tutord/internal/sample"
	"github.com/ashgrovelabs/tutord/internal/worker"
)

// ReadyAccuracy is the bar for reporting a model as serving-ready.
const ReadyAccuracy = 0.85

// Store is the persistence surface the orchestrator reads model health
// from.
type Store interface {
	CountSamples(ctx context.Context, cat sample.TaskCategory) (int, error)
	CountNewSamples(ctx context.Context, cat sample.TaskCategory) (int, error)
	CurrentSnapshot(ctx context.Context, cat sample.TaskCategory) (*engine.Snapshot, error)
}

// Trainer runs one training pass for a category.
type Trainer interface {
	Train(ctx context.Context, cat sample.TaskCategory) (*engine.TrainResult, error)
}

// Replenisher tops a category's sample pool up to a target size.
type Replenisher interface {
	TopUp(ctx context.Context, cat sample.TaskCategory, target int) (*replenish.Result, error)
}

// Config bounds the orchestrator loop.
type Config struct {
	// Interval between training cycles.
	Interval time.Duration

	// AccelProbeInterval is how often the accelerator is probed. Probing
	// is cheaper than training but not free, so it runs less often than
	// the cycle.
	AccelProbeInterval time.Duration

	// TrainingTimeout bounds one category's training run.
	TrainingTimeout time.Duration

	// SampleFloor triggers replenishment when a pool drops below it.
	SampleFloor int

	// SampleTarget is the pool size replenishment fills up to.
	SampleTarget int

	// Categories lists the task categories the loop manages.
	Categories []sample.TaskCategory
}

// DefaultConfig returns the standard loop cadence.
func DefaultConfig() Config {
	return Config{
		Interval:           2 * time.Minute,
		AccelProbeInterval: 5 * time.Minute,
		TrainingTimeout:    5 * time.Minute,
		SampleFloor:        30,
		SampleTarget:       50,
		Categories:         sample.AllTaskCategories(),
	}
}

// ModelStatus is one category's health at a point in time.
type ModelStatus struct {
	TaskCategory    sample.TaskCategory `json:"task_category"`
	Accuracy        float64             `json:"accuracy"`
	TrainedAt       *time.Time          `json:"trained_at,omitempty"`
	TrainingSamples int                 `json:"training_samples"`
	NewSamples      int                 `json:"new_samples"`
	Ready           bool                `json:"ready"`
	NeedsTraining   bool                `json:"needs_training"`
}

// CycleResult reports one category's outcome within a cycle.
type CycleResult struct {
	TaskCategory sample.TaskCategory `json:"task_category"`
	Decision     policy.Decision     `json:"decision"`
	TrainResult  *engine.TrainResult `json:"train_result,omitempty"`
	Evaluation   *Evaluation         `json:"evaluation,omitempty"`
	Err          string              `json:"error,omitempty"`
}

// Orchestrator drives the continuous learning loop.
type Orchestrator struct {
	store       Store
	trainer     Trainer
	replenisher Replenisher
	accel       worker.Accelerator
	policy      policy.Config
	cfg         Config
	logger      *zap.Logger

	lastProbe time.Time
}

// New wires an orchestrator. accel may be nil when no accelerator
// transport is configured.
func New(store Store, trainer Trainer, replenisher Replenisher, accel worker.Accelerator,
	policyCfg policy.Config, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.AccelProbeInterval <= 0 {
		cfg.AccelProbeInterval = DefaultConfig().AccelProbeInterval
	}
	if cfg.TrainingTimeout <= 0 {
		cfg.TrainingTimeout = DefaultConfig().TrainingTimeout
	}
	if cfg.SampleFloor <= 0 {
		cfg.SampleFloor = DefaultConfig().SampleFloor
	}
	if cfg.SampleTarget <= 0 {
		cfg.SampleTarget = DefaultConfig().SampleTarget
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = sample.AllTaskCategories()
	}
	return &Orchestrator{
		store:       store,
		trainer:     trainer,
		replenisher: replenisher,
		accel:       accel,
		policy:      policyCfg,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes the loop until the context is canceled. The first cycle
// starts immediately.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("continuous learning started",
		zap.Duration("interval", o.cfg.Interval),
		zap.Int("categories", len(o.cfg.Categories)))

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	o.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("continuous learning stopped")
			return ctx.Err()
		case <-ticker.C:
			o.cycle(ctx)
		}
	}
}

// cycle runs one full pass. A panic in cycle logic must not kill the loop.
func (o *Orchestrator) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("cycle panic recovered", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	statuses, err := o.Status(ctx)
	if err != nil {
		o.logger.Error("status check failed", zap.Error(err))
		return
	}
	for _, st := range statuses {
		o.exportStatus(st)
	}

	o.replenishBelowFloor(ctx, statuses)
	o.maybeProbeAccelerator(ctx)

	for _, result := range o.TrainDue(ctx) {
		o.logResult(result)
	}
}

// Status reports every managed category's model health.
func (o *Orchestrator) Status(ctx context.Context) ([]ModelStatus, error) {
	out := make([]ModelStatus, 0, len(o.cfg.Categories))
	for _, cat := range o.cfg.Categories {
		st, err := o.categoryStatus(ctx, cat)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (o *Orchestrator) categoryStatus(ctx context.Context, cat sample.TaskCategory) (ModelStatus, error) {
	st := ModelStatus{TaskCategory: cat}

	total, err := o.store.CountSamples(ctx, cat)
	if err != nil {
		return st, fmt.Errorf("counting samples for %s: %w", cat, err)
	}
	st.TrainingSamples = total

	newSamples, err := o.store.CountNewSamples(ctx, cat)
	if err != nil {
		return st, fmt.Errorf("counting new samples for %s: %w", cat, err)
	}
	st.NewSamples = newSamples
	st.NeedsTraining = newSamples >= o.policy.StandardThreshold

	snap, err := o.store.CurrentSnapshot(ctx, cat)
	if err != nil {
		if errors.Is(err, engine.ErrNoSnapshot) {
			return st, nil
		}
		return st, fmt.Errorf("loading snapshot for %s: %w", cat, err)
	}
	st.Accuracy = snap.Accuracy
	st.TrainedAt = &snap.TrainedAt
	st.Ready = snap.Accuracy >= ReadyAccuracy
	return st, nil
}

func (o *Orchestrator) exportStatus(st ModelStatus) {
	label := string(st.TaskCategory)
	metrics.ModelAccuracy.WithLabelValues(label).Set(st.Accuracy)
	metrics.SamplesTotal.WithLabelValues(label).Set(float64(st.TrainingSamples))
	metrics.NewSamples.WithLabelValues(label).Set(float64(st.NewSamples))
	ready := 0.0
	if st.Ready {
		ready = 1.0
	}
	metrics.ModelReady.WithLabelValues(label).Set(ready)
}

func (o *Orchestrator) replenishBelowFloor(ctx context.Context, statuses []ModelStatus) {
	if o.replenisher == nil {
		return
	}
	for _, st := range statuses {
		if st.TrainingSamples >= o.cfg.SampleFloor {
			continue
		}
		result, err := o.replenisher.TopUp(ctx, st.TaskCategory, o.cfg.SampleTarget)
		if err != nil {
			o.logger.Warn("replenishment failed",
				zap.String("task_category", string(st.TaskCategory)), zap.Error(err))
			continue
		}
		metrics.ReplenishedSamples.WithLabelValues(string(st.TaskCategory)).
			Add(float64(result.Inserted))
	}
}

// maybeProbeAccelerator probes for an external training accelerator on its
// own slower cadence and, when one is present, hands it every managed
// category for reprocessing. Local training still runs regardless.
func (o *Orchestrator) maybeProbeAccelerator(ctx context.Context) {
	if o.accel == nil || time.Since(o.lastProbe) < o.cfg.AccelProbeInterval {
		return
	}
	o.lastProbe = time.Now()

	capability, err := o.accel.Probe(ctx)
	if err != nil {
		o.logger.Warn("accelerator probe failed", zap.Error(err))
		return
	}
	if !capability.Available {
		return
	}

	o.logger.Info("accelerator available",
		zap.String("device", capability.Device),
		zap.Int("categories", len(o.cfg.Categories)))
	if err := o.accel.Submit(ctx, worker.Job{Categories: o.cfg.Categories, RequestedAt: time.Now()}); err != nil {
		o.logger.Warn("accelerator submit failed", zap.Error(err))
	}
}

// TrainDue evaluates the retraining policy for every category and trains
// the ones that are due.
func (o *Orchestrator) TrainDue(ctx context.Context) []CycleResult {
	results := make([]CycleResult, 0, len(o.cfg.Categories))
	for _, cat := range o.cfg.Categories {
		results = append(results, o.trainCategory(ctx, cat))
	}
	return results
}

// TrainNow forces a training run for one category, bypassing the policy.
func (o *Orchestrator) TrainNow(ctx context.Context, cat sample.TaskCategory) CycleResult {
	return o.train(ctx, cat, policy.Decision{
		Train:  true,
		Rule:   policy.RuleForce,
		Reason: "manual training request",
	})
}

func (o *Orchestrator) trainCategory(ctx context.Context, cat sample.TaskCategory) CycleResult {
	result := CycleResult{TaskCategory: cat}

	hasModel := true
	var accuracy float64
	snap, err := o.store.CurrentSnapshot(ctx, cat)
	if errors.Is(err, engine.ErrNoSnapshot) {
		hasModel = false
	} else if err != nil {
		result.Err = err.Error()
		return result
	} else {
		accuracy = snap.Accuracy
	}

	newSamples, err := o.store.CountNewSamples(ctx, cat)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	result.Decision = o.policy.Evaluate(hasModel, accuracy, newSamples)
	if !result.Decision.Train {
		return result
	}
	return o.train(ctx, cat, result.Decision)
}

func (o *Orchestrator) train(ctx context.Context, cat sample.TaskCategory, decision policy.Decision) CycleResult {
	result := CycleResult{TaskCategory: cat, Decision: decision}

	var oldAccuracy float64
	if snap, err := o.store.CurrentSnapshot(ctx, cat); err == nil {
		oldAccuracy = snap.Accuracy
	}

	trainCtx, cancel := context.WithTimeout(ctx, o.cfg.TrainingTimeout)
	defer cancel()

	trainResult, err := o.trainer.Train(trainCtx, cat)
	if trainResult != nil {
		result.TrainResult = trainResult
		metrics.TrainingRuns.WithLabelValues(string(cat), trainResult.Status).Inc()
	}
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if trainResult.Status == engine.StatusTrained {
		eval := Evaluate(oldAccuracy, trainResult.Accuracy)
		result.Evaluation = &eval
	}
	return result
}

func (o *Orchestrator) logResult(result CycleResult) {
	switch {
	case result.Err != "":
		o.logger.Error("training failed",
			zap.String("task_category", string(result.TaskCategory)),
			zap.String("rule", result.Decision.Rule),
			zap.String("error", result.Err))
	case result.TrainResult != nil && result.TrainResult.Status == engine.StatusTrained:
		o.logger.Info("model retrained",
			zap.String("task_category", string(result.TaskCategory)),
			zap.String("rule", result.Decision.Rule),
			zap.Float64("accuracy", result.TrainResult.Accuracy),
			zap.String("grade", result.Evaluation.Grade),
			zap.String("improvement", result.Evaluation.ImprovementStatus))
	case result.TrainResult != nil:
		o.logger.Info("training skipped",
			zap.String("task_category", string(result.TaskCategory)),
			zap.String("reason", result.TrainResult.Reason))
	default:
		o.logger.Debug("no training due",
			zap.String("task_category", string(result.TaskCategory)),
			zap.String("reason", result.Decision.Reason))
	}
}
