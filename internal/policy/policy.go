// Package policy decides when a task category's model should be retrained,
// based on its current accuracy and the volume of samples accumulated since
// the last snapshot.
package policy

import "fmt"

// Rule names, in evaluation order.
const (
	RuleInitial     = "initial"
	RuleStandard    = "standard"
	RuleUrgent      = "urgent"
	RuleLowAccuracy = "low_accuracy"
	RuleBelowTarget = "below_target"
	RuleForce       = "force"
	RuleNone        = "none"
)

// Config holds the retraining thresholds. Rules are checked in a fixed
// order and the first match wins.
type Config struct {
	// InitialThreshold triggers a first training run for a category that
	// has no model yet.
	InitialThreshold int `koanf:"initial_threshold"`

	// StandardThreshold retrains on plain sample volume.
	StandardThreshold int `koanf:"standard_threshold"`

	// UrgentAccuracy and UrgentSamples retrain quickly when the model is
	// performing badly.
	UrgentAccuracy float64 `koanf:"urgent_accuracy"`
	UrgentSamples  int     `koanf:"urgent_samples"`

	// LowAccuracy and LowSamples retrain a mediocre model at moderate
	// volume.
	LowAccuracy float64 `koanf:"low_accuracy"`
	LowSamples  int     `koanf:"low_samples"`

	// TargetAccuracy and TargetSamples keep nudging a model that has not
	// reached target quality.
	TargetAccuracy float64 `koanf:"target_accuracy"`
	TargetSamples  int     `koanf:"target_samples"`

	// ForceThreshold retrains unconditionally once enough samples pile
	// up, regardless of accuracy.
	ForceThreshold int `koanf:"force_threshold"`
}

// DefaultConfig returns the standard retraining ladder.
func DefaultConfig() Config {
	return Config{
		InitialThreshold:  3,
		StandardThreshold: 20,
		UrgentAccuracy:    0.5,
		UrgentSamples:     5,
		LowAccuracy:       0.7,
		LowSamples:        10,
		TargetAccuracy:    0.85,
		TargetSamples:     15,
		ForceThreshold:    50,
	}
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Train  bool   `json:"train"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// Evaluate applies the retraining ladder. hasModel reports whether the
// category has any snapshot; accuracy is the current snapshot's score (or
// zero without one); newSamples counts samples newer than the snapshot.
func (c Config) Evaluate(hasModel bool, accuracy float64, newSamples int) Decision {
	switch {
	case !hasModel && newSamples >= c.InitialThreshold:
		return Decision{true, RuleInitial,
			fmt.Sprintf("no model yet and %d samples available", newSamples)}
	case newSamples >= c.StandardThreshold:
		return Decision{true, RuleStandard,
			fmt.Sprintf("%d new samples since last training", newSamples)}
	case accuracy < c.UrgentAccuracy && newSamples >= c.UrgentSamples:
		return Decision{true, RuleUrgent,
			fmt.Sprintf("accuracy %.2f below %.2f with %d new samples", accuracy, c.UrgentAccuracy, newSamples)}
	case accuracy < c.LowAccuracy && newSamples >= c.LowSamples:
		return Decision{true, RuleLowAccuracy,
			fmt.Sprintf("accuracy %.2f below %.2f with %d new samples", accuracy, c.LowAccuracy, newSamples)}
	case accuracy < c.TargetAccuracy && newSamples >= c.TargetSamples:
		return Decision{true, RuleBelowTarget,
			fmt.Sprintf("accuracy %.2f below target %.2f with %d new samples", accuracy, c.TargetAccuracy, newSamples)}
	case newSamples >= c.ForceThreshold:
		return Decision{true, RuleForce,
			fmt.Sprintf("forced refresh after %d new samples", newSamples)}
	default:
		return Decision{false, RuleNone, "thresholds not met"}
	}
}
