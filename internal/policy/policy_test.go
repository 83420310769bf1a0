package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		hasModel   bool
		accuracy   float64
		newSamples int
		wantTrain  bool
		wantRule   string
	}{
		{
			name:       "no model below initial floor",
			hasModel:   false,
			newSamples: 2,
			wantTrain:  false,
			wantRule:   RuleNone,
		},
		{
			name:       "no model at initial floor",
			hasModel:   false,
			newSamples: 3,
			wantTrain:  true,
			wantRule:   RuleInitial,
		},
		{
			name:       "standard volume",
			hasModel:   true,
			accuracy:   0.9,
			newSamples: 20,
			wantTrain:  true,
			wantRule:   RuleStandard,
		},
		{
			name:       "urgent low accuracy",
			hasModel:   true,
			accuracy:   0.4,
			newSamples: 5,
			wantTrain:  true,
			wantRule:   RuleUrgent,
		},
		{
			name:       "urgent accuracy but too few samples",
			hasModel:   true,
			accuracy:   0.4,
			newSamples: 4,
			wantTrain:  false,
			wantRule:   RuleNone,
		},
		{
			name:       "mediocre accuracy moderate volume",
			hasModel:   true,
			accuracy:   0.65,
			newSamples: 10,
			wantTrain:  true,
			wantRule:   RuleLowAccuracy,
		},
		{
			name:       "below target accuracy",
			hasModel:   true,
			accuracy:   0.8,
			newSamples: 15,
			wantTrain:  true,
			wantRule:   RuleBelowTarget,
		},
		{
			name:       "at target accuracy nothing due",
			hasModel:   true,
			accuracy:   0.9,
			newSamples: 19,
			wantTrain:  false,
			wantRule:   RuleNone,
		},
		{
			name:       "good model below standard threshold",
			hasModel:   true,
			accuracy:   0.95,
			newSamples: 15,
			wantTrain:  false,
			wantRule:   RuleNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cfg.Evaluate(tt.hasModel, tt.accuracy, tt.newSamples)
			assert.Equal(t, tt.wantTrain, d.Train)
			assert.Equal(t, tt.wantRule, d.Rule)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestEvaluatePrecedence(t *testing.T) {
	cfg := DefaultConfig()

	// A category with no model and plenty of samples hits the initial
	// rule before the standard one.
	d := cfg.Evaluate(false, 0, 25)
	assert.Equal(t, RuleInitial, d.Rule)

	// Volume beats accuracy: at the standard threshold the standard rule
	// fires even when accuracy is terrible.
	d = cfg.Evaluate(true, 0.3, 20)
	assert.Equal(t, RuleStandard, d.Rule)

	// Very low accuracy hits the urgent rule before the low-accuracy one.
	d = cfg.Evaluate(true, 0.45, 12)
	assert.Equal(t, RuleUrgent, d.Rule)

	// The force rule only matters for a model already past the target
	// accuracy bands.
	d = cfg.Evaluate(true, 0.99, 50)
	assert.Equal(t, RuleStandard, d.Rule)
}

func TestEvaluateForceRule(t *testing.T) {
	// Shift the standard threshold above force to isolate the force rule.
	cfg := DefaultConfig()
	cfg.StandardThreshold = 100

	d := cfg.Evaluate(true, 0.99, 50)
	assert.True(t, d.Train)
	assert.Equal(t, RuleForce, d.Rule)
}
