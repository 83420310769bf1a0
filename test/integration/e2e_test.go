package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/analytics"
	"github.com/ashgrovelabs/tutord/internal/engine"
	"github.com/ashgrovelabs/tutord/internal/orchestrator"
	"github.com/ashgrovelabs/tutord/internal/policy"
	"github.com/ashgrovelabs/tutord/internal/replenish"
	"github.com/ashgrovelabs/tutord/internal/sample"
	"github.com/ashgrovelabs/tutord/internal/store"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tutord-test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestE2E_LearningLoop validates the complete learning loop:
// 1. Replenish an empty sample pool
// 2. Policy decides a first training run is due
// 3. Train a snapshot from the pool
// 4. Serve inferences from the trained model
// 5. Status reflects the trained model
func TestE2E_LearningLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	db := createTestStore(t)
	trainer := engine.NewTrainer(db, engine.DefaultTrainerConfig(), logger)
	replenisher := replenish.New(db, 42, logger)

	cfg := orchestrator.DefaultConfig()
	cfg.Categories = []sample.TaskCategory{sample.TaskConversation}
	orch := orchestrator.New(db, trainer, replenisher, nil, policy.DefaultConfig(), cfg, logger)

	// An empty pool is below the floor; one replenishment fills it.
	result, err := replenisher.TopUp(ctx, sample.TaskConversation, cfg.SampleTarget)
	require.NoError(t, err)
	assert.Equal(t, cfg.SampleTarget, result.Inserted)

	// Fifty fresh samples exceed the standard threshold.
	results := orch.TrainDue(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, policy.RuleInitial, results[0].Decision.Rule)
	require.NotNil(t, results[0].TrainResult)
	assert.Equal(t, engine.StatusTrained, results[0].TrainResult.Status)
	assert.Positive(t, results[0].TrainResult.Accuracy)

	// The snapshot is now the serving model.
	snap, err := db.CurrentSnapshot(ctx, sample.TaskConversation)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Patterns.Conversation)

	inference := engine.NewEngine(db, logger)
	reply, err := inference.Respond(ctx, sample.TaskConversation,
		sample.ConversationInput{UserMessage: "Hello, how are you today?"})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)

	// Status reflects the trained state and consumed samples.
	statuses, err := orch.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, cfg.SampleTarget, statuses[0].TrainingSamples)
	assert.Zero(t, statuses[0].NewSamples)
	assert.False(t, statuses[0].NeedsTraining)
	assert.Positive(t, statuses[0].Accuracy)
}

// TestE2E_TranslationPath validates translation training and checking
// against both a trained model and the cold-start heuristics.
func TestE2E_TranslationPath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	db := createTestStore(t)
	inference := engine.NewEngine(db, logger)

	// Without a model, heuristics judge the pair.
	reply, err := inference.CheckTranslation(ctx, sample.TranslationInput{
		EnglishText:           "I like to eat rice",
		VietnameseTranslation: "Tôi thích ăn cơm",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.TierFallback, reply.Tier)
	require.NotNil(t, reply.Translation)
	assert.True(t, reply.Translation.Correct)

	// Train a model from synthetic pairs and check a known pair.
	replenisher := replenish.New(db, 42, logger)
	_, err = replenisher.Replenish(ctx, sample.TaskTranslationCheck, 18)
	require.NoError(t, err)

	trainer := engine.NewTrainer(db, engine.DefaultTrainerConfig(), logger)
	trained, err := trainer.Train(ctx, sample.TaskTranslationCheck)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusTrained, trained.Status)
}

// TestE2E_LearnerJourney validates analytics across multiple sessions
// sharing one profile.
func TestE2E_LearnerJourney(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()
	db := createTestStore(t)
	analyzer := analytics.NewAnalyzer(db, zap.NewNop())

	// Session one: a struggling start.
	first, err := analyzer.Analyze(ctx, "learner-e2e", analytics.SessionData{
		Scores:    []float64{4, 4.5, 5},
		Topics:    []string{"food", "travel", "food"},
		Durations: []float64{200, 210, 190},
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.TrendImproving, first.Trend.Trend)

	// Session two: strong improvement.
	second, err := analyzer.Analyze(ctx, "learner-e2e", analytics.SessionData{
		Scores:    []float64{6.5, 7, 7.5, 8},
		Topics:    []string{"work", "food", "travel", "work"},
		Durations: []float64{320, 330, 310, 340},
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.TrendImproving, second.Trend.Trend)

	profile, err := db.Profile(ctx, "learner-e2e")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalSessions)
	assert.InDelta(t, 7.25, profile.AverageScore, 1e-9)

	sessions, err := db.Sessions(ctx, "learner-e2e", 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// Personalization builds on the accumulated profile and strategy.
	p, err := analyzer.Personalize(ctx, "learner-e2e", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, analytics.LevelAdvanced, p.RecommendedLevel)
	assert.Equal(t, "active", p.LearningStyle)
}
