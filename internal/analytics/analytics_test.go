package analytics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileStore keeps profiles and sessions in memory.
type fakeProfileStore struct {
	profiles map[string]*LearnerProfile
	sessions map[string][]*Analysis
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[string]*LearnerProfile),
		sessions: make(map[string][]*Analysis),
	}
}

func (f *fakeProfileStore) Profile(_ context.Context, learnerID string) (*LearnerProfile, error) {
	p, ok := f.profiles[learnerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProfile, learnerID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) SaveProfile(_ context.Context, profile *LearnerProfile) error {
	cp := *profile
	f.profiles[profile.LearnerID] = &cp
	return nil
}

func (f *fakeProfileStore) RecordSession(_ context.Context, learnerID string, analysis *Analysis) error {
	f.sessions[learnerID] = append(f.sessions[learnerID], analysis)
	return nil
}

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		trend  string
	}{
		{"steady improvement", []float64{5.5, 6.0, 6.5, 7.0, 7.5}, TrendImproving},
		{"decline", []float64{8, 7, 6}, TrendDeclining},
		{"flat", []float64{6, 6, 6}, TrendStable},
		{"small wobble is stable", []float64{6.0, 6.1, 6.0, 6.1}, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeTrend(tt.scores)
			assert.Equal(t, tt.trend, got.Trend)
		})
	}

	t.Run("too few scores", func(t *testing.T) {
		got := AnalyzeTrend([]float64{7})
		assert.Empty(t, got.Trend)
		assert.Zero(t, got.Slope)
	})

	t.Run("regression values", func(t *testing.T) {
		got := AnalyzeTrend([]float64{5.5, 6.0, 6.5, 7.0, 7.5})
		assert.InDelta(t, 0.5, got.Slope, 1e-9)
		assert.InDelta(t, 8.0, got.PredictedNextScore, 1e-9)
		assert.InDelta(t, 1.0/3.0, got.Momentum, 1e-9)
	})

	t.Run("prediction clamped to score range", func(t *testing.T) {
		got := AnalyzeTrend([]float64{7, 8, 9, 10})
		assert.Equal(t, 10.0, got.PredictedNextScore)
	})
}

func TestVarianceAndConsistency(t *testing.T) {
	assert.InDelta(t, 1.0, Variance([]float64{4, 6}), 1e-9)
	assert.InDelta(t, 0.9, Consistency([]float64{4, 6}), 1e-9)

	assert.Zero(t, Variance([]float64{6, 6, 6}))
	assert.Equal(t, 1.0, Consistency([]float64{6, 6, 6}))

	// Fewer than two scores counts as perfectly consistent.
	assert.Equal(t, 1.0, Consistency([]float64{7}))
	assert.Zero(t, Variance(nil))

	// Consistency floors at zero for wildly spread scores.
	assert.Equal(t, 0.0, Consistency([]float64{0, 10, 0, 10}))
}

func TestDetermineLevel(t *testing.T) {
	assert.Equal(t, LevelBeginner, DetermineLevel(3.9))
	assert.Equal(t, LevelIntermediate, DetermineLevel(4))
	assert.Equal(t, LevelIntermediate, DetermineLevel(6.9))
	assert.Equal(t, LevelAdvanced, DetermineLevel(7))
}

func TestRecommendLevel(t *testing.T) {
	improving := TrendAnalysis{Trend: TrendImproving}
	declining := TrendAnalysis{Trend: TrendDeclining}

	// A bump needs the average strictly above 6.5.
	assert.Equal(t, LevelIntermediate, RecommendLevel(6.5, improving))
	assert.Equal(t, LevelAdvanced, RecommendLevel(6.6, improving))

	// Already at the top: no bump past advanced.
	assert.Equal(t, LevelAdvanced, RecommendLevel(7.5, improving))

	// Declining and weak: step down, but never below beginner.
	assert.Equal(t, LevelBeginner, RecommendLevel(4.5, declining))
	assert.Equal(t, LevelBeginner, RecommendLevel(3, declining))

	// Declining but holding a decent average keeps the level.
	assert.Equal(t, LevelIntermediate, RecommendLevel(6, declining))
}

func TestEngagementBands(t *testing.T) {
	assert.Equal(t, "low", engagement([]float64{150}).Level)
	assert.Equal(t, "medium", engagement([]float64{200}).Level)
	assert.Equal(t, "high", engagement([]float64{301}).Level)
	assert.Empty(t, engagement(nil).Level)
}

func TestSummarizeNotes(t *testing.T) {
	notes := [][]string{
		{"Sentence structure", "word choice"},
		{"sentence structure", "pronunciation clarity"},
		{"sentence structure"},
	}
	got := summarizeNotes(notes, true)

	require.NotEmpty(t, got.Top)
	assert.Equal(t, "sentence structure", got.Top[0])
	assert.Equal(t, 3, got.Frequency["sentence structure"])

	assert.Contains(t, got.FocusAreas["grammar"], "sentence structure")
	assert.Contains(t, got.FocusAreas["pronunciation"], "pronunciation clarity")
	assert.Contains(t, got.FocusAreas["vocabulary"], "word choice")
}

func TestRecommendTiers(t *testing.T) {
	low := recommend(SessionData{Scores: []float64{3, 4, 4}})
	require.NotEmpty(t, low)
	assert.Equal(t, "foundation", low[0].Type)
	assert.Equal(t, "high", low[0].Priority)

	mid := recommend(SessionData{Scores: []float64{7, 7, 7}})
	require.NotEmpty(t, mid)
	assert.Equal(t, "intermediate", mid[0].Type)

	high := recommend(SessionData{Scores: []float64{9, 9, 9}})
	require.NotEmpty(t, high)
	assert.Equal(t, "advanced", high[0].Type)

	// No scores at all falls back to a midline average.
	empty := recommend(SessionData{})
	require.NotEmpty(t, empty)
	assert.Equal(t, "foundation", empty[0].Type)
}

func TestAnalyzeUpdatesProfile(t *testing.T) {
	store := newFakeProfileStore()
	analyzer := NewAnalyzer(store, nil)
	ctx := context.Background()

	data := SessionData{
		Scores:    []float64{5.5, 6.0, 6.5, 7.0, 7.5},
		Topics:    []string{"food", "travel", "food", "work", "travel"},
		Durations: []float64{320, 340, 330, 310, 350},
		Strengths: [][]string{
			{"good vocabulary"},
			{"good vocabulary"},
			{"clear pronunciation"},
		},
		Improvements: [][]string{
			{"sentence structure"},
			{"sentence structure"},
		},
	}

	analysis, err := analyzer.Analyze(ctx, "learner-1", data)
	require.NoError(t, err)

	assert.InDelta(t, 6.5, analysis.Metrics.AverageScore, 1e-9)
	assert.Equal(t, TrendImproving, analysis.Trend.Trend)
	assert.Equal(t, "high", analysis.Patterns.Engagement.Level)

	// 6.5 average is intermediate and not enough for a bump.
	assert.Equal(t, LevelIntermediate, analysis.Strategy.CurrentLevel)
	assert.Equal(t, LevelIntermediate, analysis.Strategy.RecommendedLevel)
	assert.False(t, analysis.Strategy.InterventionNeeded)

	profile := store.profiles["learner-1"]
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.TotalSessions)
	assert.InDelta(t, 6.5, profile.AverageScore, 1e-9)
	assert.InDelta(t, 330, profile.TotalPracticeTime, 1e-9)
	assert.Equal(t, "active", profile.LearningStyle)
	assert.Equal(t, []string{"good vocabulary", "clear pronunciation"}, profile.PreferredTopics)
	assert.Equal(t, []string{"sentence structure"}, profile.WeakTopics)
	assert.Len(t, store.sessions["learner-1"], 1)

	// The next session overwrites the average and accumulates practice time.
	_, err = analyzer.Analyze(ctx, "learner-1", SessionData{
		Scores:    []float64{8, 8},
		Durations: []float64{100, 100},
	})
	require.NoError(t, err)
	profile = store.profiles["learner-1"]
	assert.Equal(t, 2, profile.TotalSessions)
	assert.InDelta(t, 8.0, profile.AverageScore, 1e-9)
	assert.InDelta(t, 430, profile.TotalPracticeTime, 1e-9)
	assert.Equal(t, "balanced", profile.LearningStyle)
	assert.Len(t, store.sessions["learner-1"], 2)
}

func TestAnalyzeFlagsIntervention(t *testing.T) {
	store := newFakeProfileStore()
	analyzer := NewAnalyzer(store, nil)

	analysis, err := analyzer.Analyze(context.Background(), "learner-2", SessionData{
		Scores: []float64{3, 3.5, 2.5},
	})
	require.NoError(t, err)
	assert.True(t, analysis.Strategy.InterventionNeeded)
	assert.Equal(t, LevelBeginner, analysis.Strategy.CurrentLevel)
}

func TestPersonalizeDefaults(t *testing.T) {
	analyzer := NewAnalyzer(newFakeProfileStore(), nil)

	p, err := analyzer.Personalize(context.Background(), "unknown", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentLevel)
	assert.Equal(t, 2, p.RecommendedLevel)
	assert.Equal(t, "balanced", p.LearningStyle)
	assert.Equal(t, "normal", p.Pace)
	assert.Empty(t, p.PreferredTopics)
}

func TestPersonalizeUsesLatestStrategy(t *testing.T) {
	store := newFakeProfileStore()
	analyzer := NewAnalyzer(store, nil)
	ctx := context.Background()

	_, err := analyzer.Analyze(ctx, "learner-3", SessionData{
		Scores:    []float64{6, 7, 8, 9},
		Topics:    []string{"food", "travel", "food", "travel"},
		Durations: []float64{320, 330, 340, 350},
		Strengths: [][]string{{"good vocabulary"}},
	})
	require.NoError(t, err)

	p, err := analyzer.Personalize(ctx, "learner-3", 2, nil)
	require.NoError(t, err)

	// Improvement rate (9-6)/4 = 0.75 pushes the pace up, and the strong
	// improving average bumps the recommended level.
	assert.Equal(t, "accelerated", p.Pace)
	assert.Equal(t, LevelAdvanced, p.RecommendedLevel)
	assert.Equal(t, "active", p.LearningStyle)
	assert.Equal(t, []string{"good vocabulary"}, p.PreferredTopics)
}
