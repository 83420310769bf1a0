// Package analytics turns raw session results into performance metrics,
// trend analysis, and adaptive-learning strategy for each learner.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoProfile is returned when a learner has no stored profile.
var ErrNoProfile = errors.New("no profile for learner")

// Trend labels.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Learner levels. Scores run 0..10; level 1 is below 4, level 3 is 7 and up.
const (
	LevelBeginner     = 1
	LevelIntermediate = 2
	LevelAdvanced     = 3
)

// SessionData is the raw input for one analysis run: parallel slices of
// per-exercise scores (0..10), topics, durations in seconds, and the
// strengths and improvement notes recorded per exercise.
type SessionData struct {
	Scores       []float64  `json:"scores"`
	Topics       []string   `json:"topics"`
	Durations    []float64  `json:"durations"`
	Strengths    [][]string `json:"strengths"`
	Improvements [][]string `json:"improvements"`
}

// Metrics summarizes one session's scores and durations.
type Metrics struct {
	AverageScore    float64 `json:"average_score"`
	MaxScore        float64 `json:"max_score"`
	MinScore        float64 `json:"min_score"`
	ScoreVariance   float64 `json:"score_variance"`
	ImprovementRate float64 `json:"improvement_rate"`
	Consistency     float64 `json:"consistency"`
	AverageDuration float64 `json:"average_duration"`
	Efficiency      float64 `json:"efficiency"`
}

// TrendAnalysis is a linear-regression read of the score series. Trend is
// empty when there are fewer than two scores.
type TrendAnalysis struct {
	Trend              string  `json:"trend,omitempty"`
	Slope              float64 `json:"slope"`
	PredictedNextScore float64 `json:"predicted_next_score"`
	Momentum           float64 `json:"momentum"`
	Volatility         float64 `json:"volatility"`
}

// LearningCurve splits the score series into segments and compares their
// averages.
type LearningCurve struct {
	EarlyAvg  float64 `json:"early_avg"`
	MidAvg    float64 `json:"mid_avg"`
	RecentAvg float64 `json:"recent_avg"`
	CurveType string  `json:"curve_type,omitempty"`
}

// Engagement classifies session length into low, medium, or high.
type Engagement struct {
	AvgDuration float64 `json:"avg_duration"`
	Level       string  `json:"engagement_level,omitempty"`
}

// Retention compares first and last scores of the series.
type Retention struct {
	RetentionRate float64 `json:"retention_rate"`
	Consistency   float64 `json:"consistency"`
}

// LearningPatterns groups the pattern analyses.
type LearningPatterns struct {
	TopicPreferences map[string]float64 `json:"topic_preferences,omitempty"`
	Curve            LearningCurve      `json:"learning_curve"`
	Retention        Retention          `json:"retention_patterns"`
	Engagement       Engagement         `json:"engagement_patterns"`
}

// FrequencySummary ranks recurring strength or improvement notes.
type FrequencySummary struct {
	Top         []string            `json:"top,omitempty"`
	Frequency   map[string]int      `json:"frequency,omitempty"`
	FocusAreas  map[string][]string `json:"focus_areas,omitempty"`
	Consistency float64             `json:"consistency"`
}

// Recommendation is one actionable suggestion for the learner.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Strategy is the adaptive plan derived from a session.
type Strategy struct {
	LearnerID          string   `json:"learner_id"`
	CurrentLevel       int      `json:"current_level"`
	RecommendedLevel   int      `json:"recommended_level"`
	PaceAdjustment     string   `json:"pace_adjustment"`
	ContentFocus       []string `json:"content_focus,omitempty"`
	PracticeFrequency  string   `json:"practice_frequency"`
	InterventionNeeded bool     `json:"intervention_needed"`
}

// Analysis is the full output of one session analysis.
type Analysis struct {
	LearnerID       string           `json:"learner_id"`
	Timestamp       time.Time        `json:"timestamp"`
	Metrics         Metrics          `json:"performance_metrics"`
	Patterns        LearningPatterns `json:"learning_patterns"`
	Strengths       FrequencySummary `json:"strength_areas"`
	Improvements    FrequencySummary `json:"improvement_areas"`
	Trend           TrendAnalysis    `json:"trend_analysis"`
	Recommendations []Recommendation `json:"personalized_recommendations"`
	Strategy        Strategy         `json:"adaptive_strategy"`
}

// Personalization is the context handed to prompt generation for a learner.
type Personalization struct {
	LearnerID        string   `json:"learner_id"`
	CurrentLevel     int      `json:"current_level"`
	RecommendedLevel int      `json:"recommended_level"`
	PreferredTopics  []string `json:"preferred_topics,omitempty"`
	FocusAreas       []string `json:"focus_areas,omitempty"`
	ContentFocus     []string `json:"content_focus,omitempty"`
	LearningStyle    string   `json:"learning_style"`
	Pace             string   `json:"pace"`
}

// LearnerProfile is the persistent per-learner record, updated after every
// analysis.
type LearnerProfile struct {
	LearnerID         string    `json:"learner_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	TotalSessions     int       `json:"total_sessions"`
	TotalPracticeTime float64   `json:"total_practice_time"`
	AverageScore      float64   `json:"average_score"`
	PreferredTopics   []string  `json:"preferred_topics,omitempty"`
	WeakTopics        []string  `json:"weak_topics,omitempty"`
	LearningStyle     string    `json:"learning_style,omitempty"`
}

// ProfileStore is the persistence surface the analyzer needs. The sqlite
// store satisfies it.
type ProfileStore interface {
	// Profile returns the learner's profile, or ErrNoProfile.
	Profile(ctx context.Context, learnerID string) (*LearnerProfile, error)

	// SaveProfile inserts or replaces the learner's profile.
	SaveProfile(ctx context.Context, profile *LearnerProfile) error

	// RecordSession appends one analysis to the learner's session history.
	RecordSession(ctx context.Context, learnerID string, analysis *Analysis) error
}

// Analyzer computes session analytics and maintains learner profiles.
type Analyzer struct {
	profiles ProfileStore
	logger   *zap.Logger

	mu         sync.Mutex
	strategies map[string]Strategy
}

// NewAnalyzer wires an analyzer against the profile store.
func NewAnalyzer(profiles ProfileStore, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		profiles:   profiles,
		logger:     logger,
		strategies: make(map[string]Strategy),
	}
}

// Analyze runs the full session analysis and folds the result into the
// learner's persistent profile.
func (a *Analyzer) Analyze(ctx context.Context, learnerID string, data SessionData) (*Analysis, error) {
	analysis := &Analysis{
		LearnerID:       learnerID,
		Timestamp:       time.Now(),
		Metrics:         calcMetrics(data.Scores, data.Durations),
		Patterns:        identifyPatterns(data),
		Strengths:       summarizeNotes(data.Strengths, false),
		Improvements:    summarizeNotes(data.Improvements, true),
		Trend:           AnalyzeTrend(data.Scores),
		Recommendations: recommend(data),
	}
	analysis.Strategy = a.buildStrategy(learnerID, data.Scores, data.Topics, analysis.Trend)

	if err := a.updateProfile(ctx, learnerID, analysis); err != nil {
		return nil, err
	}
	if err := a.profiles.RecordSession(ctx, learnerID, analysis); err != nil {
		return nil, fmt.Errorf("recording session: %w", err)
	}

	a.logger.Info("session analyzed",
		zap.String("learner_id", learnerID),
		zap.Float64("average_score", analysis.Metrics.AverageScore),
		zap.String("trend", analysis.Trend.Trend),
		zap.Bool("intervention_needed", analysis.Strategy.InterventionNeeded))
	return analysis, nil
}

// Personalize returns the prompt-generation context for a learner, based on
// their profile and the strategy from their latest analyzed session.
func (a *Analyzer) Personalize(ctx context.Context, learnerID string, level int, usedTopics []string) (*Personalization, error) {
	profile, err := a.profiles.Profile(ctx, learnerID)
	if err != nil && !errors.Is(err, ErrNoProfile) {
		return nil, err
	}
	if profile == nil {
		profile = &LearnerProfile{LearnerID: learnerID}
	}

	a.mu.Lock()
	strategy, hasStrategy := a.strategies[learnerID]
	a.mu.Unlock()

	p := &Personalization{
		LearnerID:        learnerID,
		CurrentLevel:     level,
		RecommendedLevel: level,
		PreferredTopics:  firstN(profile.PreferredTopics, 3),
		FocusAreas:       firstN(profile.WeakTopics, 2),
		LearningStyle:    "balanced",
		Pace:             "normal",
	}
	if profile.LearningStyle != "" {
		p.LearningStyle = profile.LearningStyle
	}
	if hasStrategy {
		p.RecommendedLevel = strategy.RecommendedLevel
		p.ContentFocus = strategy.ContentFocus
		p.Pace = strategy.PaceAdjustment
	}
	return p, nil
}

func (a *Analyzer) buildStrategy(learnerID string, scores []float64, topics []string, trend TrendAnalysis) Strategy {
	avg := averageOr(scores, 5)
	s := Strategy{
		LearnerID:          learnerID,
		CurrentLevel:       DetermineLevel(avg),
		RecommendedLevel:   RecommendLevel(avg, trend),
		PaceAdjustment:     recommendPace(scores),
		ContentFocus:       weakTopics(topics, scores, 3),
		PracticeFrequency:  recommendFrequency(scores),
		InterventionNeeded: avg < 4 || trend.Trend == TrendDeclining,
	}
	a.mu.Lock()
	a.strategies[learnerID] = s
	a.mu.Unlock()
	return s
}

// updateProfile folds session results into the stored profile. The profile
// average tracks the latest session; practice time accumulates the session's
// average duration.
func (a *Analyzer) updateProfile(ctx context.Context, learnerID string, analysis *Analysis) error {
	profile, err := a.profiles.Profile(ctx, learnerID)
	if errors.Is(err, ErrNoProfile) {
		profile = &LearnerProfile{
			LearnerID: learnerID,
			CreatedAt: analysis.Timestamp,
		}
	} else if err != nil {
		return err
	}

	profile.UpdatedAt = analysis.Timestamp
	profile.TotalSessions++
	profile.AverageScore = analysis.Metrics.AverageScore
	profile.TotalPracticeTime += analysis.Metrics.AverageDuration
	profile.PreferredTopics = analysis.Strengths.Top
	profile.WeakTopics = analysis.Improvements.Top
	if analysis.Patterns.Engagement.Level == "high" {
		profile.LearningStyle = "active"
	} else {
		profile.LearningStyle = "balanced"
	}

	if err := a.profiles.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func calcMetrics(scores, durations []float64) Metrics {
	if len(scores) == 0 {
		return Metrics{}
	}
	m := Metrics{
		AverageScore:    average(scores),
		MaxScore:        scores[0],
		MinScore:        scores[0],
		ScoreVariance:   Variance(scores),
		ImprovementRate: improvementRate(scores),
		Consistency:     Consistency(scores),
	}
	for _, s := range scores {
		if s > m.MaxScore {
			m.MaxScore = s
		}
		if s < m.MinScore {
			m.MinScore = s
		}
	}
	if len(durations) > 0 {
		m.AverageDuration = average(durations)
		if m.AverageDuration > 0 {
			m.Efficiency = m.AverageScore / m.AverageDuration
		}
	}
	return m
}

func identifyPatterns(data SessionData) LearningPatterns {
	return LearningPatterns{
		TopicPreferences: topicPerformance(data.Topics, data.Scores),
		Curve:            learningCurve(data.Scores),
		Retention:        retention(data.Scores),
		Engagement:       engagement(data.Durations),
	}
}

// AnalyzeTrend fits a least-squares line through the score series. Fewer
// than two scores yields a zero-valued analysis with an empty trend label.
func AnalyzeTrend(scores []float64) TrendAnalysis {
	if len(scores) < 2 {
		return TrendAnalysis{}
	}
	n := float64(len(scores))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range scores {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n
	predicted := math.Max(0, math.Min(10, slope*n+intercept))

	trend := TrendStable
	if slope > 0.1 {
		trend = TrendImproving
	} else if slope < -0.1 {
		trend = TrendDeclining
	}
	return TrendAnalysis{
		Trend:              trend,
		Slope:              slope,
		PredictedNextScore: predicted,
		Momentum:           momentum(scores),
		Volatility:         math.Sqrt(Variance(scores)),
	}
}

func recommend(data SessionData) []Recommendation {
	var recs []Recommendation

	avg := averageOr(data.Scores, 5)
	switch {
	case avg < 6:
		recs = append(recs, Recommendation{
			Type:     "foundation",
			Priority: "high",
			Message:  "Focus on building strong foundation. Practice basic vocabulary and simple sentences.",
			Action:   "Increase practice frequency with level-appropriate content",
		})
	case avg < 8:
		recs = append(recs, Recommendation{
			Type:     "intermediate",
			Priority: "medium",
			Message:  "Good progress! Challenge yourself with more complex topics.",
			Action:   "Try level 2-3 topics to push boundaries",
		})
	default:
		recs = append(recs, Recommendation{
			Type:     "advanced",
			Priority: "low",
			Message:  "Excellent performance! Maintain consistency and explore advanced topics.",
			Action:   "Focus on fluency and natural expression",
		})
	}

	improvements := summarizeNotes(data.Improvements, true)
	if len(improvements.Top) > 0 {
		top := improvements.Top[0]
		recs = append(recs, Recommendation{
			Type:     "targeted",
			Priority: "high",
			Message:  fmt.Sprintf("Focus on improving: %s", top),
			Action:   fmt.Sprintf("Practice exercises specifically targeting %s", top),
		})
	}

	if weak := weakTopics(data.Topics, data.Scores, 3); len(weak) > 0 {
		recs = append(recs, Recommendation{
			Type:     "topic_focus",
			Priority: "medium",
			Message:  fmt.Sprintf("Review and practice these topics: %s", strings.Join(weak, ", ")),
			Action:   "Spend extra time on challenging topics",
		})
	}
	return recs
}

// DetermineLevel maps an average score to a learner level.
func DetermineLevel(avg float64) int {
	switch {
	case avg < 4:
		return LevelBeginner
	case avg < 7:
		return LevelIntermediate
	default:
		return LevelAdvanced
	}
}

// RecommendLevel bumps the level up for a strongly improving learner and
// down for a declining one.
func RecommendLevel(avg float64, trend TrendAnalysis) int {
	level := DetermineLevel(avg)
	if trend.Trend == TrendImproving && avg > 6.5 {
		if level < LevelAdvanced {
			level++
		}
	} else if trend.Trend == TrendDeclining && avg < 5 {
		if level > LevelBeginner {
			level--
		}
	}
	return level
}

func recommendPace(scores []float64) string {
	if len(scores) == 0 {
		return "normal"
	}
	rate := improvementRate(scores)
	switch {
	case rate > 0.2:
		return "accelerated"
	case rate < -0.1:
		return "slower"
	default:
		return "normal"
	}
}

func recommendFrequency(scores []float64) string {
	if len(scores) == 0 {
		return "moderate"
	}
	if Consistency(scores) < 0.5 {
		return "high"
	}
	return "moderate"
}

// summarizeNotes ranks recurring notes by frequency. Improvement notes also
// get bucketed into skill focus areas.
func summarizeNotes(notes [][]string, categorize bool) FrequencySummary {
	if len(notes) == 0 {
		return FrequencySummary{}
	}
	freq := make(map[string]int)
	order := make(map[string]int)
	for _, list := range notes {
		for _, note := range list {
			key := strings.ToLower(note)
			if _, seen := freq[key]; !seen {
				order[key] = len(order)
			}
			freq[key]++
		}
	}
	if len(freq) == 0 {
		return FrequencySummary{}
	}

	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return order[keys[i]] < order[keys[j]]
	})

	summary := FrequencySummary{
		Top:         firstN(keys, 5),
		Frequency:   freq,
		Consistency: 1,
	}
	if categorize {
		summary.FocusAreas = categorizeImprovements(keys)
	}
	return summary
}

// skill buckets for improvement notes; the first matching bucket wins and
// unmatched notes default to fluency.
var focusBuckets = []struct {
	name string
	cues []string
}{
	{"pronunciation", []string{"pronunciation", "pronounce", "sound", "accent"}},
	{"vocabulary", []string{"vocabulary", "word", "vocab"}},
	{"grammar", []string{"grammar", "sentence", "structure"}},
	{"fluency", []string{"fluency", "speed", "pace"}},
	{"comprehension", []string{"comprehension", "understand", "meaning"}},
}

func categorizeImprovements(notes []string) map[string][]string {
	out := make(map[string][]string)
	add := func(bucket, note string) {
		if len(out[bucket]) < 3 {
			out[bucket] = append(out[bucket], note)
		}
	}
	for _, note := range notes {
		matched := false
		for _, bucket := range focusBuckets {
			for _, cue := range bucket.cues {
				if strings.Contains(note, cue) {
					add(bucket.name, note)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			add("fluency", note)
		}
	}
	return out
}

func topicPerformance(topics []string, scores []float64) map[string]float64 {
	if len(topics) == 0 {
		return nil
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, topic := range topics {
		if i >= len(scores) {
			break
		}
		sums[topic] += scores[i]
		counts[topic]++
	}
	out := make(map[string]float64, len(sums))
	for topic, sum := range sums {
		out[topic] = sum / float64(counts[topic])
	}
	return out
}

func weakTopics(topics []string, scores []float64, max int) []string {
	perf := topicPerformance(topics, scores)
	if len(perf) == 0 {
		return nil
	}
	avg := averageOr(scores, 5)
	var weak []string
	for _, topic := range uniqueInOrder(topics) {
		if s, ok := perf[topic]; ok && s < avg {
			weak = append(weak, topic)
		}
	}
	return firstN(weak, max)
}

func learningCurve(scores []float64) LearningCurve {
	if len(scores) < 3 {
		return LearningCurve{}
	}
	segmentSize := len(scores) / 3
	if segmentSize < 1 {
		segmentSize = 1
	}
	var avgs []float64
	for i := 0; i < len(scores); i += segmentSize {
		end := i + segmentSize
		if end > len(scores) {
			end = len(scores)
		}
		avgs = append(avgs, average(scores[i:end]))
	}

	curve := LearningCurve{
		EarlyAvg:  avgs[0],
		RecentAvg: avgs[len(avgs)-1],
		CurveType: "stable",
	}
	if len(avgs) > 1 {
		curve.MidAvg = avgs[1]
	}
	if len(avgs) > 2 && curve.RecentAvg > curve.EarlyAvg {
		curve.CurveType = "accelerating"
	}
	return curve
}

func retention(scores []float64) Retention {
	if len(scores) < 2 {
		return Retention{}
	}
	r := Retention{Consistency: Consistency(scores)}
	if scores[0] > 0 {
		r.RetentionRate = 1 - math.Abs(scores[len(scores)-1]-scores[0])/10
	}
	return r
}

func engagement(durations []float64) Engagement {
	if len(durations) == 0 {
		return Engagement{}
	}
	avg := average(durations)
	level := "low"
	if avg > 300 {
		level = "high"
	} else if avg > 180 {
		level = "medium"
	}
	return Engagement{AvgDuration: avg, Level: level}
}

// Variance is the population variance of the score series.
func Variance(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	mean := average(scores)
	var sum float64
	for _, s := range scores {
		d := s - mean
		sum += d * d
	}
	return sum / float64(len(scores))
}

// Consistency normalizes variance into a 0..1 score; a flat series scores 1.
func Consistency(scores []float64) float64 {
	if len(scores) < 2 {
		return 1
	}
	return math.Max(0, 1-Variance(scores)/10)
}

func improvementRate(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	return (scores[len(scores)-1] - scores[0]) / float64(len(scores))
}

// momentum is the per-step change across the last three scores.
func momentum(scores []float64) float64 {
	if len(scores) < 3 {
		return 0
	}
	recent := scores[len(scores)-3:]
	return (recent[2] - recent[0]) / 3
}

func average(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func averageOr(xs []float64, fallback float64) float64 {
	if len(xs) == 0 {
		return fallback
	}
	return average(xs)
}

func firstN(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}

func uniqueInOrder(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	var out []string
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
