package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

func TestExtractKeywords(t *testing.T) {
	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		got := ExtractKeywords("I am at the office today", 8)
		assert.Equal(t, []string{"office", "today"}, got)
	})

	t.Run("frequency then first occurrence", func(t *testing.T) {
		got := ExtractKeywords("coffee morning coffee routine morning coffee", 3)
		assert.Equal(t, []string{"coffee", "morning", "routine"}, got)
	})

	t.Run("respects max", func(t *testing.T) {
		got := ExtractKeywords("apples bananas cherries grapes", 2)
		assert.Len(t, got, 2)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, ExtractKeywords("", 8))
	})
}

func TestDetectTopic(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"i feel so sad and worried today", "emotion"},
		{"my boss scheduled another meeting at the office", "work"},
		{"my mother and father visited", "family"},
		{"my girlfriend and i started dating", "relationship"},
		{"the doctor said my sleep is bad", "health"},
		{"studying for the exam with my teacher", "education"},
		{"playing sport and listening to music", "hobby"},
		{"my dream is to plan for the future", "future"},
		{"quantum entanglement", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTopic(tt.text, nil))
		})
	}
}

func TestDetectTopicTieGoesToFirstRule(t *testing.T) {
	// One cue each for emotion and work; the earlier rule keeps ties.
	assert.Equal(t, "emotion", DetectTopic("i am happy at work", nil))
}

func TestDetectTopicUsesRecentHistory(t *testing.T) {
	history := []sample.Turn{
		{TextContent: "my boss scheduled a meeting at the office with a colleague"},
		{TextContent: "my mother visited"},
		{AIResponse: "your father and sibling came along too"},
	}
	// The message alone carries no cues; the last two turns decide, and
	// the work-heavy turn before them is outside the window.
	assert.Equal(t, "family", DetectTopic("that sounds about right", history))
	assert.Equal(t, "general", DetectTopic("that sounds about right", nil))
}

func TestExtractContextKeywords(t *testing.T) {
	history := []sample.Turn{
		{TextContent: "we talked about gardens"},
		{TextContent: "then about cooking dinner"},
		{TextContent: "my favorite restaurant downtown"},
		{AIResponse: "tell me about the restaurant menu"},
	}
	got := ExtractContextKeywords(history, 5)
	assert.NotEmpty(t, got)
	assert.Contains(t, got, "restaurant")
	// Only the last three turns count; the first turn's words are gone.
	assert.NotContains(t, got, "gardens")
}

func TestContextKey(t *testing.T) {
	assert.Equal(t, "general", ContextKey(nil))
	assert.Equal(t, "food_dinner_restaurant", ContextKey([]string{"food", "dinner", "restaurant", "extra"}))
	assert.Equal(t, "food", ContextKey([]string{"food"}))
}

func TestClassifyResponseStyle(t *testing.T) {
	tests := []struct {
		response string
		want     string
	}{
		{"What happened next?", "questioning"},
		{"Tell me more about your day.", "questioning"},
		{"I'm sorry that happened.", "empathetic"},
		{"I understand.", "empathetic"},
		{"Congratulations, that was awesome!", "encouraging"},
		{"Okay, sure.", "agreeing"},
		{"Let's keep practicing.", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyResponseStyle(tt.response))
		})
	}
}
