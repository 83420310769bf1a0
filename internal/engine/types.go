// Package engine trains pattern models from stored samples and serves
// tiered pattern-matched inference from the latest snapshot.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// Common errors returned by the engine.
var (
	ErrNoSnapshot      = errors.New("no model snapshot for task category")
	ErrNoSamples       = errors.New("no usable training samples")
	ErrUnknownCategory = errors.New("unknown task category")
)

// Pattern is one learned conversational pattern: the keyword signature of a
// learner message together with the response that answered it, plus the
// derived features used for tiered lookup.
type Pattern struct {
	Keywords        []string `json:"keywords"`
	Response        string   `json:"response"`
	Topic           string   `json:"topic,omitempty"`
	ContextKeywords []string `json:"context_keywords,omitempty"`
	HistoryLength   int      `json:"history_length"`
	ResponseLength  int      `json:"response_length"`
	ResponseStyle   string   `json:"response_style,omitempty"`
}

// TranslationPattern is one learned translation judgment keyed by the
// keywords of both sides of the pair.
type TranslationPattern struct {
	EnglishKeywords    []string                 `json:"english_keywords"`
	VietnameseKeywords []string                 `json:"vietnamese_keywords"`
	Output             sample.TranslationOutput `json:"output"`
}

// PatternSet is the serialized body of a trained model. Conversational
// categories fill the conversation buckets; translation_check fills
// Translation.
type PatternSet struct {
	Conversation []Pattern            `json:"conversation_patterns,omitempty"`
	ByTopic      map[string][]Pattern `json:"topic_patterns,omitempty"`
	ByContext    map[string][]Pattern `json:"context_patterns,omitempty"`
	Translation  []TranslationPattern `json:"patterns,omitempty"`

	// ContextBudget records the context keyword budget the model was
	// trained with, so inference builds identical bucket keys.
	ContextBudget int `json:"context_keyword_budget,omitempty"`
}

// Snapshot is one immutable trained model version. The newest snapshot per
// category is the serving model.
type Snapshot struct {
	ID           string              `json:"id"`
	TaskCategory sample.TaskCategory `json:"task_category"`
	Accuracy     float64             `json:"accuracy_score"`
	Patterns     PatternSet          `json:"patterns"`
	TrainedAt    time.Time           `json:"trained_at"`
}

// Store is the persistence surface the engine needs. The sqlite store
// satisfies it.
type Store interface {
	// RecentSamples returns up to limit samples for the category,
	// newest first.
	RecentSamples(ctx context.Context, cat sample.TaskCategory, limit int) ([]*sample.TrainingSample, error)

	// CurrentSnapshot returns the latest snapshot for the category, or
	// ErrNoSnapshot when the category has never been trained.
	CurrentSnapshot(ctx context.Context, cat sample.TaskCategory) (*Snapshot, error)

	// InsertSnapshot persists a new snapshot.
	InsertSnapshot(ctx context.Context, snap *Snapshot) error
}
