package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// Training result statuses.
const (
	StatusTrained = "trained"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// TrainerConfig bounds a training run.
type TrainerConfig struct {
	// MaxSamples caps how many recent samples one run reads.
	MaxSamples int

	// MinSamplesInitial is the floor for a category's first model.
	MinSamplesInitial int

	// MinSamplesRetrain is the floor once a model already exists.
	MinSamplesRetrain int

	// PatternCap bounds the flat conversation pattern list.
	PatternCap int

	// BucketCap bounds each topic and context bucket.
	BucketCap int

	// TranslationCap bounds the translation pattern list.
	TranslationCap int

	// KeywordsPerPattern is the keyword budget per learner message.
	KeywordsPerPattern int

	// TranslationKeywords is the keyword budget per translation side.
	TranslationKeywords int

	// ContextKeywords is the keyword budget for dialogue history.
	ContextKeywords int
}

// DefaultTrainerConfig returns the standard training bounds.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		MaxSamples:          1000,
		MinSamplesInitial:   3,
		MinSamplesRetrain:   5,
		PatternCap:          500,
		BucketCap:           20,
		TranslationCap:      100,
		KeywordsPerPattern:  8,
		TranslationKeywords: 5,
		ContextKeywords:     5,
	}
}

// TrainResult reports one training run. Status is always set; Snapshot is
// non-nil only when Status is StatusTrained.
type TrainResult struct {
	TaskCategory sample.TaskCategory `json:"task_category"`
	Status       string              `json:"status"`
	Samples      int                 `json:"samples"`
	Parsed       int                 `json:"parsed"`
	Accuracy     float64             `json:"accuracy"`
	Reason       string              `json:"reason,omitempty"`
	Snapshot     *Snapshot           `json:"-"`
}

// Trainer builds model snapshots from stored samples.
type Trainer struct {
	store  Store
	cfg    TrainerConfig
	logger *zap.Logger
}

// NewTrainer wires a trainer against the store. Zero config fields fall
// back to defaults.
func NewTrainer(store Store, cfg TrainerConfig, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultTrainerConfig()
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = def.MaxSamples
	}
	if cfg.MinSamplesInitial <= 0 {
		cfg.MinSamplesInitial = def.MinSamplesInitial
	}
	if cfg.MinSamplesRetrain <= 0 {
		cfg.MinSamplesRetrain = def.MinSamplesRetrain
	}
	if cfg.PatternCap <= 0 {
		cfg.PatternCap = def.PatternCap
	}
	if cfg.BucketCap <= 0 {
		cfg.BucketCap = def.BucketCap
	}
	if cfg.TranslationCap <= 0 {
		cfg.TranslationCap = def.TranslationCap
	}
	if cfg.KeywordsPerPattern <= 0 {
		cfg.KeywordsPerPattern = def.KeywordsPerPattern
	}
	if cfg.TranslationKeywords <= 0 {
		cfg.TranslationKeywords = def.TranslationKeywords
	}
	if cfg.ContextKeywords <= 0 {
		cfg.ContextKeywords = def.ContextKeywords
	}
	return &Trainer{store: store, cfg: cfg, logger: logger}
}

// Train builds and persists a new snapshot for the category. When the
// sample pool is below the applicable floor the run is skipped, not failed.
func (t *Trainer) Train(ctx context.Context, cat sample.TaskCategory) (*TrainResult, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	samples, err := t.store.RecentSamples(ctx, cat, t.cfg.MaxSamples)
	if err != nil {
		return &TrainResult{TaskCategory: cat, Status: StatusError, Reason: "loading samples"},
			fmt.Errorf("loading samples for %s: %w", cat, err)
	}

	floor := t.cfg.MinSamplesInitial
	if _, err := t.store.CurrentSnapshot(ctx, cat); err == nil {
		floor = t.cfg.MinSamplesRetrain
	}
	if len(samples) < floor {
		t.logger.Info("training skipped",
			zap.String("task_category", string(cat)),
			zap.Int("samples", len(samples)),
			zap.Int("floor", floor))
		return &TrainResult{
			TaskCategory: cat,
			Status:       StatusSkipped,
			Samples:      len(samples),
			Reason:       fmt.Sprintf("insufficient samples: %d < %d", len(samples), floor),
		}, nil
	}

	var (
		patterns PatternSet
		parsed   int
	)
	if cat == sample.TaskTranslationCheck {
		patterns, parsed = t.buildTranslationPatterns(samples)
	} else {
		patterns, parsed = t.buildConversationPatterns(samples)
	}

	accuracy := t.accuracy(cat, samples, parsed)
	snap := &Snapshot{
		ID:           uuid.New().String(),
		TaskCategory: cat,
		Accuracy:     accuracy,
		Patterns:     patterns,
		TrainedAt:    time.Now(),
	}
	if err := t.store.InsertSnapshot(ctx, snap); err != nil {
		return &TrainResult{TaskCategory: cat, Status: StatusError, Reason: "persisting snapshot"},
			fmt.Errorf("persisting snapshot for %s: %w", cat, err)
	}

	t.logger.Info("model trained",
		zap.String("task_category", string(cat)),
		zap.String("snapshot_id", snap.ID),
		zap.Int("samples", len(samples)),
		zap.Int("parsed", parsed),
		zap.Float64("accuracy", accuracy))

	return &TrainResult{
		TaskCategory: cat,
		Status:       StatusTrained,
		Samples:      len(samples),
		Parsed:       parsed,
		Accuracy:     accuracy,
		Snapshot:     snap,
	}, nil
}

// accuracy is the training-quality proxy: the parse rate for conversational
// categories, and the share of correct-labeled pairs for translation.
func (t *Trainer) accuracy(cat sample.TaskCategory, samples []*sample.TrainingSample, parsed int) float64 {
	if len(samples) == 0 {
		return 0
	}
	if cat == sample.TaskTranslationCheck {
		correct := 0
		for _, s := range samples {
			if s.Expected.Translation != nil && s.Expected.Translation.Correct {
				correct++
			}
		}
		return float64(correct) / float64(len(samples))
	}
	return float64(parsed) / float64(len(samples))
}

// buildConversationPatterns derives one pattern per parseable sample and
// indexes it into the topic and context buckets. Malformed samples count
// against accuracy but never abort the run.
func (t *Trainer) buildConversationPatterns(samples []*sample.TrainingSample) (PatternSet, int) {
	set := PatternSet{
		ByTopic:       make(map[string][]Pattern),
		ByContext:     make(map[string][]Pattern),
		ContextBudget: t.cfg.ContextKeywords,
	}
	parsed := 0
	for _, s := range samples {
		in := s.Input.Conversation
		out := s.Expected.Conversation
		if in == nil || out == nil || in.UserMessage == "" || out.Response == "" {
			continue
		}
		parsed++
		ctxKeywords := ExtractContextKeywords(in.History, t.cfg.ContextKeywords)
		p := Pattern{
			Keywords:        ExtractKeywords(in.UserMessage, t.cfg.KeywordsPerPattern),
			Response:        out.Response,
			Topic:           DetectTopic(in.UserMessage, in.History),
			ContextKeywords: ctxKeywords,
			HistoryLength:   len(in.History),
			ResponseLength:  len(strings.Fields(out.Response)),
			ResponseStyle:   ClassifyResponseStyle(out.Response),
		}
		set.Conversation = append(set.Conversation, p)
		if len(set.ByTopic[p.Topic]) < t.cfg.BucketCap {
			set.ByTopic[p.Topic] = append(set.ByTopic[p.Topic], p)
		}
		key := ContextKey(ctxKeywords)
		if len(set.ByContext[key]) < t.cfg.BucketCap {
			set.ByContext[key] = append(set.ByContext[key], p)
		}
	}
	if len(set.Conversation) > t.cfg.PatternCap {
		set.Conversation = set.Conversation[:t.cfg.PatternCap]
	}
	return set, parsed
}

func (t *Trainer) buildTranslationPatterns(samples []*sample.TrainingSample) (PatternSet, int) {
	var set PatternSet
	parsed := 0
	for _, s := range samples {
		in := s.Input.Translation
		out := s.Expected.Translation
		if in == nil || out == nil || in.EnglishText == "" || in.VietnameseTranslation == "" {
			continue
		}
		parsed++
		if len(set.Translation) >= t.cfg.TranslationCap {
			continue
		}
		set.Translation = append(set.Translation, TranslationPattern{
			EnglishKeywords:    ExtractKeywords(in.EnglishText, t.cfg.TranslationKeywords),
			VietnameseKeywords: ExtractKeywords(in.VietnameseTranslation, t.cfg.TranslationKeywords),
			Output:             *out,
		})
	}
	return set, parsed
}
