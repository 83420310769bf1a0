package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/metrics"
	"github.com/ashgrovelabs/tutord/internal/sample"
)

// Match tiers, from most to least specific.
const (
	TierTopic    = "topic"
	TierContext  = "context"
	TierKeyword  = "keyword"
	TierFallback = "fallback"
)

const (
	// coldThreshold gates conversational models out of serving until they
	// reach half accuracy.
	coldThreshold = 0.5

	// translationThreshold gates translation models; judgments need a
	// stronger model than open conversation.
	translationThreshold = 0.7

	// minKeywordOverlap is the match floor for a candidate pattern.
	minKeywordOverlap = 2

	// flatScanLimit stops the flat keyword scan once enough candidates
	// have been gathered.
	flatScanLimit = 5

	// topSelection is the pool size for randomized response selection.
	topSelection = 3
)

// Reply is one inference result. Translation is set only for
// translation_check.
type Reply struct {
	TaskCategory sample.TaskCategory       `json:"task_category"`
	Tier         string                    `json:"tier"`
	Text         string                    `json:"text,omitempty"`
	Translation  *sample.TranslationOutput `json:"translation,omitempty"`
	Matched      int                       `json:"matched_keywords"`
}

// EngineOption customizes inference behavior.
type EngineOption func(*Engine)

// WithRandIntn overrides the randomness source used for top-candidate
// selection. Tests use this for determinism.
func WithRandIntn(fn func(n int) int) EngineOption {
	return func(e *Engine) {
		e.randIntn = fn
	}
}

// Engine serves pattern-matched replies from the latest model snapshot,
// falling back to canned responses when the model is missing or cold.
type Engine struct {
	store    Store
	logger   *zap.Logger
	randIntn func(n int) int
}

// NewEngine wires an inference engine against the store.
func NewEngine(store Store, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{store: store, logger: logger, randIntn: rand.Intn}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond answers a conversational input for any of the conversational
// categories. It never fails on model problems; those degrade to fallback.
func (e *Engine) Respond(ctx context.Context, cat sample.TaskCategory, in sample.ConversationInput) (*Reply, error) {
	if !cat.Conversational() {
		return nil, ErrUnknownCategory
	}

	snap, err := e.store.CurrentSnapshot(ctx, cat)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			e.logger.Warn("snapshot lookup failed, serving fallback",
				zap.String("task_category", string(cat)), zap.Error(err))
		}
		return e.fallbackReply(cat, in), nil
	}
	if snap.Accuracy < coldThreshold {
		return e.fallbackReply(cat, in), nil
	}

	candidates := e.gather(snap.Patterns, in)
	if len(candidates) == 0 {
		return e.fallbackReply(cat, in), nil
	}

	chosen := e.pick(candidates)
	metrics.InferenceRequests.WithLabelValues(string(cat), chosen.tier).Inc()
	return &Reply{
		TaskCategory: cat,
		Tier:         chosen.tier,
		Text:         chosen.pattern.Response,
		Matched:      chosen.score,
	}, nil
}

// CheckTranslation judges a translation pair. A trained pattern must cover
// every English keyword and share at least one Vietnamese keyword; anything
// else falls through to heuristics.
func (e *Engine) CheckTranslation(ctx context.Context, in sample.TranslationInput) (*Reply, error) {
	snap, err := e.store.CurrentSnapshot(ctx, sample.TaskTranslationCheck)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			e.logger.Warn("snapshot lookup failed, serving fallback", zap.Error(err))
		}
		return e.translationFallbackReply(in), nil
	}
	if snap.Accuracy < translationThreshold {
		return e.translationFallbackReply(in), nil
	}

	english := strings.ToLower(in.EnglishText)
	vietnamese := strings.ToLower(in.VietnameseTranslation)
	for _, p := range snap.Patterns.Translation {
		if len(p.EnglishKeywords) == 0 {
			continue
		}
		if containsAllSubstrings(english, p.EnglishKeywords) && containsAnySubstring(vietnamese, p.VietnameseKeywords) {
			out := p.Output
			metrics.InferenceRequests.WithLabelValues(string(sample.TaskTranslationCheck), TierKeyword).Inc()
			return &Reply{
				TaskCategory: sample.TaskTranslationCheck,
				Tier:         TierKeyword,
				Translation:  &out,
				Matched:      len(p.EnglishKeywords),
			}, nil
		}
	}
	return e.translationFallbackReply(in), nil
}

type candidate struct {
	pattern Pattern
	score   int
	tier    string
}

// gather collects match candidates tier by tier: the topic bucket first,
// then the context bucket, then a flat scan used only when both buckets
// came up empty, stopping early once enough candidates exist. Duplicate
// patterns keep their first tier. A pattern matches when at least two of
// its keywords appear in the message.
func (e *Engine) gather(set PatternSet, in sample.ConversationInput) []candidate {
	var out []candidate
	seen := make(map[string]struct{})
	message := strings.ToLower(in.UserMessage)

	add := func(p Pattern, tier string) {
		score := 0
		for _, kw := range p.Keywords {
			if strings.Contains(message, kw) {
				score++
			}
		}
		if score < minKeywordOverlap {
			return
		}
		fp := strings.Join(p.Keywords, "|") + "\x00" + p.Response
		if _, dup := seen[fp]; dup {
			return
		}
		seen[fp] = struct{}{}
		out = append(out, candidate{pattern: p, score: score, tier: tier})
	}

	topic := DetectTopic(in.UserMessage, in.History)
	for _, p := range set.ByTopic[topic] {
		add(p, TierTopic)
	}

	budget := set.ContextBudget
	if budget <= 0 {
		budget = DefaultTrainerConfig().ContextKeywords
	}
	ctxKeywords := ExtractContextKeywords(in.History, budget)
	for _, p := range set.ByContext[ContextKey(ctxKeywords)] {
		add(p, TierContext)
	}

	// The flat scan is a last resort, not a supplement.
	if len(out) == 0 {
		for _, p := range set.Conversation {
			if len(out) >= flatScanLimit {
				break
			}
			add(p, TierKeyword)
		}
	}
	return out
}

// pick chooses randomly among the first three candidates, so repeated
// identical prompts do not always get the same reply. Candidates arrive in
// tier order and keep it; higher tiers stay in the pool.
func (e *Engine) pick(candidates []candidate) candidate {
	pool := topSelection
	if len(candidates) < pool {
		pool = len(candidates)
	}
	return candidates[e.randIntn(pool)]
}

func (e *Engine) fallbackReply(cat sample.TaskCategory, in sample.ConversationInput) *Reply {
	metrics.InferenceRequests.WithLabelValues(string(cat), TierFallback).Inc()
	return &Reply{
		TaskCategory: cat,
		Tier:         TierFallback,
		Text:         FallbackResponse(cat, in.UserMessage),
	}
}

func (e *Engine) translationFallbackReply(in sample.TranslationInput) *Reply {
	metrics.InferenceRequests.WithLabelValues(string(sample.TaskTranslationCheck), TierFallback).Inc()
	out := HeuristicTranslationCheck(in)
	return &Reply{
		TaskCategory: sample.TaskTranslationCheck,
		Tier:         TierFallback,
		Translation:  &out,
	}
}

func containsAllSubstrings(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func containsAnySubstring(text string, words []string) bool {
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
