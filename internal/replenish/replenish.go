// Package replenish tops up a category's sample pool with synthetic
// training samples when organic collection runs dry.
package replenish

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// SampleStore is the persistence surface the replenisher needs.
type SampleStore interface {
	InsertSample(ctx context.Context, ts *sample.TrainingSample) (bool, error)
	CountSamples(ctx context.Context, cat sample.TaskCategory) (int, error)
}

// Result reports one replenishment run. Duplicates are generated samples
// that already existed in the pool; they are skipped, not errors.
type Result struct {
	TaskCategory sample.TaskCategory `json:"task_category"`
	Requested    int                 `json:"requested"`
	Inserted     int                 `json:"inserted"`
	Duplicates   int                 `json:"duplicates"`
}

// Replenisher generates synthetic samples from curated dialogue templates,
// varied with faked names, places, and topics so repeated runs keep
// producing fresh material.
type Replenisher struct {
	store  SampleStore
	faker  *gofakeit.Faker
	logger *zap.Logger
}

// New wires a replenisher. Seed zero means random seeding; tests pass a
// fixed seed.
func New(store SampleStore, seed int64, logger *zap.Logger) *Replenisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replenisher{
		store:  store,
		faker:  gofakeit.New(seed),
		logger: logger,
	}
}

// TopUp generates samples for the category until the pool reaches target,
// or does nothing when it is already there.
func (r *Replenisher) TopUp(ctx context.Context, cat sample.TaskCategory, target int) (*Result, error) {
	current, err := r.store.CountSamples(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("counting samples for %s: %w", cat, err)
	}
	if current >= target {
		return &Result{TaskCategory: cat}, nil
	}
	return r.Replenish(ctx, cat, target-current)
}

// Replenish generates and stores count synthetic samples for the category.
func (r *Replenisher) Replenish(ctx context.Context, cat sample.TaskCategory, count int) (*Result, error) {
	samples, err := r.Generate(cat, count)
	if err != nil {
		return nil, err
	}

	result := &Result{TaskCategory: cat, Requested: count}
	for _, ts := range samples {
		inserted, err := r.store.InsertSample(ctx, ts)
		if err != nil {
			return result, fmt.Errorf("storing generated sample: %w", err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	r.logger.Info("sample pool replenished",
		zap.String("task_category", string(cat)),
		zap.Int("requested", result.Requested),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates))
	return result, nil
}

// Generate builds count synthetic samples for the category without storing
// them.
func (r *Replenisher) Generate(cat sample.TaskCategory, count int) ([]*sample.TrainingSample, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", sample.ErrUnknownCategory, cat)
	}
	var out []*sample.TrainingSample
	for len(out) < count {
		var (
			ts  *sample.TrainingSample
			err error
		)
		switch cat {
		case sample.TaskTranslationCheck:
			ts, err = r.translationSample(len(out))
		case sample.TaskSpeakingPractice:
			ts, err = r.practiceSample(len(out))
		case sample.TaskGameConversation:
			ts, err = r.gameSample(len(out))
		default:
			ts, err = r.conversationSample(len(out))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (r *Replenisher) conversationSample(i int) (*sample.TrainingSample, error) {
	base := conversationTemplates[i%len(conversationTemplates)]
	round := i / len(conversationTemplates)

	// First pass emits the templates as-is; later passes turn them into
	// follow-up exchanges with history, varied so the content hash differs.
	if round == 0 {
		return sample.New(sample.TaskConversation,
			sample.Input{Conversation: &sample.ConversationInput{UserMessage: base.user}},
			sample.Output{Conversation: &sample.ConversationOutput{Response: base.ai}},
		)
	}

	followUp := followUps[i%len(followUps)]
	history := []sample.Turn{
		{TextContent: base.user, AIResponse: base.ai},
		{TextContent: fmt.Sprintf("It happened in %s with %s.", r.faker.City(), r.faker.Name())},
	}
	return sample.New(sample.TaskConversation,
		sample.Input{Conversation: &sample.ConversationInput{UserMessage: followUp, History: history}},
		sample.Output{Conversation: &sample.ConversationOutput{Response: followUpResponses[i%len(followUpResponses)]}},
	)
}

func (r *Replenisher) practiceSample(i int) (*sample.TrainingSample, error) {
	base := practiceTemplates[i%len(practiceTemplates)]
	round := i / len(practiceTemplates)
	msg := base.user
	if round > 0 {
		msg = fmt.Sprintf("%s I keep mixing up the word %q.", base.user, r.faker.Word())
	}
	return sample.New(sample.TaskSpeakingPractice,
		sample.Input{Conversation: &sample.ConversationInput{UserMessage: msg}},
		sample.Output{Conversation: &sample.ConversationOutput{Response: base.ai}},
	)
}

func (r *Replenisher) gameSample(i int) (*sample.TrainingSample, error) {
	base := gameTemplates[i%len(gameTemplates)]
	round := i / len(gameTemplates)
	msg := base.user
	if round > 0 {
		msg = fmt.Sprintf("%s I already talked to %s in %s.", base.user, r.faker.Name(), r.faker.City())
	}
	return sample.New(sample.TaskGameConversation,
		sample.Input{Conversation: &sample.ConversationInput{UserMessage: msg}},
		sample.Output{Conversation: &sample.ConversationOutput{Response: base.ai}},
	)
}

func (r *Replenisher) translationSample(i int) (*sample.TrainingSample, error) {
	pair := translationPairs[i%len(translationPairs)]
	round := i / len(translationPairs)
	english, vietnamese := pair.english, pair.vietnamese
	if round > 0 {
		// Wrap the pair in a reported-speech carrier so repeated rounds
		// produce distinct samples with the same correctness label.
		carrier := translationCarriers[round%len(translationCarriers)]
		english = fmt.Sprintf(carrier.english, english)
		vietnamese = fmt.Sprintf(carrier.vietnamese, vietnamese)
	}
	return sample.New(sample.TaskTranslationCheck,
		sample.Input{Translation: &sample.TranslationInput{
			EnglishText:           english,
			VietnameseTranslation: vietnamese,
		}},
		sample.Output{Translation: &sample.TranslationOutput{
			Correct:  pair.correct,
			Feedback: pair.feedback,
		}},
	)
}
