// Package sample defines training-sample types shared by the store,
// trainer, and inference engine.
package sample

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors for sample validation.
var (
	ErrUnknownCategory = errors.New("unknown task category")
	ErrPayloadMismatch = errors.New("input payload does not match task category")
	ErrEmptyInput      = errors.New("input payload is empty")
	ErrEmptyOutput     = errors.New("expected output is empty")
)

// TaskCategory identifies a class of interaction the engine serves.
// Each category has its own sample pool and model lineage.
type TaskCategory string

const (
	// TaskConversation is open-ended conversational tutoring.
	TaskConversation TaskCategory = "conversation_ai"

	// TaskTranslationCheck verifies English-to-Vietnamese translations.
	TaskTranslationCheck TaskCategory = "translation_check"

	// TaskSpeakingPractice supports guided speaking practice sessions.
	TaskSpeakingPractice TaskCategory = "speaking_practice"

	// TaskGameConversation drives NPC dialogue in learning games.
	TaskGameConversation TaskCategory = "game_conversation"
)

// AllTaskCategories returns every task category the engine trains, in the
// order the orchestrator processes them.
func AllTaskCategories() []TaskCategory {
	return []TaskCategory{
		TaskConversation,
		TaskTranslationCheck,
		TaskSpeakingPractice,
		TaskGameConversation,
	}
}

// Valid reports whether the category is one the engine knows about.
func (c TaskCategory) Valid() bool {
	switch c {
	case TaskConversation, TaskTranslationCheck, TaskSpeakingPractice, TaskGameConversation:
		return true
	}
	return false
}

// Conversational reports whether the category uses the conversation-pattern
// training variant (every category except translation_check).
func (c TaskCategory) Conversational() bool {
	return c.Valid() && c != TaskTranslationCheck
}

// Turn is a single prior exchange in a dialogue history. TextContent holds
// the learner's utterance, AIResponse the engine's reply.
type Turn struct {
	TextContent string `json:"text_content,omitempty"`
	AIResponse  string `json:"ai_response,omitempty"`
}

// Text returns the turn's learner text, falling back to the engine reply
// when the learner side is empty.
func (t Turn) Text() string {
	if t.TextContent != "" {
		return t.TextContent
	}
	return t.AIResponse
}

// ConversationInput is the runtime input for the conversational categories.
type ConversationInput struct {
	UserMessage string `json:"user_message"`
	History     []Turn `json:"history,omitempty"`
}

// TranslationInput is the runtime input for translation_check.
type TranslationInput struct {
	EnglishText           string `json:"english_text"`
	VietnameseTranslation string `json:"vietnamese_translation"`
}

// Input is a tagged payload: exactly one variant is set, and which one must
// agree with the sample's task category. Validation happens at the store
// boundary so downstream code can rely on the shape.
type Input struct {
	Conversation *ConversationInput `json:"conversation,omitempty"`
	Translation  *TranslationInput  `json:"translation,omitempty"`
}

// Validate checks that the payload variant matches the task category.
func (in Input) Validate(cat TaskCategory) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if in.Conversation == nil && in.Translation == nil {
		return ErrEmptyInput
	}
	if cat.Conversational() {
		if in.Conversation == nil {
			return fmt.Errorf("%w: %s requires a conversation payload", ErrPayloadMismatch, cat)
		}
		if in.Translation != nil {
			return fmt.Errorf("%w: %s cannot carry a translation payload", ErrPayloadMismatch, cat)
		}
		return nil
	}
	if in.Translation == nil {
		return fmt.Errorf("%w: %s requires a translation payload", ErrPayloadMismatch, cat)
	}
	if in.Conversation != nil {
		return fmt.Errorf("%w: %s cannot carry a conversation payload", ErrPayloadMismatch, cat)
	}
	return nil
}

// Hash returns the content hash used for sample deduplication: the SHA-256
// of the canonical JSON encoding of the input payload.
func (in Input) Hash() string {
	data, err := json.Marshal(in)
	if err != nil {
		// Input is plain structs and slices; Marshal cannot fail in practice.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ConversationOutput is the expected output for the conversational categories.
type ConversationOutput struct {
	Response string `json:"response"`
}

// TranslationOutput is the expected output (or inference verdict) for
// translation_check.
type TranslationOutput struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback,omitempty"`
}

// Output is the tagged expected-output counterpart of Input.
type Output struct {
	Conversation *ConversationOutput `json:"conversation,omitempty"`
	Translation  *TranslationOutput  `json:"translation,omitempty"`
}

// Validate checks that the output variant matches the task category.
func (out Output) Validate(cat TaskCategory) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if out.Conversation == nil && out.Translation == nil {
		return ErrEmptyOutput
	}
	if cat.Conversational() && out.Conversation == nil {
		return fmt.Errorf("%w: %s requires a conversation output", ErrPayloadMismatch, cat)
	}
	if !cat.Conversational() && out.Translation == nil {
		return fmt.Errorf("%w: %s requires a translation output", ErrPayloadMismatch, cat)
	}
	return nil
}

// TrainingSample is one labeled interaction. Samples are immutable once
// written; uniqueness is enforced by (task_category, content hash).
type TrainingSample struct {
	ID           string       `json:"id"`
	TaskCategory TaskCategory `json:"task_category"`
	Input        Input        `json:"input"`
	Expected     Output       `json:"expected_output"`
	ContentHash  string       `json:"content_hash"`
	CreatedAt    time.Time    `json:"created_at"`
}

// New builds a validated training sample with a fresh ID and content hash.
func New(cat TaskCategory, in Input, out Output) (*TrainingSample, error) {
	if err := in.Validate(cat); err != nil {
		return nil, err
	}
	if err := out.Validate(cat); err != nil {
		return nil, err
	}
	return &TrainingSample{
		ID:           uuid.New().String(),
		TaskCategory: cat,
		Input:        in,
		Expected:     out,
		ContentHash:  in.Hash(),
		CreatedAt:    time.Now(),
	}, nil
}
