package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// fallbackRule pairs trigger words with a canned response. Rules are
// evaluated in order; the first hit wins.
type fallbackRule struct {
	triggers []string
	response string
}

var conversationFallbacks = []fallbackRule{
	{[]string{"sad", "unhappy", "depressed", "down", "bad"},
		"Oh no... that sounds really hard. I'm here with you. What's going on?"},
	{[]string{"happy", "excited", "great", "good", "amazing"},
		"That's awesome! I'm so happy for you! Tell me more about it!"},
	{[]string{"worried", "anxious", "nervous", "scared"},
		"I understand that feeling. It's okay to feel that way. What's on your mind?"},
	{[]string{"thank", "thanks"},
		"You're welcome! I'm here whenever you need me."},
}

const conversationDefault = "I hear you. That sounds important. Can you tell me more?"

var practiceFallbacks = []fallbackRule{
	{[]string{"practice", "practicing", "pronunciation"},
		"Great! Let's practice together. What word or phrase would you like to work on? I'll help you pronounce it correctly."},
	{[]string{"improve", "better", "skills"},
		"That's wonderful! Practice makes perfect. Let's work on your speaking skills together. What would you like to practice?"},
	{[]string{"nervous", "afraid", "scared", "worried"},
		"I understand that feeling. It's completely normal to feel nervous. Let's start with something easy and build your confidence. What topic are you comfortable talking about?"},
}

const practiceDefault = "I'm here to help you practice! What would you like to work on today?"

var gameFallbacks = []fallbackRule{
	{[]string{"key", "door", "open", "find"},
		"You're looking for something? Let me help you. Have you talked to the shopkeeper? They might know where it is. Or maybe check with the librarian - they often have information about important items."},
	{[]string{"quest", "mission", "complete", "finish"},
		"To complete this quest, you'll need to talk to several people. First, visit the village elder to get information. Then, speak with the merchant to get supplies. Finally, talk to the guard to get permission. Each person has a piece of the puzzle!"},
	{[]string{"stuck", "help", "what", "next", "do"},
		"Don't worry! There are many people who can help you. Try talking to: the guide at the entrance, the helper at the market, or the advisor at the castle. Each person has different information and can guide you in different ways."},
	{[]string{"talked", "spoke", "said", "told"},
		"Good progress! Based on what you learned, try talking to the next person in the chain. Each conversation brings you closer to your goal!"},
	{[]string{"collect", "items", "get", "need"},
		"To collect items, you'll need to talk to different people. The collector has rare items, the trader has common supplies, and the artisan can create special items. Start by talking to the collector!"},
}

const gameDefault = "To progress in this game, you need to interact with different characters. Try talking to: the farmer, the blacksmith, or the scholar. Each conversation will help you get closer to completing your goal!"

// FallbackResponse returns the canned reply for a conversational category.
// It is the serving path whenever no model is ready.
func FallbackResponse(cat sample.TaskCategory, userMessage string) string {
	var (
		rules []fallbackRule
		def   string
	)
	switch cat {
	case sample.TaskSpeakingPractice:
		rules, def = practiceFallbacks, practiceDefault
	case sample.TaskGameConversation:
		rules, def = gameFallbacks, gameDefault
	default:
		rules, def = conversationFallbacks, conversationDefault
	}

	lower := strings.ToLower(userMessage)
	for _, rule := range rules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				return rule.response
			}
		}
	}
	return def
}

// HeuristicTranslationCheck judges a translation pair without a model,
// using length ratios as a sanity check. Feedback is in Vietnamese, the
// learner's native language.
func HeuristicTranslationCheck(in sample.TranslationInput) sample.TranslationOutput {
	translation := strings.TrimSpace(in.VietnameseTranslation)
	if utf8.RuneCountInString(translation) < 3 {
		return sample.TranslationOutput{
			Correct:  false,
			Feedback: "Bản dịch quá ngắn. Hãy thử lại.",
		}
	}

	englishWords := len(strings.Fields(in.EnglishText))
	vietnameseWords := len(strings.Fields(translation))

	if float64(vietnameseWords) < float64(englishWords)*0.3 {
		return sample.TranslationOutput{
			Correct:  false,
			Feedback: "Bản dịch có vẻ quá ngắn so với đoạn văn gốc.",
		}
	}
	if float64(vietnameseWords) > float64(englishWords)*2 {
		return sample.TranslationOutput{
			Correct:  false,
			Feedback: "Bản dịch có vẻ quá dài so với đoạn văn gốc.",
		}
	}
	return sample.TranslationOutput{
		Correct:  true,
		Feedback: "Chính xác! Bạn đã hiểu đúng nghĩa.",
	}
}
