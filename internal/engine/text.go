package engine

import (
	"sort"
	"strings"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// stopwords excluded from keyword extraction. Tokens this common carry no
// signal for pattern matching.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {}, "me": {}, "him": {},
	"her": {}, "us": {}, "them": {}, "my": {}, "your": {}, "his": {},
	"its": {}, "our": {}, "their": {},
}

// topicRule maps a topic label to the cue words that signal it. Rules are
// evaluated in order and the best strictly-greater hit count wins, so
// earlier topics take ties.
type topicRule struct {
	topic string
	cues  []string
}

var topicRules = []topicRule{
	{"emotion", []string{"sad", "happy", "angry", "worried", "anxious", "excited", "depressed", "nervous", "scared"}},
	{"work", []string{"work", "job", "office", "boss", "colleague", "project", "meeting", "career"}},
	{"family", []string{"family", "parent", "mother", "father", "sibling", "brother", "sister", "child"}},
	{"relationship", []string{"friend", "boyfriend", "girlfriend", "partner", "love", "relationship", "dating"}},
	{"health", []string{"health", "sick", "ill", "doctor", "hospital", "pain", "tired", "sleep"}},
	{"education", []string{"school", "study", "exam", "test", "homework", "teacher", "student", "learn"}},
	{"hobby", []string{"hobby", "sport", "music", "movie", "book", "game", "travel", "cooking"}},
	{"future", []string{"future", "plan", "dream", "goal", "wish", "hope", "want", "aspiration"}},
}

// tokenize lowercases the text and splits it into alphanumeric word tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' ||
			r >= 0x00C0) // keep accented letters for Vietnamese text
	})
}

// ExtractKeywords returns up to max keywords from the text: non-stopword
// tokens longer than two characters, ordered by descending frequency with
// first occurrence breaking ties.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokenize(text) {
		if len(tok) <= 2 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		if _, ok := counts[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})
	if len(words) > max {
		words = words[:max]
	}
	return words
}

// DetectTopic classifies the message into one of the known topics by
// cue-word hit count, or "general" when nothing matches. The last two
// history turns contribute cues alongside the message itself.
func DetectTopic(text string, history []sample.Turn) string {
	parts := []string{text}
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		if t := turn.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	lower := strings.ToLower(strings.Join(parts, " "))
	best := "general"
	bestScore := 0
	for _, rule := range topicRules {
		score := 0
		for _, cue := range rule.cues {
			if strings.Contains(lower, cue) {
				score++
			}
		}
		if score > bestScore {
			best = rule.topic
			bestScore = score
		}
	}
	return best
}

// ExtractContextKeywords pulls up to max keywords from the last three turns
// of a dialogue history.
func ExtractContextKeywords(history []sample.Turn, max int) []string {
	if len(history) == 0 {
		return nil
	}
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	var parts []string
	for _, turn := range history[start:] {
		if t := turn.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return ExtractKeywords(strings.Join(parts, " "), max)
}

// ContextKey builds the bucket key for context-tier lookup: the first three
// context keywords joined by underscores, or "general" when there are none.
func ContextKey(contextKeywords []string) string {
	if len(contextKeywords) == 0 {
		return "general"
	}
	if len(contextKeywords) > 3 {
		contextKeywords = contextKeywords[:3]
	}
	return strings.Join(contextKeywords, "_")
}

// ClassifyResponseStyle labels a response by its dominant rhetorical move.
// The ladder is ordered; the first matching style wins.
func ClassifyResponseStyle(response string) string {
	lower := strings.ToLower(response)
	switch {
	case containsAnySubstring(lower, []string{"?", "what", "how", "why", "tell me"}):
		return "questioning"
	case containsAnySubstring(lower, []string{"sorry", "understand", "feel"}):
		return "empathetic"
	case containsAnySubstring(lower, []string{"great", "awesome", "amazing", "congratulations"}):
		return "encouraging"
	case containsAnySubstring(lower, []string{"okay", "sure", "yes", "alright"}):
		return "agreeing"
	default:
		return "general"
	}
}
