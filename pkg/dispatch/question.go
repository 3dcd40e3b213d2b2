package dispatch

import (
	"regexp"
	"strings"
)

// questionWords classify a line as a question when it starts with one of
// them followed by a space.
var questionWords = []string{
	"what", "where", "when", "why", "how", "who", "which", "whose", "whom",
	"is", "are", "was", "were", "do", "does", "did", "can", "could", "would", "should",
	"will", "shall", "may", "might", "have", "has", "had",
}

var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^what\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^how\s+(do|does|did|can|could|would|should|is|are|was|were)`),
	regexp.MustCompile(`^where\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^when\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^why\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^who\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^which\s+(is|are|was|were|do|does|did|can|could|would|should)`),
	regexp.MustCompile(`^can\s+you`),
	regexp.MustCompile(`^could\s+you`),
	regexp.MustCompile(`^would\s+you`),
	regexp.MustCompile(`^should\s+i`),
	regexp.MustCompile(`^do\s+you\s+know`),
	regexp.MustCompile(`^tell\s+me`),
	regexp.MustCompile(`^explain`),
	regexp.MustCompile(`^define`),
}

var questionPhrases = []string{
	"what is the", "what are the", "how do i", "how does", "where is", "where are",
	"when is", "when are", "why is", "why are", "who is", "who are",
	"capital of", "population of", "size of", "meaning of", "definition of",
}

// IsQuestion reports whether a transcription line should be routed to the
// assistant instead of the note path. The heuristic is a union: a leading
// interrogative word, a trailing question mark, a known question pattern, or
// a known question phrase anywhere in the line. Any single match qualifies.
func IsQuestion(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, word := range questionWords {
		if strings.HasPrefix(lower, word+" ") {
			return true
		}
	}

	if strings.HasSuffix(lower, "?") {
		return true
	}

	for _, pattern := range questionPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	for _, phrase := range questionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}
