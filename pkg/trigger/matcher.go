// Package trigger classifies transcribed speech against configured wake and
// stop phrase sets.
package trigger

import "strings"

// Default phrase sets used when the config does not override them.
var (
	DefaultWakePhrases = []string{"hey noted", "noted", "start listening", "start"}
	DefaultStopPhrases = []string{"stop listening", "end session", "goodbye noted", "stop", "done"}
)

// Matcher detects wake and stop phrases in free-text transcription lines.
type Matcher struct {
	wake []string
	stop []string
}

// NewMatcher creates a matcher for the given phrase sets. Nil slices fall
// back to the defaults.
func NewMatcher(wake, stop []string) *Matcher {
	if wake == nil {
		wake = DefaultWakePhrases
	}
	if stop == nil {
		stop = DefaultStopPhrases
	}
	return &Matcher{wake: wake, stop: stop}
}

// IsWake reports whether the text contains any wake phrase.
func (m *Matcher) IsWake(text string) bool {
	return containsAny(text, m.wake)
}

// IsStop reports whether the text contains any stop phrase.
func (m *Matcher) IsStop(text string) bool {
	return containsAny(text, m.stop)
}

// containsAny is the single matching primitive: lower-cased substring
// containment, first match wins. Short phrases like "start" fire inside
// longer unrelated words; callers rely on that behavior, so any move to
// tokenized matching happens here and nowhere else.
func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
