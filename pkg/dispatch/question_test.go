package dispatch

import "testing"

func TestIsQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		// Leading interrogative words
		{"what is the capital of France", true},
		{"how does photosynthesis work", true},
		{"can you repeat that", true},
		{"is this working", true},
		{"did we cover this last week", true},

		// Trailing question mark
		{"this is a question?", true},

		// Pattern matches
		{"tell me about gravity", true},
		{"explain quantum entanglement", true},
		{"define osmosis", true},

		// Phrase matches anywhere in the line
		{"i wonder about the capital of spain", true},
		{"the meaning of life came up", true},

		// Not questions
		{"the quarterly numbers look good", false},
		{"remember to send the slides", false},
		{"gravity is a force", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsQuestion(tt.text); got != tt.want {
			t.Errorf("IsQuestion(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
