package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "line endings, spacing and bullets",
			input:    "## Tech\r\nLine one  with   spaces  \r\n\r\n\r\n\r\n* bullet ***bold***\n",
			expected: "## Tech\n\nLine one with spaces\n\n- bullet **bold**",
		},
		{
			name:     "invisible and control characters",
			input:    "Hello​ wor\x08ld",
			expected: "Hello world",
		},
		{
			name:     "dangling bold marker",
			input:    "**Executive Summary:** today **",
			expected: "**Executive Summary:** today",
		},
		{
			name:     "nfc normalization",
			input:    "Caf" + "é",
			expected: "Café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeMarkdown(tt.input))
		})
	}
}

func TestSanitizeHeadlineField(t *testing.T) {
	assert.Equal(t, "Big News Today", SanitizeHeadlineField("  Big\nNews​  Today ", 200))
	assert.Equal(t, "", SanitizeHeadlineField("", 200))
	assert.Equal(t, "The quick...", SanitizeHeadlineField("The quick brown fox jumps", 12))
}

func TestTruncateAtWord(t *testing.T) {
	assert.Equal(t, "short", TruncateAtWord("short", 50))
	assert.Equal(t, "The quick...", TruncateAtWord("The quick brown fox jumps", 12))
	assert.Equal(t, "abcdefghij...", TruncateAtWord("abcdefghijklmnop", 10))
}
