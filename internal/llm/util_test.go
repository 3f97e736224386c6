package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "plain JSON",
			input:    `  {"score": 80}  `,
			expected: `{"score": 80}`,
		},
		{
			name:     "preamble before object",
			input:    "Here is my evaluation:\n{\"score\": 80, \"recommendation\": \"HIRE\"}\nLet me know!",
			expected: `{"score": 80, "recommendation": "HIRE"}`,
		},
		{
			name:     "not JSON at all",
			input:    "I cannot help with that.",
			expected: "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestPrepareEmbeddingText(t *testing.T) {
	assert.Equal(t, "line one line two", PrepareEmbeddingText("line one\nline two\n"))

	long := strings.Repeat("é", MaxEmbeddingChars+10)
	assert.Len(t, []rune(PrepareEmbeddingText(long)), MaxEmbeddingChars)
}
