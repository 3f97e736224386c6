// Package llm - util.go provides shared utilities for LLM request and response processing.
package llm

import "strings"

// MaxEmbeddingChars bounds the text sent to the embedding model.
const MaxEmbeddingChars = 8000

// CleanJSONBlock removes markdown code block wrappers and any prose around a JSON object.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := strings.TrimSpace(text[:idx])
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Strip preamble or trailing commentary around an object
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}

	return text
}

// PrepareEmbeddingText flattens newlines and truncates text to MaxEmbeddingChars runes.
func PrepareEmbeddingText(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(text)
	if len(runes) > MaxEmbeddingChars {
		text = string(runes[:MaxEmbeddingChars])
	}
	return text
}
