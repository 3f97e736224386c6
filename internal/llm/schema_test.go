package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionSchema_Hint(t *testing.T) {
	schema := ExtractionSchema{
		Name: "Screening",
		Fields: []SchemaField{
			{Name: "score", Type: "number", Description: "0-100", Required: true},
			{Name: "reasoning"},
		},
	}

	assert.Equal(t,
		"Return ONLY valid JSON matching this exact structure:\n{\n"+
			"  \"score\": number (required) // 0-100,\n"+
			"  \"reasoning\": string\n"+
			"}\nReturn ONLY the JSON object, no markdown, no explanation, no code blocks.\n",
		schema.Hint())
	assert.Equal(t, []string{"score"}, schema.RequiredFields())
}
