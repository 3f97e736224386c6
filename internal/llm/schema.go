package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes the JSON object a stage expects back.
type ExtractionSchema struct {
	Name   string
	Fields []SchemaField
}

// SchemaField is one top-level key of the expected object.
type SchemaField struct {
	Name string
	// Type is a hint such as "string", "number" or "array of string"
	Type        string
	Description string
	Required    bool
}

// RequiredFields returns the names of the required fields in declaration order.
func (s ExtractionSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Hint renders the response-shape instructions appended to a prompt.
func (s ExtractionSchema) Hint() string {
	lines := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		typ := f.Type
		if typ == "" {
			typ = "string"
		}
		line := fmt.Sprintf("  %q: %s", f.Name, typ)
		if f.Required {
			line += " (required)"
		}
		if f.Description != "" {
			line += " // " + f.Description
		}
		lines = append(lines, line)
	}

	return "Return ONLY valid JSON matching this exact structure:\n{\n" +
		strings.Join(lines, ",\n") +
		"\n}\nReturn ONLY the JSON object, no markdown, no explanation, no code blocks.\n"
}
