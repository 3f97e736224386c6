// Package schemas checks decoded documents and raw JSON against the embedded JSON Schemas.
package schemas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	embedded "github.com/jonathan/recruiting-agent/schemas"
)

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Type    string
	Message string
}

// ValidationError lists the violations of one document, sorted by field path.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("document does not match %s: %s", e.Schema, strings.Join(parts, "; "))
}

// LoadError is returned when an embedded schema is missing or does not compile.
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

var compiled sync.Map

func load(name string) (*gojsonschema.Schema, error) {
	if s, ok := compiled.Load(name); ok {
		return s.(*gojsonschema.Schema), nil
	}

	raw, err := embedded.Load(name)
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}

	actual, _ := compiled.LoadOrStore(name, schema)
	return actual.(*gojsonschema.Schema), nil
}

// ValidateDocument checks a decoded Go value such as map[string]any.
func ValidateDocument(schemaName string, doc any) error {
	return validate(schemaName, gojsonschema.NewGoLoader(doc))
}

// ValidateJSON checks raw JSON bytes. Malformed JSON is reported as a plain error.
func ValidateJSON(schemaName string, data []byte) error {
	return validate(schemaName, gojsonschema.NewBytesLoader(data))
}

func validate(schemaName string, doc gojsonschema.JSONLoader) error {
	schema, err := load(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("failed to read document for %s: %w", schemaName, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: schemaName, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Type: desc.Type(), Message: desc.Description()})
	}
	sort.SliceStable(verr.Errors, func(i, j int) bool {
		return verr.Errors[i].Field < verr.Errors[j].Field
	})
	return verr
}
