package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/jonathan/recruiting-agent/internal/schemas"
	"github.com/jonathan/recruiting-agent/internal/types"
	embedded "github.com/jonathan/recruiting-agent/schemas"
)

// ValidateOutput checks a stage output against its required fields and the known type map.
// Type mismatches are reported as warnings and never make the result invalid.
func ValidateOutput(stage string, output any, required []string) types.ValidationResult {
	fields, ok := Fields(output)
	if !ok {
		return newResult([]string{fmt.Sprintf("%s: Output must be a field-keyed structure", stage)}, nil)
	}

	var errs, warnings []string
	for _, field := range required {
		if _, present := fields[field]; !present {
			errs = append(errs, fmt.Sprintf("%s: Missing field '%s'", stage, field))
		}
	}

	for _, field := range sortedKeys(fields) {
		if isEmpty(fields[field]) {
			warnings = append(warnings, fmt.Sprintf("%s: Field '%s' is empty", stage, field))
		}
	}

	warnings = append(warnings, typeWarnings(stage, fields)...)

	return newResult(errs, warnings)
}

func typeWarnings(stage string, fields map[string]any) []string {
	present := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			present[k] = v
		}
	}
	if len(present) == 0 {
		return nil
	}

	err := schemas.ValidateDocument(embedded.StageOutput, present)
	if err == nil {
		return nil
	}

	var verr *schemas.ValidationError
	if !errors.As(err, &verr) {
		return []string{fmt.Sprintf("%s: type check skipped: %v", stage, err)}
	}

	warnings := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		warnings = append(warnings, fmt.Sprintf("%s: Field '%s' has unexpected type: %s", stage, fe.Field, fe.Message))
	}
	return warnings
}

// Fields converts a structured output into a field-keyed map.
// Maps are returned as-is; structs are converted through their JSON encoding.
func Fields(output any) (map[string]any, bool) {
	switch v := output.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case string, []byte:
		return nil, false
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Number extracts a numeric field value decoded from JSON or set in Go.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
