// Package validation checks workflow inputs, stage outputs and workflow completion,
// and screens untrusted document text for prompt injection.
// Every check is pure: it returns a ValidationResult and never mutates its arguments.
package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Error represents a failed input or output check
type Error struct {
	Subject string
	Result  types.ValidationResult
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Subject, strings.Join(e.Result.Errors, "; "))
}

// AsError returns nil when r is valid, otherwise an *Error describing it.
func AsError(subject string, r types.ValidationResult) error {
	if r.Valid {
		return nil
	}
	return &Error{Subject: subject, Result: r}
}

func newResult(errs, warnings []string) types.ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return types.ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
