package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// RequiredStages lists the outputs a finished workflow must contain.
var RequiredStages = []string{
	types.StageKeyJobParser,
	types.StageKeySourcing,
	types.StageKeyScreening,
	types.StageKeyCompensation,
	types.StageKeyOfferLetter,
}

// ValidateWorkflowCompletion checks that every required stage produced an output
// and that none of them carries an error marker.
func ValidateWorkflowCompletion(outputs map[string]any) types.ValidationResult {
	var errs, warnings []string

	for _, stage := range RequiredStages {
		if out, ok := outputs[stage]; !ok || isEmpty(out) {
			errs = append(errs, fmt.Sprintf("Missing output from %s", stage))
		}
	}

	for _, stage := range sortedKeys(outputs) {
		out := outputs[stage]
		if text, ok := out.(string); ok {
			if strings.HasPrefix(text, types.OfferLetterFallback("")) {
				errs = append(errs, fmt.Sprintf("%s: %s", stage, text))
			}
			continue
		}
		fields, ok := Fields(out)
		if !ok {
			continue
		}
		if marker, ok := fields["error"]; ok && !isEmpty(marker) {
			errs = append(errs, fmt.Sprintf("%s: %v", stage, marker))
		}
	}

	if comp, ok := Fields(outputs[types.StageKeyCompensation]); ok {
		if target, ok := Number(comp["target_salary"]); !ok || target == 0 {
			warnings = append(warnings, "Target salary not set - offer letter may be incomplete")
		}
	}

	return newResult(errs, warnings)
}
