package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Input limits.
const (
	MinDescriptionLength = 50
	MaxDescriptionLength = 5000
	LowSalaryFloor       = 20000
	HighSalaryCeiling    = 1_000_000
)

// ValidateInput checks the caller-supplied workflow fields.
func ValidateInput(in types.WorkflowInput) types.ValidationResult {
	var errs, warnings []string

	// lengths count characters of the trimmed text, not bytes
	descLen := utf8.RuneCountInString(strings.TrimSpace(in.JobDescription))
	if descLen < MinDescriptionLength {
		errs = append(errs, "Job description must be at least 50 characters")
	}
	if descLen > MaxDescriptionLength {
		warnings = append(warnings, "Very long job description - may increase processing time")
	}

	if strings.TrimSpace(in.CompanyName) == "" {
		errs = append(errs, "Company name is required")
	}

	if strings.TrimSpace(in.Department) == "" {
		warnings = append(warnings, "Department not specified - using 'General'")
	}

	if in.SalaryFloor <= 0 || in.SalaryCeiling <= 0 {
		errs = append(errs, "Salary range must be positive numbers")
	}
	if in.SalaryFloor >= in.SalaryCeiling {
		errs = append(errs, "Minimum salary must be less than maximum salary")
	}
	if in.SalaryFloor < LowSalaryFloor {
		warnings = append(warnings, "Minimum salary seems very low")
	}
	if in.SalaryCeiling > HighSalaryCeiling {
		warnings = append(warnings, "Maximum salary seems very high")
	}

	return newResult(errs, warnings)
}
