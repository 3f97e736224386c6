// Package types provides type definitions for structured data used throughout the recruiting workflow.
//
//nolint:revive // types is a standard Go package name pattern
package types

// FallbackMarker is stored in the Error field of a stage output that was replaced by its default payload.
const FallbackMarker = "Failed to parse LLM response"

// Default labels applied to missing workflow inputs.
const (
	DefaultCompanyName   = "Company"
	DefaultDepartment    = "General"
	DefaultSalaryFloor   = 80000
	DefaultSalaryCeiling = 120000
)

// WorkflowInput holds the caller-supplied fields of one workflow run
type WorkflowInput struct {
	JobDescription string `json:"job_description"`
	CompanyName    string `json:"company_name"`
	Department     string `json:"department"`
	SalaryFloor    int    `json:"salary_floor"`
	SalaryCeiling  int    `json:"salary_ceiling"`
}

// WorkflowState is the record threaded through every stage of one workflow run.
// Stages never write to it directly; the graph merges their deltas.
type WorkflowState struct {
	RunID string `json:"run_id,omitempty"`

	WorkflowInput

	JobAnalysis         *JobAnalysis         `json:"job_analysis,omitempty"`
	SourcingStrategy    *SourcingStrategy    `json:"sourcing_strategy,omitempty"`
	ScreeningCriteria   *ScreeningCriteria   `json:"screening_criteria,omitempty"`
	CompensationPackage *CompensationPackage `json:"compensation_package,omitempty"`
	OfferLetter         *string              `json:"offer_letter,omitempty"`

	Errors            []string                    `json:"errors"`
	ValidationResults map[string]ValidationResult `json:"validation_results"`
	Trace             []string                    `json:"trace"`
}

// NewWorkflowState creates a state holding only the input fields.
func NewWorkflowState(in WorkflowInput) *WorkflowState {
	return &WorkflowState{
		WorkflowInput:     in,
		Errors:            []string{},
		ValidationResults: make(map[string]ValidationResult),
		Trace:             []string{},
	}
}

// HasErrors reports whether any stage recorded an error.
func (s *WorkflowState) HasErrors() bool {
	return len(s.Errors) > 0
}

// HasWarnings reports whether any recorded validation result carries warnings.
func (s *WorkflowState) HasWarnings() bool {
	for _, r := range s.ValidationResults {
		if len(r.Warnings) > 0 {
			return true
		}
	}
	return false
}

// UsedFallback reports whether any structured stage output is a fallback payload.
func (s *WorkflowState) UsedFallback() bool {
	return (s.JobAnalysis != nil && s.JobAnalysis.Error != "") ||
		(s.SourcingStrategy != nil && s.SourcingStrategy.Error != "") ||
		(s.ScreeningCriteria != nil && s.ScreeningCriteria.Error != "") ||
		(s.CompensationPackage != nil && s.CompensationPackage.Error != "")
}

// Outcome classifies a finished state.
func (s *WorkflowState) Outcome() string {
	switch {
	case s.UsedFallback():
		return OutcomeFallback
	case s.HasErrors():
		return OutcomeErrors
	case s.HasWarnings():
		return OutcomeWarnings
	default:
		return OutcomeClean
	}
}

// Workflow outcomes reported to callers.
const (
	OutcomeClean    = "succeeded"
	OutcomeWarnings = "succeeded_with_warnings"
	OutcomeErrors   = "succeeded_with_errors"
	OutcomeFallback = "succeeded_via_fallback"
)

// StageOutputs returns each populated output keyed by its validation name.
func (s *WorkflowState) StageOutputs() map[string]any {
	out := make(map[string]any)
	if s.JobAnalysis != nil {
		out[StageKeyJobParser] = s.JobAnalysis
	}
	if s.SourcingStrategy != nil {
		out[StageKeySourcing] = s.SourcingStrategy
	}
	if s.ScreeningCriteria != nil {
		out[StageKeyScreening] = s.ScreeningCriteria
	}
	if s.CompensationPackage != nil {
		out[StageKeyCompensation] = s.CompensationPackage
	}
	if s.OfferLetter != nil {
		out[StageKeyOfferLetter] = *s.OfferLetter
	}
	return out
}

// Validation keys recorded by the graph itself.
const (
	ValidationKeyInput    = "input"
	ValidationKeyWorkflow = "workflow"
)

// Validation keys for each stage output.
const (
	StageKeyJobParser    = "job_parser"
	StageKeySourcing     = "candidate_sourcing"
	StageKeyScreening    = "screening"
	StageKeyCompensation = "compensation"
	StageKeyOfferLetter  = "offer_letter"
)

// ValidationKeySourcing is the validation_results key of the sourcing stage.
// Completion checks name the same output StageKeySourcing.
const ValidationKeySourcing = "sourcing"

// JobConfig describes one item of a batch run
type JobConfig struct {
	JobTitle       string `json:"job_title,omitempty"`
	JobDescription string `json:"job_description" validate:"required"`
	CompanyName    string `json:"company_name,omitempty"`
	Department     string `json:"department,omitempty"`
	SalaryFloor    int    `json:"salary_floor,omitempty"`
	SalaryCeiling  int    `json:"salary_ceiling,omitempty"`
}

// WithDefaults returns a copy with empty fields replaced by the batch defaults.
func (c JobConfig) WithDefaults() JobConfig {
	if c.CompanyName == "" {
		c.CompanyName = DefaultCompanyName
	}
	if c.Department == "" {
		c.Department = DefaultDepartment
	}
	if c.SalaryFloor == 0 {
		c.SalaryFloor = DefaultSalaryFloor
	}
	if c.SalaryCeiling == 0 {
		c.SalaryCeiling = DefaultSalaryCeiling
	}
	return c
}

// Input converts the config into workflow input.
func (c JobConfig) Input() WorkflowInput {
	return WorkflowInput{
		JobDescription: c.JobDescription,
		CompanyName:    c.CompanyName,
		Department:     c.Department,
		SalaryFloor:    c.SalaryFloor,
		SalaryCeiling:  c.SalaryCeiling,
	}
}
