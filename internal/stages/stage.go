// Package stages implements the agent stages of the recruiting workflow.
// Each stage wraps one completion call, validates and decodes its response,
// and substitutes a fixed default payload when the response is unusable.
package stages

import (
	"context"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Graph node names.
const (
	ParseJob            = "parse_job"
	SourceCandidates    = "source_candidates"
	CreateScreening     = "create_screening"
	AnalyzeCompensation = "analyze_compensation"
	GenerateOffer       = "generate_offer"
)

// Spec is the static descriptor of a stage
type Spec struct {
	// Name is the graph node name
	Name string
	// Key is the validation_results key of the stage output
	Key string
	// Label prefixes error and trace entries
	Label          string
	RequiredFields []string
	// Dependencies are the nodes that must complete before this one runs
	Dependencies []string
}

// Input is the read-only projection a stage receives.
// Outputs of stages outside the declared dependency chain are always nil.
type Input struct {
	types.WorkflowInput
	JobAnalysis         *types.JobAnalysis
	CompensationPackage *types.CompensationPackage
}

// Department returns the department label, substituting the default when unset.
func (in Input) Department() string {
	if in.WorkflowInput.Department == "" {
		return types.DefaultDepartment
	}
	return in.WorkflowInput.Department
}

// Delta is everything a stage contributes to the workflow state
type Delta struct {
	Stage      string
	Key        string
	Output     any
	Validation *types.ValidationResult
	Errors     []string
	Trace      []string
	Attempts   int
	Fallback   bool
}

// Stage is one unit of work in the workflow graph
type Stage interface {
	Spec() Spec
	// Run never returns an error; failures are carried in the delta
	Run(ctx context.Context, in Input) Delta
	// Fallback builds the default delta recorded when the stage cannot produce output
	Fallback(in Input, reason string) Delta
}

// Apply merges d into state. An output is written only if the field is still empty.
func (d Delta) Apply(state *types.WorkflowState) {
	written := true
	switch out := d.Output.(type) {
	case *types.JobAnalysis:
		written = state.JobAnalysis == nil
		if written {
			state.JobAnalysis = out
		}
	case *types.SourcingStrategy:
		written = state.SourcingStrategy == nil
		if written {
			state.SourcingStrategy = out
		}
	case *types.ScreeningCriteria:
		written = state.ScreeningCriteria == nil
		if written {
			state.ScreeningCriteria = out
		}
	case *types.CompensationPackage:
		written = state.CompensationPackage == nil
		if written {
			state.CompensationPackage = out
		}
	case string:
		written = state.OfferLetter == nil
		if written {
			letter := out
			state.OfferLetter = &letter
		}
	}
	if !written {
		state.Errors = append(state.Errors, d.Stage+": output already set, duplicate result ignored")
		return
	}

	state.Errors = append(state.Errors, d.Errors...)
	state.Trace = append(state.Trace, d.Trace...)
	if d.Validation != nil {
		state.ValidationResults[d.Key] = *d.Validation
	}
}

func newDelta(spec Spec) Delta {
	return Delta{Stage: spec.Name, Key: spec.Key}
}

// failedValidation records a failure message as the stage's validation result.
func failedValidation(msg string) *types.ValidationResult {
	return &types.ValidationResult{Valid: false, Errors: []string{msg}, Warnings: []string{}}
}
