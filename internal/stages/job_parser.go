package stages

import (
	"context"
	"fmt"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/validation"
)

// ValidationFailedMarker is the error marker of a job analysis skipped because the input was rejected.
const ValidationFailedMarker = "Validation failed"

var jobAnalysisSchema = llm.ExtractionSchema{
	Name: "JobAnalysis",
	Fields: []llm.SchemaField{
		{Name: "job_title", Type: "string", Description: "Title of the role", Required: true},
		{Name: "experience_level", Type: "string", Description: "Years or seniority expected", Required: true},
		{Name: "employment_type", Type: "string", Description: "Full-time, part-time, contract", Required: true},
		{Name: "required_skills", Type: "array of string", Required: true},
		{Name: "nice_to_have_skills", Type: "array of string"},
		{Name: "responsibilities", Type: "array of string", Required: true},
		{Name: "qualifications", Type: "array of string", Required: true},
	},
}

// JobParser extracts a structured analysis from the job description
type JobParser struct {
	runner *Runner
	strict bool
}

// NewJobParser creates the job parsing stage.
// When strict is set, input that fails validation skips the provider call.
func NewJobParser(runner *Runner, strict bool) *JobParser {
	return &JobParser{runner: runner, strict: strict}
}

// Spec implements Stage.
func (p *JobParser) Spec() Spec {
	return Spec{
		Name:           ParseJob,
		Key:            types.StageKeyJobParser,
		Label:          "Job Parser",
		RequiredFields: jobAnalysisSchema.RequiredFields(),
	}
}

// Run implements Stage.
func (p *JobParser) Run(ctx context.Context, in Input) Delta {
	spec := p.Spec()
	return p.runner.instrument(ctx, spec, func(ctx context.Context) Delta {
		if p.strict {
			if result := validation.ValidateInput(in.WorkflowInput); !result.Valid {
				return p.rejected(spec)
			}
		}

		data := map[string]string{
			"JobDescription": in.JobDescription,
			"Department":     in.Department(),
		}
		call, err := p.runner.callStructured(ctx, spec, "job-parser", data, jobAnalysisSchema, llm.TierStandard)
		if err != nil {
			d := p.Fallback(in, failureReason(err))
			d.Attempts = call.attempts
			return d
		}

		var out types.JobAnalysis
		if err := decodeInto(spec.Label, call.fields, &out); err != nil {
			d := p.Fallback(in, failureReason(err))
			d.Attempts = call.attempts
			return d
		}
		return p.complete(spec, &out, call)
	})
}

// Fallback implements Stage.
func (p *JobParser) Fallback(_ Input, reason string) Delta {
	out := types.DefaultJobAnalysis()
	d := fallbackDelta(p.Spec(), out, reason)
	d.Trace = []string{traceJobParsed(out)}
	return d
}

func (p *JobParser) complete(spec Spec, out *types.JobAnalysis, call structuredCall) Delta {
	d := newDelta(spec)
	d.Output = out
	d.Attempts = call.attempts
	d.Validation = &call.validation
	if !call.validation.Valid {
		d.Errors = append(d.Errors, call.validation.Errors...)
	}
	d.Trace = []string{traceJobParsed(out)}
	return d
}

// rejected records the strict-mode outcome. The graph already logs the input errors.
func (p *JobParser) rejected(spec Spec) Delta {
	out := types.DefaultJobAnalysis()
	out.Error = ValidationFailedMarker
	d := fallbackDelta(spec, out, ValidationFailedMarker)
	d.Trace = []string{traceJobParsed(out)}
	return d
}

func traceJobParsed(out *types.JobAnalysis) string {
	title := out.JobTitle
	if title == "" {
		title = "N/A"
	}
	return fmt.Sprintf("Job Parser completed: %s", title)
}
