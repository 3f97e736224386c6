package stages

import (
	"context"
	"fmt"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/types"
)

var screeningSchema = llm.ExtractionSchema{
	Name: "ScreeningCriteria",
	Fields: []llm.SchemaField{
		{Name: "must_have_criteria", Type: "array of string", Required: true},
		{Name: "nice_to_have_criteria", Type: "array of string"},
		{Name: "screening_questions", Type: "array of string", Description: "Questions for the first interview", Required: true},
		{Name: "technical_assessment", Type: "string"},
		{Name: "evaluation_rubric", Type: "string"},
	},
}

// Screening drafts the criteria and questions used to screen applicants
type Screening struct {
	runner *Runner
}

// NewScreening creates the screening stage.
func NewScreening(runner *Runner) *Screening {
	return &Screening{runner: runner}
}

// Spec implements Stage.
func (s *Screening) Spec() Spec {
	return Spec{
		Name:           CreateScreening,
		Key:            types.StageKeyScreening,
		Label:          "Screening",
		RequiredFields: screeningSchema.RequiredFields(),
		Dependencies:   []string{ParseJob},
	}
}

// Run implements Stage.
func (s *Screening) Run(ctx context.Context, in Input) Delta {
	spec := s.Spec()
	return s.runner.instrument(ctx, spec, func(ctx context.Context) Delta {
		call, err := s.runner.callStructured(ctx, spec, "screening", analysisData(in), screeningSchema, llm.TierStandard)
		if err == nil {
			var out types.ScreeningCriteria
			if err = decodeInto(spec.Label, call.fields, &out); err == nil {
				d := newDelta(spec)
				d.Output = &out
				d.Attempts = call.attempts
				d.Validation = &call.validation
				if !call.validation.Valid {
					d.Errors = call.validation.Errors
				}
				d.Trace = []string{traceScreening(&out)}
				return d
			}
		}
		d := s.Fallback(in, failureReason(err))
		d.Attempts = call.attempts
		return d
	})
}

// Fallback implements Stage.
func (s *Screening) Fallback(_ Input, reason string) Delta {
	out := types.DefaultScreeningCriteria()
	d := fallbackDelta(s.Spec(), out, reason)
	d.Trace = []string{traceScreening(out)}
	return d
}

func traceScreening(out *types.ScreeningCriteria) string {
	return fmt.Sprintf("Screening created with %d questions", len(out.ScreeningQuestions))
}
