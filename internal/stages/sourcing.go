package stages

import (
	"context"
	"fmt"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/types"
)

var sourcingSchema = llm.ExtractionSchema{
	Name: "SourcingStrategy",
	Fields: []llm.SchemaField{
		{Name: "platforms", Type: "array of {name, reason}", Description: "Where to look for candidates", Required: true},
		{Name: "search_keywords", Type: "array of string", Required: true},
		{Name: "sourcing_channels", Type: "array of string"},
		{Name: "outreach_strategy", Type: "string", Required: true},
		{Name: "timeline", Type: "string", Required: true},
	},
}

// Sourcing plans where and how to find candidates
type Sourcing struct {
	runner *Runner
}

// NewSourcing creates the sourcing stage.
func NewSourcing(runner *Runner) *Sourcing {
	return &Sourcing{runner: runner}
}

// Spec implements Stage.
func (s *Sourcing) Spec() Spec {
	return Spec{
		Name:           SourceCandidates,
		Key:            types.ValidationKeySourcing,
		Label:          "Sourcing",
		RequiredFields: sourcingSchema.RequiredFields(),
		Dependencies:   []string{ParseJob},
	}
}

// Run implements Stage.
func (s *Sourcing) Run(ctx context.Context, in Input) Delta {
	spec := s.Spec()
	return s.runner.instrument(ctx, spec, func(ctx context.Context) Delta {
		call, err := s.runner.callStructured(ctx, spec, "sourcing", analysisData(in), sourcingSchema, llm.TierStandard)
		if err == nil {
			var out types.SourcingStrategy
			if err = decodeInto(spec.Label, call.fields, &out); err == nil {
				d := newDelta(spec)
				d.Output = &out
				d.Attempts = call.attempts
				d.Validation = &call.validation
				if !call.validation.Valid {
					d.Errors = call.validation.Errors
				}
				d.Trace = []string{traceSourcing(&out)}
				return d
			}
		}
		d := s.Fallback(in, failureReason(err))
		d.Attempts = call.attempts
		return d
	})
}

// Fallback implements Stage.
func (s *Sourcing) Fallback(_ Input, reason string) Delta {
	out := types.DefaultSourcingStrategy()
	d := fallbackDelta(s.Spec(), out, reason)
	d.Trace = []string{traceSourcing(out)}
	return d
}

func traceSourcing(out *types.SourcingStrategy) string {
	return fmt.Sprintf("Sourcing strategy created with %d platforms", len(out.Platforms))
}
