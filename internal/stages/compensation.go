package stages

import (
	"context"
	"fmt"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/types"
)

var compensationSchema = llm.ExtractionSchema{
	Name: "CompensationPackage",
	Fields: []llm.SchemaField{
		{Name: "market_analysis", Type: "string"},
		{Name: "recommended_salary_range", Type: "{min: number, max: number}"},
		{Name: "target_salary", Type: "number", Description: "Annual base salary within the budget", Required: true},
		{Name: "benefits_package", Type: "array of string", Required: true},
		{Name: "equity_structure", Type: "string"},
		{Name: "justification", Type: "string"},
	},
}

// Compensation recommends a salary and benefits package within the budget
type Compensation struct {
	runner *Runner
}

// NewCompensation creates the compensation stage.
func NewCompensation(runner *Runner) *Compensation {
	return &Compensation{runner: runner}
}

// Spec implements Stage.
func (c *Compensation) Spec() Spec {
	return Spec{
		Name:           AnalyzeCompensation,
		Key:            types.StageKeyCompensation,
		Label:          "Compensation",
		RequiredFields: compensationSchema.RequiredFields(),
		Dependencies:   []string{ParseJob},
	}
}

// Run implements Stage.
func (c *Compensation) Run(ctx context.Context, in Input) Delta {
	spec := c.Spec()
	return c.runner.instrument(ctx, spec, func(ctx context.Context) Delta {
		data := analysisData(in)
		data["SalaryFloor"] = "$" + formatMoney(in.SalaryFloor)
		data["SalaryCeiling"] = "$" + formatMoney(in.SalaryCeiling)

		call, err := c.runner.callStructured(ctx, spec, "compensation", data, compensationSchema, llm.TierStandard)
		if err == nil {
			var out types.CompensationPackage
			if err = decodeInto(spec.Label, call.fields, &out); err == nil {
				return c.complete(spec, in, &out, call)
			}
		}
		d := c.Fallback(in, failureReason(err))
		d.Attempts = call.attempts
		return d
	})
}

// Fallback implements Stage.
func (c *Compensation) Fallback(in Input, reason string) Delta {
	out := types.DefaultCompensationPackage(in.SalaryFloor, in.SalaryCeiling)
	d := fallbackDelta(c.Spec(), out, reason)
	d.Trace = []string{traceCompensation(out)}
	return d
}

func (c *Compensation) complete(spec Spec, in Input, out *types.CompensationPackage, call structuredCall) Delta {
	result := call.validation
	if _, ok := call.fields["target_salary"]; ok {
		if out.TargetSalary < in.SalaryFloor || out.TargetSalary > in.SalaryCeiling {
			result.Warnings = append(append([]string{}, result.Warnings...),
				fmt.Sprintf("Target salary $%s is outside budget range", formatMoney(out.TargetSalary)))
		}
	}
	if out.RecommendedSalaryRange == nil {
		out.RecommendedSalaryRange = &types.SalaryRange{Min: in.SalaryFloor, Max: in.SalaryCeiling}
	}

	d := newDelta(spec)
	d.Output = out
	d.Attempts = call.attempts
	d.Validation = &result
	if !result.Valid {
		d.Errors = result.Errors
	}
	d.Trace = []string{traceCompensation(out)}
	return d
}

func traceCompensation(out *types.CompensationPackage) string {
	return fmt.Sprintf("Compensation package: $%s", formatMoney(out.TargetSalary))
}
