package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/types"
)

// MinOfferLetterLength is the shortest letter accepted as complete.
const MinOfferLetterLength = 200

// OfferLetter drafts the offer letter text from the analysis and compensation outputs
type OfferLetter struct {
	runner *Runner
}

// NewOfferLetter creates the offer letter stage.
func NewOfferLetter(runner *Runner) *OfferLetter {
	return &OfferLetter{runner: runner}
}

// Spec implements Stage.
func (o *OfferLetter) Spec() Spec {
	return Spec{
		Name:         GenerateOffer,
		Key:          types.StageKeyOfferLetter,
		Label:        "Offer Letter",
		Dependencies: []string{AnalyzeCompensation},
	}
}

// Run implements Stage.
func (o *OfferLetter) Run(ctx context.Context, in Input) Delta {
	spec := o.Spec()
	return o.runner.instrument(ctx, spec, func(ctx context.Context) Delta {
		text, attempts, err := o.runner.callText(ctx, spec, "offer-letter", offerData(in), llm.TierAdvanced)
		if err != nil {
			d := o.Fallback(in, err.Error())
			d.Attempts = attempts
			return d
		}
		text = strings.TrimSpace(text)

		d := newDelta(spec)
		d.Output = text
		d.Attempts = attempts
		d.Validation = &types.ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}
		if len(text) < MinOfferLetterLength {
			d.Errors = []string{"Offer Letter: Generated letter is too short"}
			d.Validation = failedValidation("Letter too short")
		}
		d.Trace = []string{traceOfferLetter(text)}
		return d
	})
}

// Fallback implements Stage.
func (o *OfferLetter) Fallback(_ Input, reason string) Delta {
	text := types.OfferLetterFallback(reason)
	d := fallbackDelta(o.Spec(), text, reason)
	d.Trace = []string{traceOfferLetter(text)}
	return d
}

func offerData(in Input) map[string]string {
	title := DefaultOfferTitle
	if in.JobAnalysis != nil && in.JobAnalysis.JobTitle != "" {
		title = in.JobAnalysis.JobTitle
	}
	salary := DefaultOfferSalary
	var benefits []string
	if comp := in.CompensationPackage; comp != nil {
		if comp.TargetSalary != 0 {
			salary = comp.TargetSalary
		}
		benefits = comp.BenefitsPackage
	}

	return map[string]string{
		"CompanyName":  in.CompanyName,
		"Department":   in.Department(),
		"JobTitle":     title,
		"TargetSalary": "$" + formatMoney(salary),
		"Benefits":     joinList(benefits, DefaultOfferBenefits),
	}
}

func traceOfferLetter(text string) string {
	return fmt.Sprintf("Offer letter generated: %d characters", len(text))
}
