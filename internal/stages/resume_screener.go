package stages

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/prompts"
	"github.com/jonathan/recruiting-agent/internal/schemas"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/validation"
	embedded "github.com/jonathan/recruiting-agent/schemas"
)

const resumeScreenerLabel = "Resume Screener"

// screenerTemperature keeps scores steadier than the drafting stages.
const screenerTemperature = 0.5

var resumeScreeningSchema = llm.ExtractionSchema{
	Name: "ResumeScreening",
	Fields: []llm.SchemaField{
		{Name: "score", Type: "number", Description: "Overall match from 0 to 100", Required: true},
		{Name: "strengths", Type: "array of string"},
		{Name: "weaknesses", Type: "array of string"},
		{Name: "recommendation", Type: "string", Description: "HIRE, MAYBE or REJECT", Required: true},
		{Name: "reasoning", Type: "string"},
	},
}

// Screener scores a resume against a job description.
type Screener interface {
	Screen(ctx context.Context, jobText, resumeText string) (*types.ResumeScreening, error)
}

// ResumeScreener is the LLM-backed Screener
type ResumeScreener struct {
	runner *Runner
}

// NewResumeScreener creates a resume screener.
func NewResumeScreener(runner *Runner) *ResumeScreener {
	return &ResumeScreener{runner: runner}
}

// Screen evaluates one resume. Unlike the workflow stages it has no default
// payload: any failure is returned so the caller can drop the candidate.
func (s *ResumeScreener) Screen(ctx context.Context, jobText, resumeText string) (*types.ResumeScreening, error) {
	ctx, span := tracing.StartSpan(ctx, s.runner.tracer, "stage.screen_resume")
	defer span.End()

	tmpl, err := prompts.Get("resume-screener")
	if err != nil {
		return nil, err
	}
	if check := validation.CheckInjection(resumeText); check.Suspicious {
		s.runner.logger.Warn("resume contains instruction-like text", zap.Strings("keywords", check.Keywords))
		span.SetAttributes(attribute.StringSlice("screen.injection_keywords", check.Keywords))
		resumeText = validation.RedactInjection(resumeText)
	}
	system, user := tmpl.Render(map[string]string{
		"JobDescription": validation.QuoteUntrusted("job description", jobText),
		"ResumeText":     validation.QuoteUntrusted("resume", resumeText),
	})

	text, attempts, err := s.runner.complete(ctx, "screen_resume", llm.Request{
		System:      system,
		User:        user,
		Schema:      &resumeScreeningSchema,
		Tier:        llm.TierLite,
		Temperature: screenerTemperature,
	})
	span.SetAttributes(attribute.Int(tracing.AttemptsKey, attempts))
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	result, err := decodeScreening(text)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	s.runner.logger.Debug("screened resume",
		zap.Int("score", result.Score),
		zap.String("recommendation", string(result.Recommendation)))
	return result, nil
}

func decodeScreening(text string) (*types.ResumeScreening, error) {
	fields, err := decodeObject(resumeScreenerLabel, text)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateDocument(embedded.ResumeScreening, fields); err != nil {
		return nil, &DecodingError{Stage: resumeScreenerLabel, Message: "response does not match the screening schema", Cause: err}
	}

	var out types.ResumeScreening
	if err := decodeInto(resumeScreenerLabel, fields, &out); err != nil {
		return nil, err
	}

	out.Recommendation = types.Recommendation(strings.ToUpper(strings.TrimSpace(string(out.Recommendation))))
	if !out.Recommendation.Valid() {
		return nil, &DecodingError{
			Stage:   resumeScreenerLabel,
			Message: fmt.Sprintf("unknown recommendation %q", out.Recommendation),
		}
	}
	out.Score = min(max(out.Score, 0), 100)
	return &out, nil
}
