package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/prompts"
	"github.com/jonathan/recruiting-agent/internal/retry"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/validation"
)

// Runner holds the collaborators shared by every stage
type Runner struct {
	client llm.Client
	policy retry.Policy
	logger *zap.Logger
	tracer trace.Tracer
}

// NewRunner creates a runner calling client under policy.
func NewRunner(client llm.Client, policy retry.Policy, logger *zap.Logger) *Runner {
	return &Runner{
		client: client,
		policy: policy,
		logger: logging.OrNop(logger),
		tracer: tracing.Tracer(),
	}
}

// WithTracer returns a copy of the runner using tracer for stage spans.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	clone := *r
	clone.tracer = tracer
	return &clone
}

// Policy returns the retry policy applied to provider calls.
func (r *Runner) Policy() retry.Policy {
	return r.policy
}

// complete sends req under the retry policy and returns the response text and attempt count.
func (r *Runner) complete(ctx context.Context, stage string, req llm.Request) (string, int, error) {
	var text string
	attempts, err := r.policy.Do(ctx, llm.IsTransient, func(ctx context.Context) error {
		out, err := r.client.Complete(ctx, req)
		if err != nil {
			metrics.ProviderAttempts.WithLabelValues(llm.OpComplete, "error").Inc()
			return err
		}
		metrics.ProviderAttempts.WithLabelValues(llm.OpComplete, "ok").Inc()
		text = out
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("provider call failed, retrying",
			zap.String("stage", stage),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	return text, attempts, err
}

// structuredCall is the result of one JSON-producing stage call
type structuredCall struct {
	fields     map[string]any
	validation types.ValidationResult
	attempts   int
}

// callStructured renders the prompt, calls the provider and decodes a JSON object.
// The returned error is either a *llm.ProviderError or a *DecodingError.
func (r *Runner) callStructured(ctx context.Context, spec Spec, promptKey string, data map[string]string, schema llm.ExtractionSchema, tier llm.ModelTier) (structuredCall, error) {
	tmpl, err := prompts.Get(promptKey)
	if err != nil {
		return structuredCall{}, fmt.Errorf("%s: %w", spec.Label, err)
	}
	system, user := tmpl.Render(data)

	text, attempts, err := r.complete(ctx, spec.Name, llm.Request{
		System: system,
		User:   user,
		Schema: &schema,
		Tier:   tier,
	})
	call := structuredCall{attempts: attempts}
	if err != nil {
		return call, err
	}

	fields, err := decodeObject(spec.Label, text)
	if err != nil {
		return call, err
	}
	call.fields = fields
	call.validation = validation.ValidateOutput(spec.Label, fields, spec.RequiredFields)
	return call, nil
}

// callText renders the prompt and returns the raw response text.
func (r *Runner) callText(ctx context.Context, spec Spec, promptKey string, data map[string]string, tier llm.ModelTier) (string, int, error) {
	tmpl, err := prompts.Get(promptKey)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", spec.Label, err)
	}
	system, user := tmpl.Render(data)
	return r.complete(ctx, spec.Name, llm.Request{System: system, User: user, Tier: tier})
}

// instrument wraps a stage run with a span, metrics and a completion log line.
func (r *Runner) instrument(ctx context.Context, spec Spec, run func(context.Context) Delta) Delta {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "stage."+spec.Name, attribute.String(tracing.StageKey, spec.Name))
	defer span.End()

	start := time.Now()
	d := run(ctx)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeSuccess
	if d.Fallback {
		outcome = metrics.OutcomeFallback
	} else if len(d.Errors) > 0 {
		outcome = metrics.OutcomeFailed
	}
	metrics.StageRuns.WithLabelValues(spec.Name, outcome).Inc()
	metrics.StageDuration.WithLabelValues(spec.Name).Observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.Int(tracing.AttemptsKey, d.Attempts),
		attribute.Bool(tracing.FallbackKey, d.Fallback),
	)
	if len(d.Errors) > 0 {
		tracing.SetError(span, errors.New(d.Errors[0]))
	}

	r.logger.Info("stage completed",
		zap.String("stage", spec.Name),
		zap.String("outcome", outcome),
		zap.Int("attempts", d.Attempts),
		zap.Duration("elapsed", elapsed),
		zap.Strings("errors", d.Errors))
	return d
}

// failureReason is the text recorded after the stage label when a call fails.
// Decoding failures all collapse to the fallback marker.
func failureReason(err error) string {
	var derr *DecodingError
	if errors.As(err, &derr) {
		return types.FallbackMarker
	}
	return err.Error()
}

// fallbackDelta builds the delta recorded when output is replaced by a default.
func fallbackDelta(spec Spec, output any, reason string) Delta {
	msg := fmt.Sprintf("%s: %s", spec.Label, reason)
	d := newDelta(spec)
	d.Output = output
	d.Errors = []string{msg}
	d.Validation = failedValidation(msg)
	d.Fallback = true
	return d
}

// decodeObject parses a response into a field-keyed map.
func decodeObject(label, text string) (map[string]any, error) {
	cleaned := llm.CleanJSONBlock(text)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, &DecodingError{Stage: label, Message: "response is not a JSON object", Cause: err}
	}
	if fields == nil {
		return nil, &DecodingError{Stage: label, Message: "response is null"}
	}
	return fields, nil
}

// decodeInto converts decoded fields into a typed output, coercing scalar types where possible.
func decodeInto(label string, fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create decoder: %w", label, err)
	}
	if err := dec.Decode(fields); err != nil {
		return &DecodingError{Stage: label, Message: "response does not match the expected structure", Cause: err}
	}
	return nil
}
