package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/recruiting-agent/internal/db"
	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/llm/llmtest"
	"github.com/jonathan/recruiting-agent/internal/retry"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/types"
)

var longLetter = "Dear Candidate,\n\n" + strings.Repeat("We are pleased to offer you the position described below. ", 5)

var responses = map[string]string{
	stages.ParseJob: `{"job_title": "Backend Engineer", "experience_level": "5+ years", "employment_type": "Full-time",
		"required_skills": ["Go"], "nice_to_have_skills": ["AWS"], "responsibilities": ["Build APIs"], "qualifications": ["BS"]}`,
	stages.SourceCandidates: `{"platforms": [{"name": "LinkedIn", "reason": "Reach"}], "search_keywords": ["golang"],
		"sourcing_channels": ["Referrals"], "outreach_strategy": "Email", "timeline": "2 weeks"}`,
	stages.CreateScreening: `{"must_have_criteria": ["Go"], "nice_to_have_criteria": ["K8s"], "screening_questions": ["Why Go?"],
		"technical_assessment": "Pairing", "evaluation_rubric": "Scorecard"}`,
	stages.AnalyzeCompensation: `{"market_analysis": "Hot", "recommended_salary_range": {"min": 125000, "max": 150000}, "target_salary": 140000,
		"benefits_package": ["Health", "PTO"], "equity_structure": "Options", "justification": "Fair"}`,
	stages.GenerateOffer: longLetter,
}

// stageOf identifies the stage that issued a request from its instructions
func stageOf(req llm.Request) string {
	switch {
	case strings.Contains(req.System, "HR analyst"):
		return stages.ParseJob
	case strings.Contains(req.System, "talent acquisition"):
		return stages.SourceCandidates
	case strings.Contains(req.System, "HR interviewer"):
		return stages.CreateScreening
	case strings.Contains(req.System, "compensation analyst"):
		return stages.AnalyzeCompensation
	case strings.Contains(req.System, "offer letters"):
		return stages.GenerateOffer
	}
	return ""
}

func scriptedClient() *llmtest.MockClient {
	return &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, req llm.Request) (string, error) {
			return responses[stageOf(req)], nil
		},
	}
}

func testInput() types.WorkflowInput {
	return types.WorkflowInput{
		JobDescription: strings.Repeat("Senior backend engineer building Go services for payments. ", 3),
		CompanyName:    "Acme",
		Department:     "Engineering",
		SalaryFloor:    120000,
		SalaryCeiling:  160000,
	}
}

func newTestGraph(t *testing.T, client llm.Client, opts stages.Options, graphOpts ...Option) *Graph {
	t.Helper()
	runner := stages.NewRunner(client, retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, zaptest.NewLogger(t))
	graphOpts = append([]Option{WithLogger(zaptest.NewLogger(t))}, graphOpts...)
	g, err := NewGraph(stages.Default(runner, opts), graphOpts...)
	require.NoError(t, err)
	return g
}

func TestGraph_Topology(t *testing.T) {
	g := newTestGraph(t, scriptedClient(), stages.Options{})

	assert.Equal(t, []string{"parse_job", "source_candidates", "create_screening", "analyze_compensation", "generate_offer"}, g.Order())
	assert.Equal(t, []string{"create_screening", "generate_offer", "source_candidates"}, g.Terminals())
}

func TestGraph_HappyPath(t *testing.T) {
	client := scriptedClient()
	g := newTestGraph(t, client, stages.Options{})

	state := g.Run(context.Background(), testInput(), nil)

	require.NotNil(t, state.JobAnalysis)
	require.NotNil(t, state.SourcingStrategy)
	require.NotNil(t, state.ScreeningCriteria)
	require.NotNil(t, state.CompensationPackage)
	require.NotNil(t, state.OfferLetter)
	assert.Equal(t, "Backend Engineer", state.JobAnalysis.JobTitle)
	assert.Equal(t, 140000, state.CompensationPackage.TargetSalary)
	assert.Equal(t, strings.TrimSpace(longLetter), *state.OfferLetter)

	assert.Empty(t, state.Errors)
	assert.Len(t, state.Trace, 5)
	assert.Equal(t, "Job Parser completed: Backend Engineer", state.Trace[0])
	assert.True(t, strings.HasPrefix(state.Trace[4], "Offer letter generated:") ||
		strings.HasPrefix(state.Trace[3], "Offer letter generated:"))
	assert.NotEmpty(t, state.RunID)
	assert.Equal(t, types.OutcomeClean, state.Outcome())

	for _, key := range []string{"input", "job_parser", "sourcing", "screening", "compensation", "offer_letter", "workflow"} {
		result, ok := state.ValidationResults[key]
		require.True(t, ok, key)
		assert.True(t, result.Valid, key)
	}
	assert.Equal(t, 5, client.CompleteCalls())
}

func TestGraph_MalformedOutputUsesDefaults(t *testing.T) {
	garbage := strings.Repeat("not json at all ", 20)
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return garbage, nil
		},
	}
	g := newTestGraph(t, client, stages.Options{})

	state := g.Run(context.Background(), testInput(), nil)

	assert.Equal(t, types.DefaultJobAnalysis(), state.JobAnalysis)
	assert.Equal(t, types.DefaultSourcingStrategy(), state.SourcingStrategy)
	assert.Equal(t, types.DefaultScreeningCriteria(), state.ScreeningCriteria)
	assert.Equal(t, types.DefaultCompensationPackage(120000, 160000), state.CompensationPackage)

	assert.ElementsMatch(t, []string{
		"Job Parser: Failed to parse LLM response",
		"Sourcing: Failed to parse LLM response",
		"Screening: Failed to parse LLM response",
		"Compensation: Failed to parse LLM response",
	}, state.Errors)
	for _, key := range []string{"job_parser", "sourcing", "screening", "compensation"} {
		assert.False(t, state.ValidationResults[key].Valid, key)
	}
	assert.False(t, state.ValidationResults["workflow"].Valid)
	assert.Equal(t, types.OutcomeFallback, state.Outcome())
}

func TestGraph_TransientFailuresExhaustRetries(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, req llm.Request) (string, error) {
			mu.Lock()
			calls[stageOf(req)]++
			mu.Unlock()
			return "", &llm.ProviderError{Op: llm.OpComplete, Message: "service unavailable", Transient: true}
		},
	}
	g := newTestGraph(t, client, stages.Options{})

	state := g.Run(context.Background(), testInput(), nil)

	for _, name := range []string{"parse_job", "source_candidates", "create_screening", "analyze_compensation", "generate_offer"} {
		assert.Equal(t, 3, calls[name], name)
	}
	assert.Len(t, state.Errors, 5)
	require.NotNil(t, state.OfferLetter)
	assert.True(t, strings.HasPrefix(*state.OfferLetter, "Error generating offer letter: "))
	assert.Equal(t, "Software Engineer", state.JobAnalysis.JobTitle)
}

func TestGraph_DependencyOrderAndConcurrency(t *testing.T) {
	var mu sync.Mutex
	entered := 0
	release := make(chan struct{})
	middle := map[string]bool{
		stages.SourceCandidates:    true,
		stages.CreateScreening:     true,
		stages.AnalyzeCompensation: true,
	}

	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, req llm.Request) (string, error) {
			name := stageOf(req)
			if middle[name] {
				mu.Lock()
				entered++
				if entered == len(middle) {
					close(release)
				}
				mu.Unlock()
				select {
				case <-release:
				case <-time.After(5 * time.Second):
					return "", errors.New("middle stages did not run concurrently")
				}
			}
			return responses[name], nil
		},
	}
	g := newTestGraph(t, client, stages.Options{})

	var events []ProgressEvent
	state := g.Run(context.Background(), testInput(), func(ev ProgressEvent) {
		events = append(events, ev)
	})

	assert.Empty(t, state.Errors)

	position := func(typ, step string) int {
		for i, ev := range events {
			if ev.Type == typ && ev.Step == step {
				return i
			}
		}
		t.Fatalf("no %s event for %s", typ, step)
		return -1
	}

	parseDone := position(EventStageCompleted, stages.ParseJob)
	for name := range middle {
		assert.Greater(t, position(EventStageStarted, name), parseDone, name)
	}
	assert.Greater(t, position(EventStageStarted, stages.GenerateOffer), position(EventStageCompleted, stages.AnalyzeCompensation))

	assert.Equal(t, EventStageStarted, events[0].Type)
	assert.Equal(t, stages.ParseJob, events[0].Step)
	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, state.RunID, last.RunID)
}

func TestGraph_OfferLetterSeesTransitiveOutputs(t *testing.T) {
	client := scriptedClient()
	g := newTestGraph(t, client, stages.Options{})

	g.Run(context.Background(), testInput(), nil)

	var offerUser string
	for _, req := range client.Requests() {
		if stageOf(req) == stages.GenerateOffer {
			offerUser = req.User
		}
	}
	assert.Contains(t, offerUser, "Job Title: Backend Engineer")
	assert.Contains(t, offerUser, "Salary: $140,000")
	assert.Contains(t, offerUser, "Benefits: Health, PTO")
}

func TestGraph_InvalidInputDegrades(t *testing.T) {
	client := scriptedClient()
	g := newTestGraph(t, client, stages.Options{})

	in := testInput()
	in.SalaryFloor, in.SalaryCeiling = 200000, 100000
	state := g.Run(context.Background(), in, nil)

	assert.Equal(t, []string{"Input: Minimum salary must be less than maximum salary"}, state.Errors)
	assert.False(t, state.ValidationResults["input"].Valid)
	assert.Equal(t, 5, client.CompleteCalls(), "validation failures never abort")
}

func TestGraph_StrictInputSkipsJobParser(t *testing.T) {
	client := scriptedClient()
	g := newTestGraph(t, client, stages.Options{StrictInput: true})

	in := testInput()
	in.CompanyName = ""
	state := g.Run(context.Background(), in, nil)

	assert.Contains(t, state.Errors, "Input: Company name is required")
	assert.Contains(t, state.Errors, "Job Parser: Validation failed")
	assert.Equal(t, stages.ValidationFailedMarker, state.JobAnalysis.Error)
	assert.Equal(t, 4, client.CompleteCalls())
}

type panicStage struct {
	stages.Stage
}

func (p panicStage) Run(context.Context, stages.Input) stages.Delta {
	panic("exploded")
}

func TestGraph_PanicUsesFallback(t *testing.T) {
	runner := stages.NewRunner(scriptedClient(), retry.DefaultPolicy(), zaptest.NewLogger(t))
	all := stages.Default(runner, stages.Options{})
	all[2] = panicStage{Stage: all[2]}

	g, err := NewGraph(all, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	state := g.Run(context.Background(), testInput(), nil)

	assert.Equal(t, types.DefaultScreeningCriteria(), state.ScreeningCriteria)
	assert.Equal(t, []string{"Screening: panic: exploded"}, state.Errors)
	assert.NotNil(t, state.OfferLetter)
}

type stubStage struct {
	spec stages.Spec
}

func (s stubStage) Spec() stages.Spec                             { return s.spec }
func (s stubStage) Run(context.Context, stages.Input) stages.Delta { return stages.Delta{Stage: s.spec.Name} }
func (s stubStage) Fallback(stages.Input, string) stages.Delta     { return stages.Delta{Stage: s.spec.Name} }

func TestNewGraph_InvalidTopology(t *testing.T) {
	tests := []struct {
		name   string
		stages []stages.Stage
		want   string
	}{
		{"empty", nil, "no stages"},
		{"unknown dependency", []stages.Stage{
			stubStage{stages.Spec{Name: "a", Dependencies: []string{"missing"}}},
		}, `unknown dependency "missing"`},
		{"duplicate", []stages.Stage{
			stubStage{stages.Spec{Name: "a"}},
			stubStage{stages.Spec{Name: "a"}},
		}, "duplicate stage name"},
		{"cycle", []stages.Stage{
			stubStage{stages.Spec{Name: "root"}},
			stubStage{stages.Spec{Name: "a", Dependencies: []string{"root", "b"}}},
			stubStage{stages.Spec{Name: "b", Dependencies: []string{"a"}}},
		}, "dependency cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.stages)
			var topoErr *TopologyError
			require.ErrorAs(t, err, &topoErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type fakeRecorder struct {
	mu        sync.Mutex
	created   uuid.UUID
	title     string
	artifacts map[string]any
	steps     map[string]*db.RunStepInput
	status    string
	outcome   string
	failStart bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{artifacts: map[string]any{}, steps: map[string]*db.RunStepInput{}}
}

func (f *fakeRecorder) CreateRun(_ context.Context, runID uuid.UUID, _ types.WorkflowInput) error {
	if f.failStart {
		return errors.New("database down")
	}
	f.created = runID
	return nil
}

func (f *fakeRecorder) SetRunJobTitle(_ context.Context, _ uuid.UUID, title string) error {
	f.title = title
	return nil
}

func (f *fakeRecorder) SaveArtifact(_ context.Context, _ uuid.UUID, step, _ string, content any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[step] = content
	return nil
}

func (f *fakeRecorder) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[step] = text
	return nil
}

func (f *fakeRecorder) RecordRunStep(_ context.Context, _ uuid.UUID, input *db.RunStepInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[input.Step] = input
	return nil
}

func (f *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, status, outcome string, _ int) error {
	f.status, f.outcome = status, outcome
	return nil
}

func TestGraph_RecordsRun(t *testing.T) {
	rec := newFakeRecorder()
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, req llm.Request) (string, error) {
			if stageOf(req) == stages.CreateScreening {
				return "garbage", nil
			}
			return responses[stageOf(req)], nil
		},
	}
	g := newTestGraph(t, client, stages.Options{}, WithRecorder(rec))

	state := g.Run(context.Background(), testInput(), nil)

	assert.Equal(t, state.RunID, rec.created.String())
	assert.Equal(t, "Backend Engineer", rec.title)
	assert.Len(t, rec.artifacts, 5)
	assert.Equal(t, strings.TrimSpace(longLetter), rec.artifacts[stages.GenerateOffer])
	assert.Equal(t, db.StepStatusFallback, rec.steps[stages.CreateScreening].Status)
	assert.Equal(t, db.StepStatusCompleted, rec.steps[stages.ParseJob].Status)
	assert.Equal(t, db.StepCategoryAnalysis, rec.steps[stages.ParseJob].Category)
	assert.Equal(t, db.RunStatusCompletedWithErrors, rec.status)
	assert.Equal(t, types.OutcomeFallback, rec.outcome)
}

func TestGraph_RecorderFailureDoesNotAbort(t *testing.T) {
	rec := newFakeRecorder()
	rec.failStart = true
	g := newTestGraph(t, scriptedClient(), stages.Options{}, WithRecorder(rec))

	state := g.Run(context.Background(), testInput(), nil)

	assert.Empty(t, state.Errors)
	assert.Empty(t, rec.artifacts)
	assert.Empty(t, rec.status)
}
