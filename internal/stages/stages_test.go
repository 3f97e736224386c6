package stages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/llm/llmtest"
	"github.com/jonathan/recruiting-agent/internal/types"
)

func TestJobParser_Success(t *testing.T) {
	client := mockReturning("```json\n" + jobAnalysisJSON + "\n```")
	stage := NewJobParser(newTestRunner(t, client), false)

	d := stage.Run(context.Background(), testInput())

	out, ok := d.Output.(*types.JobAnalysis)
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", out.JobTitle)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, out.RequiredSkills)
	assert.Empty(t, out.Error)
	assert.False(t, d.Fallback)
	assert.Empty(t, d.Errors)
	assert.Equal(t, 1, d.Attempts)
	require.NotNil(t, d.Validation)
	assert.True(t, d.Validation.Valid)
	assert.Equal(t, []string{"Job Parser completed: Backend Engineer"}, d.Trace)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].User, "Department: Engineering")
	require.NotNil(t, reqs[0].Schema)
	assert.Equal(t, "JobAnalysis", reqs[0].Schema.Name)
}

func TestJobParser_MalformedResponseUsesDefault(t *testing.T) {
	stage := NewJobParser(newTestRunner(t, mockReturning("this is not json")), false)

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, types.DefaultJobAnalysis(), d.Output)
	assert.True(t, d.Fallback)
	assert.Equal(t, []string{"Job Parser: Failed to parse LLM response"}, d.Errors)
	require.NotNil(t, d.Validation)
	assert.False(t, d.Validation.Valid)
	assert.Equal(t, []string{"Job Parser completed: Software Engineer"}, d.Trace)
}

func TestJobParser_WrongShapeUsesDefault(t *testing.T) {
	for _, body := range []string{`["a", "b"]`, `null`, `{"job_title": {"nested": true}}`} {
		stage := NewJobParser(newTestRunner(t, mockReturning(body)), false)
		d := stage.Run(context.Background(), testInput())
		assert.True(t, d.Fallback, body)
		assert.Equal(t, []string{"Job Parser: Failed to parse LLM response"}, d.Errors, body)
	}
}

func TestJobParser_MissingFieldsKeepOutput(t *testing.T) {
	stage := NewJobParser(newTestRunner(t, mockReturning(`{"job_title": "SRE", "required_skills": "Linux"}`)), false)

	d := stage.Run(context.Background(), testInput())

	out := d.Output.(*types.JobAnalysis)
	assert.Equal(t, "SRE", out.JobTitle)
	assert.Equal(t, []string{"Linux"}, out.RequiredSkills)
	assert.False(t, d.Fallback)
	assert.Contains(t, d.Errors, "Job Parser: Missing field 'qualifications'")
	assert.False(t, d.Validation.Valid)
}

func TestJobParser_TransientFailureExhaustsRetries(t *testing.T) {
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", transientErr()
		},
	}
	stage := NewJobParser(newTestRunner(t, client), false)

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, 3, client.CompleteCalls())
	assert.Equal(t, 3, d.Attempts)
	assert.True(t, d.Fallback)
	require.Len(t, d.Errors, 1)
	assert.True(t, strings.HasPrefix(d.Errors[0], "Job Parser: "))
	assert.Contains(t, d.Errors[0], "rate limited")
	assert.Equal(t, "Software Engineer", d.Output.(*types.JobAnalysis).JobTitle)
}

func TestJobParser_TransientThenSuccess(t *testing.T) {
	calls := 0
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			calls++
			if calls == 1 {
				return "", transientErr()
			}
			return jobAnalysisJSON, nil
		},
	}
	stage := NewJobParser(newTestRunner(t, client), false)

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, 2, d.Attempts)
	assert.False(t, d.Fallback)
	assert.Equal(t, "Backend Engineer", d.Output.(*types.JobAnalysis).JobTitle)
}

func TestJobParser_PermanentFailureIsNotRetried(t *testing.T) {
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", &llm.ProviderError{Op: llm.OpComplete, Message: "invalid api key"}
		},
	}
	stage := NewJobParser(newTestRunner(t, client), false)

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, 1, client.CompleteCalls())
	assert.True(t, d.Fallback)
}

func TestJobParser_StrictRejectsInvalidInput(t *testing.T) {
	client := mockReturning(jobAnalysisJSON)
	stage := NewJobParser(newTestRunner(t, client), true)

	in := testInput()
	in.CompanyName = ""
	d := stage.Run(context.Background(), in)

	assert.Equal(t, 0, client.CompleteCalls())
	assert.Equal(t, ValidationFailedMarker, d.Output.(*types.JobAnalysis).Error)
	assert.Equal(t, []string{"Job Parser: Validation failed"}, d.Errors)
}

func TestJobParser_StrictAcceptsValidInput(t *testing.T) {
	client := mockReturning(jobAnalysisJSON)
	stage := NewJobParser(newTestRunner(t, client), true)

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, 1, client.CompleteCalls())
	assert.False(t, d.Fallback)
}

func TestSourcing_UsesJobAnalysis(t *testing.T) {
	client := mockReturning(sourcingJSON)
	stage := NewSourcing(newTestRunner(t, client))

	in := testInput()
	in.JobAnalysis = &types.JobAnalysis{JobTitle: "Backend Engineer", RequiredSkills: []string{"Go", "SQL"}}
	d := stage.Run(context.Background(), in)

	out := d.Output.(*types.SourcingStrategy)
	assert.Len(t, out.Platforms, 2)
	assert.Equal(t, "GitHub", out.Platforms[1].Name)
	assert.Equal(t, types.ValidationKeySourcing, d.Key)
	assert.Equal(t, []string{"Sourcing strategy created with 2 platforms"}, d.Trace)
	assert.Contains(t, client.Requests()[0].User, "Key Skills: Go, SQL")
}

func TestSourcing_Fallback(t *testing.T) {
	stage := NewSourcing(newTestRunner(t, mockReturning("")))

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, types.DefaultSourcingStrategy(), d.Output)
	assert.Equal(t, []string{"Sourcing: Failed to parse LLM response"}, d.Errors)
	assert.Equal(t, []string{"Sourcing strategy created with 1 platforms"}, d.Trace)
}

func TestScreening_Success(t *testing.T) {
	stage := NewScreening(newTestRunner(t, mockReturning(screeningJSON)))

	d := stage.Run(context.Background(), testInput())

	out := d.Output.(*types.ScreeningCriteria)
	assert.Equal(t, "Take-home", out.TechnicalAssessment)
	assert.Equal(t, []string{"Screening created with 2 questions"}, d.Trace)
	assert.True(t, d.Validation.Valid)
}

func TestCompensation_WithinBudget(t *testing.T) {
	stage := NewCompensation(newTestRunner(t, mockReturning(compensationJSON)))

	d := stage.Run(context.Background(), testInput())

	out := d.Output.(*types.CompensationPackage)
	assert.Equal(t, 145000, out.TargetSalary)
	assert.Equal(t, &types.SalaryRange{Min: 130000, Max: 160000}, out.RecommendedSalaryRange)
	assert.Empty(t, d.Validation.Warnings)
	assert.Equal(t, []string{"Compensation package: $145,000"}, d.Trace)
}

func TestCompensation_OutsideBudgetWarnsAndFillsRange(t *testing.T) {
	body := `{"target_salary": "95000", "benefits_package": ["Health"]}`
	client := mockReturning(body)
	stage := NewCompensation(newTestRunner(t, client))

	d := stage.Run(context.Background(), testInput())

	out := d.Output.(*types.CompensationPackage)
	assert.Equal(t, 95000, out.TargetSalary)
	assert.Equal(t, &types.SalaryRange{Min: 120000, Max: 160000}, out.RecommendedSalaryRange)
	assert.True(t, d.Validation.Valid)
	assert.Contains(t, d.Validation.Warnings, "Target salary $95,000 is outside budget range")
	assert.True(t, hasPrefix(d.Validation.Warnings, "Compensation: Field 'target_salary' has unexpected type"))
	assert.Contains(t, client.Requests()[0].User, "Budget Range: $120,000 - $160,000")
}

func TestCompensation_FallbackDerivesFromBudget(t *testing.T) {
	stage := NewCompensation(newTestRunner(t, mockReturning("{not json")))

	d := stage.Run(context.Background(), testInput())

	out := d.Output.(*types.CompensationPackage)
	assert.Equal(t, 140000, out.TargetSalary)
	assert.Equal(t, &types.SalaryRange{Min: 120000, Max: 160000}, out.RecommendedSalaryRange)
	assert.Equal(t, types.FallbackMarker, out.Error)
	assert.Equal(t, []string{"Compensation: Failed to parse LLM response"}, d.Errors)
}

func TestOfferLetter_Success(t *testing.T) {
	letter := "Dear Candidate,\n\n" + strings.Repeat("We are delighted to offer you this position. ", 6)
	client := mockReturning(letter)
	stage := NewOfferLetter(newTestRunner(t, client))

	in := testInput()
	in.JobAnalysis = &types.JobAnalysis{JobTitle: "Backend Engineer"}
	in.CompensationPackage = &types.CompensationPackage{TargetSalary: 150000, BenefitsPackage: []string{"Health", "PTO"}}
	d := stage.Run(context.Background(), in)

	text := d.Output.(string)
	assert.Equal(t, strings.TrimSpace(letter), text)
	assert.Empty(t, d.Errors)
	assert.True(t, d.Validation.Valid)

	user := client.Requests()[0].User
	assert.Contains(t, user, "Job Title: Backend Engineer")
	assert.Contains(t, user, "Salary: $150,000")
	assert.Contains(t, user, "Benefits: Health, PTO")
	assert.Equal(t, llm.TierAdvanced, client.Requests()[0].Tier)
	assert.Nil(t, client.Requests()[0].Schema)
}

func TestOfferLetter_DefaultsWithoutUpstream(t *testing.T) {
	client := mockReturning(strings.Repeat("a", MinOfferLetterLength))
	stage := NewOfferLetter(newTestRunner(t, client))

	d := stage.Run(context.Background(), testInput())

	user := client.Requests()[0].User
	assert.Contains(t, user, "Job Title: Software Engineer")
	assert.Contains(t, user, "Salary: $100,000")
	assert.Contains(t, user, "Benefits: Competitive benefits package")
	assert.Equal(t, []string{"Offer letter generated: 200 characters"}, d.Trace)
}

func TestOfferLetter_TooShort(t *testing.T) {
	stage := NewOfferLetter(newTestRunner(t, mockReturning("Welcome aboard.")))

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, "Welcome aboard.", d.Output)
	assert.Equal(t, []string{"Offer Letter: Generated letter is too short"}, d.Errors)
	assert.Equal(t, []string{"Letter too short"}, d.Validation.Errors)
	assert.False(t, d.Validation.Valid)
	assert.False(t, d.Fallback)
}

func TestOfferLetter_ProviderFailure(t *testing.T) {
	client := &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", errors.New("boom")
		},
	}
	stage := NewOfferLetter(newTestRunner(t, client))

	d := stage.Run(context.Background(), testInput())

	assert.Equal(t, "Error generating offer letter: boom", d.Output)
	assert.Equal(t, []string{"Offer Letter: boom"}, d.Errors)
	assert.True(t, d.Fallback)
	assert.Equal(t, 1, client.CompleteCalls())
}

func TestDefault_Catalog(t *testing.T) {
	all := Default(newTestRunner(t, mockReturning("{}")), Options{})
	require.Len(t, all, 5)

	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Spec().Name
	}
	assert.Equal(t, []string{ParseJob, SourceCandidates, CreateScreening, AnalyzeCompensation, GenerateOffer}, names)
	assert.Empty(t, all[0].Spec().Dependencies)
	assert.Equal(t, []string{AnalyzeCompensation}, all[4].Spec().Dependencies)
}

func TestDelta_Apply(t *testing.T) {
	state := types.NewWorkflowState(testInput().WorkflowInput)
	stage := NewScreening(newTestRunner(t, mockReturning(screeningJSON)))

	d := stage.Run(context.Background(), testInput())
	d.Apply(state)

	require.NotNil(t, state.ScreeningCriteria)
	assert.Equal(t, "Take-home", state.ScreeningCriteria.TechnicalAssessment)
	assert.Contains(t, state.ValidationResults, types.StageKeyScreening)
	assert.Equal(t, d.Trace, state.Trace)

	// a second delta for the same field is rejected
	d.Apply(state)
	assert.Equal(t, []string{"create_screening: output already set, duplicate result ignored"}, state.Errors)
	assert.Len(t, state.Trace, 1)
}

func TestDelta_ApplyOfferLetter(t *testing.T) {
	state := types.NewWorkflowState(types.WorkflowInput{})
	Delta{Stage: GenerateOffer, Key: types.StageKeyOfferLetter, Output: "letter"}.Apply(state)

	require.NotNil(t, state.OfferLetter)
	assert.Equal(t, "letter", *state.OfferLetter)
}

func hasPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
