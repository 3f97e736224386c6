package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/types"
)

func TestPrintJobAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobAnalysis(&types.JobAnalysis{
		JobTitle:         "Senior Engineer",
		ExperienceLevel:  "5+ years",
		RequiredSkills:   []string{"Go", "Kubernetes", "Postgres", "gRPC", "Terraform", "AWS"},
		NiceToHaveSkills: []string{"Rust"},
	})
	output := buf.String()

	assert.Contains(t, output, "JOB ANALYSIS")
	assert.Contains(t, output, "Senior Engineer")
	assert.Contains(t, output, "Kubernetes")
	assert.Contains(t, output, "Rust")
	assert.Contains(t, output, "... and 1 more")
	assert.NotContains(t, output, "default used")
}

func TestPrintJobAnalysis_Fallback(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobAnalysis(types.DefaultJobAnalysis())

	assert.Contains(t, buf.String(), "default used: "+types.FallbackMarker)
}

func TestPrint_NilOutputs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintWorkflow(nil)
	p.PrintJobAnalysis(nil)
	p.PrintSourcingStrategy(nil)
	p.PrintScreeningCriteria(nil)
	p.PrintCompensation(nil)
	p.PrintOfferLetter(nil)
	p.PrintValidation(nil)
	p.PrintBatchResults(nil)

	assert.Empty(t, buf.String())
}

func TestPrintCompensation_FormatsMoney(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCompensation(&types.CompensationPackage{
		RecommendedSalaryRange: &types.SalaryRange{Min: 120000, Max: 150000},
		TargetSalary:           135000,
		BenefitsPackage:        []string{"Health insurance"},
	})
	output := buf.String()

	assert.Contains(t, output, "$120,000 - $150,000")
	assert.Contains(t, output, "$135,000")
	assert.Contains(t, output, "Health insurance")
}

func TestPrintOfferLetter_Truncates(t *testing.T) {
	var buf bytes.Buffer
	letter := strings.Repeat("line\n", 12)
	NewPrinter(&buf).PrintOfferLetter(&letter)

	assert.Contains(t, buf.String(), "... and 4 more lines")
}

func TestPrintWorkflow(t *testing.T) {
	var buf bytes.Buffer
	letter := "Dear Candidate,\nWelcome aboard."
	state := types.NewWorkflowState(types.WorkflowInput{JobDescription: "Go engineer"})
	state.RunID = "run-42"
	state.JobAnalysis = &types.JobAnalysis{JobTitle: "Go Engineer"}
	state.SourcingStrategy = &types.SourcingStrategy{Platforms: []types.Platform{{Name: "LinkedIn", Reason: "reach"}}}
	state.ScreeningCriteria = &types.ScreeningCriteria{MustHaveCriteria: []string{"Go"}}
	state.CompensationPackage = &types.CompensationPackage{TargetSalary: 100000}
	state.OfferLetter = &letter
	state.Trace = []string{"parse_job", "generate_offer"}
	state.ValidationResults["job_parser"] = types.ValidationResult{Valid: true}
	state.ValidationResults["input"] = types.ValidationResult{Valid: true, Warnings: []string{"short description"}}

	NewPrinter(&buf).PrintWorkflow(state)
	output := buf.String()

	for _, title := range []string{"JOB ANALYSIS", "SOURCING STRATEGY", "SCREENING CRITERIA", "COMPENSATION PACKAGE", "OFFER LETTER", "VALIDATION", "WORKFLOW SUMMARY"} {
		assert.Contains(t, output, title)
	}
	assert.Contains(t, output, "LinkedIn (reach)")
	assert.Contains(t, output, "warning: short description")
	assert.Contains(t, output, "run-42")
	assert.Contains(t, output, types.OutcomeWarnings)
	assert.Less(t, strings.Index(output, "✅ input"), strings.Index(output, "✅ job_parser"), "validation keys are sorted")
}

func TestPrintSummary_Errors(t *testing.T) {
	var buf bytes.Buffer
	state := types.NewWorkflowState(types.WorkflowInput{})
	state.Errors = []string{"parse_job: provider unavailable"}

	NewPrinter(&buf).PrintSummary(state)

	assert.Contains(t, buf.String(), "Errors (1)")
	assert.Contains(t, buf.String(), types.OutcomeErrors)
}

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidates("job-1", []types.Candidate{
		{ID: "alice", SimilarityScore: 0.91, Passed: true, Screening: &types.ResumeScreening{Score: 88, Recommendation: types.RecommendationHire, Strengths: []string{"Go"}}},
		{ID: "bob", SimilarityScore: 0.5},
	})
	output := buf.String()

	assert.Contains(t, output, "CANDIDATES FOR job-1")
	assert.Contains(t, output, "✓ alice")
	assert.Contains(t, output, "Score: 88  HIRE")
	assert.Contains(t, output, "✗ bob")
}

func TestPrintCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCandidates("job-1", nil)

	assert.Contains(t, buf.String(), "NO CANDIDATES FOUND FOR job-1")
}

func TestPrintBatchResults(t *testing.T) {
	var buf bytes.Buffer
	ok := types.NewWorkflowState(types.WorkflowInput{})

	NewPrinter(&buf).PrintBatchResults([]batch.Result{
		{Index: 0, Status: batch.StatusSuccess, Result: ok, Config: types.JobConfig{JobTitle: "SRE"}},
		{Index: 1, Status: batch.StatusError, Error: "invalid job configuration"},
	})
	output := buf.String()

	assert.Contains(t, output, "✓ SRE: "+types.OutcomeClean)
	assert.Contains(t, output, "✗ Job 2: invalid job configuration")
	assert.Contains(t, output, "1 succeeded, 1 failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 20), 10))
}
