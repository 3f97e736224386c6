package stages

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/llm/llmtest"
	"github.com/jonathan/recruiting-agent/internal/retry"
	"github.com/jonathan/recruiting-agent/internal/types"
)

const (
	jobAnalysisJSON = `{
		"job_title": "Backend Engineer",
		"experience_level": "5+ years",
		"employment_type": "Full-time",
		"required_skills": ["Go", "PostgreSQL"],
		"nice_to_have_skills": ["Kubernetes"],
		"responsibilities": ["Build services"],
		"qualifications": ["BS in Computer Science"]
	}`
	sourcingJSON = `{
		"platforms": [{"name": "LinkedIn", "reason": "Reach"}, {"name": "GitHub", "reason": "Open source"}],
		"search_keywords": ["golang engineer"],
		"sourcing_channels": ["Referrals"],
		"outreach_strategy": "Personalized messages",
		"timeline": "3 weeks"
	}`
	screeningJSON = `{
		"must_have_criteria": ["Go experience"],
		"nice_to_have_criteria": ["Cloud"],
		"screening_questions": ["Describe a service you built", "How do you test concurrency?"],
		"technical_assessment": "Take-home",
		"evaluation_rubric": "1-5 scale"
	}`
	compensationJSON = `{
		"market_analysis": "Tight market",
		"recommended_salary_range": {"min": 130000, "max": 160000},
		"target_salary": 145000,
		"benefits_package": ["Health", "401k"],
		"equity_structure": "RSUs",
		"justification": "Senior role"
	}`
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestRunner(t *testing.T, client llm.Client) *Runner {
	t.Helper()
	return NewRunner(client, testPolicy(), zaptest.NewLogger(t))
}

func testInput() Input {
	return Input{
		WorkflowInput: types.WorkflowInput{
			JobDescription: strings.Repeat("We are hiring a backend engineer to build Go services. ", 3),
			CompanyName:    "Acme",
			Department:     "Engineering",
			SalaryFloor:    120000,
			SalaryCeiling:  160000,
		},
	}
}

func transientErr() error {
	return &llm.ProviderError{Op: llm.OpComplete, Message: "rate limited", Transient: true}
}

func mockReturning(text string) *llmtest.MockClient {
	return &llmtest.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return text, nil
		},
	}
}
