package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jonathan/recruiting-agent/internal/types"
)

func setupTestDB(t *testing.T) (*DB, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("recruiting_test"),
		postgres.WithUsername("recruiter"),
		postgres.WithPassword("recruiter"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.Migrate(ctx))
	require.NoError(t, database.Migrate(ctx), "migrations are idempotent")
	return database, ctx
}

func TestIntegration_RunLifecycle(t *testing.T) {
	database, ctx := setupTestDB(t)

	runID := uuid.New()
	in := types.WorkflowInput{CompanyName: "Acme", Department: "Engineering", SalaryFloor: 100000, SalaryCeiling: 150000}
	require.NoError(t, database.CreateRun(ctx, runID, in))
	require.NoError(t, database.SetRunJobTitle(ctx, runID, "Backend Engineer"))

	require.NoError(t, database.SaveArtifact(ctx, runID, "parse_job", StepCategoryAnalysis,
		&types.JobAnalysis{JobTitle: "Backend Engineer"}))
	require.NoError(t, database.SaveTextArtifact(ctx, runID, "generate_offer", StepCategoryOffer, "Dear candidate"))
	require.NoError(t, database.RecordRunStep(ctx, runID, &RunStepInput{
		Step: "parse_job", Category: StepCategoryAnalysis, Status: StepStatusCompleted, Attempts: 1, Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, database.RecordRunStep(ctx, runID, &RunStepInput{
		Step: "generate_offer", Category: StepCategoryOffer, Status: StepStatusFallback, Attempts: 3, ErrorMessage: "Offer Letter: boom",
	}))
	require.NoError(t, database.CompleteRun(ctx, runID, RunStatusCompletedWithErrors, types.OutcomeFallback, 1))

	run, err := database.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "Backend Engineer", run.JobTitle)
	assert.Equal(t, RunStatusCompletedWithErrors, run.Status)
	assert.Equal(t, 1, run.ErrorCount)
	assert.NotNil(t, run.CompletedAt)

	content, err := database.GetArtifact(ctx, runID, "parse_job")
	require.NoError(t, err)
	assert.Contains(t, string(content), "Backend Engineer")

	detail, err := database.GetRunDetail(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, detail.Artifacts, 2)
	assert.Len(t, detail.Steps, 2)

	done, err := database.CompletedSteps(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"parse_job": true, "generate_offer": true}, done)

	runs, err := database.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestIntegration_GetRunMissing(t *testing.T) {
	database, ctx := setupTestDB(t)

	run, err := database.GetRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, run)

	content, err := database.GetArtifact(ctx, uuid.New(), "parse_job")
	require.NoError(t, err)
	assert.Nil(t, content)
}
