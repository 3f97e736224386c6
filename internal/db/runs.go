package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/recruiting-agent/internal/types"
)

const runColumns = `id, company_name, department, job_title, salary_floor, salary_ceiling,
	status, outcome, error_count, created_at, completed_at`

// CreateRun records the start of a workflow run
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, in types.WorkflowInput) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO workflow_runs (id, company_name, department, salary_floor, salary_ceiling, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, in.CompanyName, in.Department, in.SalaryFloor, in.SalaryCeiling, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// SetRunJobTitle stores the job title once the job has been parsed
func (db *DB) SetRunJobTitle(ctx context.Context, runID uuid.UUID, title string) error {
	_, err := db.pool.Exec(ctx, `UPDATE workflow_runs SET job_title = $1 WHERE id = $2`, title, runID)
	if err != nil {
		return fmt.Errorf("failed to set job title: %w", err)
	}
	return nil
}

// CompleteRun marks a workflow run as finished
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, outcome string, errorCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE workflow_runs SET status = $1, outcome = $2, error_count = $3, completed_at = NOW() WHERE id = $4`,
		status, outcome, errorCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a workflow run by ID. It returns nil when the run does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM workflow_runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent workflow runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM workflow_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunDetail loads a run with its steps and artifacts. It returns nil when the run does not exist.
func (db *DB) GetRunDetail(ctx context.Context, runID uuid.UUID) (*RunDetail, error) {
	run, err := db.GetRun(ctx, runID)
	if err != nil || run == nil {
		return nil, err
	}
	steps, err := db.ListRunSteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	artifacts, err := db.ListArtifacts(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Steps: steps, Artifacts: artifacts}, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.CompanyName, &run.Department, &run.JobTitle,
		&run.SalaryFloor, &run.SalaryCeiling, &run.Status, &run.Outcome,
		&run.ErrorCount, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
