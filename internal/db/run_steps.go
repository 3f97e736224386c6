package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordRunStep stores the outcome of one stage, replacing any earlier record for the step
func (db *DB) RecordRunStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) error {
	durationMs := int(input.Duration.Milliseconds())
	var errorMsg *string
	if input.ErrorMessage != "" {
		errorMsg = &input.ErrorMessage
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO workflow_run_steps (run_id, step, category, status, attempts, duration_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET category = $3, status = $4, attempts = $5, duration_ms = $6, error_message = $7`,
		runID, input.Step, input.Category, input.Status, input.Attempts, durationMs, errorMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record run step %s: %w", input.Step, err)
	}
	return nil
}

// ListRunSteps retrieves all steps recorded for a run in completion order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, category, status, attempts, duration_ms, error_message, created_at
		 FROM workflow_run_steps
		 WHERE run_id = $1
		 ORDER BY created_at, step`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	steps := []RunStep{}
	for rows.Next() {
		var step RunStep
		if err := rows.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
			&step.Attempts, &step.DurationMs, &step.ErrorMessage, &step.CreatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// CompletedSteps returns the names of the steps of a run that finished, with or without fallback
func (db *DB) CompletedSteps(ctx context.Context, runID uuid.UUID) (map[string]bool, error) {
	steps, err := db.ListRunSteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(steps))
	for _, s := range steps {
		done[s.Step] = true
	}
	return done, nil
}
