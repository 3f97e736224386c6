package db

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus constants
const (
	StepStatusCompleted = "completed"
	// StepStatusFallback marks a step whose output was replaced by its default payload
	StepStatusFallback = "fallback"
	StepStatusFailed   = "failed"
)

// StepCategory constants
const (
	StepCategoryAnalysis     = "analysis"
	StepCategorySourcing     = "sourcing"
	StepCategoryScreening    = "screening"
	StepCategoryCompensation = "compensation"
	StepCategoryOffer        = "offer"
)

// RunStep represents a single stage execution for a workflow run
type RunStep struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	Step         string    `json:"step"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	DurationMs   *int      `json:"duration_ms,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunStepInput represents input for recording a run step
type RunStepInput struct {
	Step         string
	Category     string
	Status       string
	Attempts     int
	Duration     time.Duration
	ErrorMessage string
}
