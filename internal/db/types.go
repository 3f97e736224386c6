package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
)

// Run represents a workflow run record
type Run struct {
	ID            uuid.UUID  `json:"id"`
	CompanyName   string     `json:"company_name"`
	Department    string     `json:"department"`
	JobTitle      string     `json:"job_title"`
	SalaryFloor   int        `json:"salary_floor"`
	SalaryCeiling int        `json:"salary_ceiling"`
	Status        string     `json:"status"`
	Outcome       string     `json:"outcome,omitempty"`
	ErrorCount    int        `json:"error_count"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Artifact represents one stored stage output
type Artifact struct {
	ID          uuid.UUID       `json:"id"`
	RunID       uuid.UUID       `json:"run_id"`
	Step        string          `json:"step"`
	Category    string          `json:"category"`
	Content     json.RawMessage `json:"content,omitempty"`
	TextContent string          `json:"text_content,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RunDetail is a run together with its steps and artifacts
type RunDetail struct {
	Run       Run        `json:"run"`
	Steps     []RunStep  `json:"steps"`
	Artifacts []Artifact `json:"artifacts"`
}
