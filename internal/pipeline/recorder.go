package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/db"
	"github.com/jonathan/recruiting-agent/internal/pipeline/steps"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/types"
)

// Recorder persists workflow runs. *db.DB satisfies it.
type Recorder interface {
	CreateRun(ctx context.Context, runID uuid.UUID, in types.WorkflowInput) error
	SetRunJobTitle(ctx context.Context, runID uuid.UUID, title string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	RecordRunStep(ctx context.Context, runID uuid.UUID, input *db.RunStepInput) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, outcome string, errorCount int) error
}

var _ Recorder = (*db.DB)(nil)

// persister writes run records, logging failures instead of surfacing them.
// A run whose creation failed is not written to again.
type persister struct {
	rec    Recorder
	runID  uuid.UUID
	logger *zap.Logger
}

func newPersister(rec Recorder, runID uuid.UUID, logger *zap.Logger) *persister {
	return &persister{rec: rec, runID: runID, logger: logger}
}

func (p *persister) warn(err error, msg string, fields ...zap.Field) {
	if err != nil {
		p.logger.Warn(msg, append(fields, zap.Error(err))...)
	}
}

func (p *persister) start(ctx context.Context, in types.WorkflowInput) {
	if p.rec == nil {
		return
	}
	if err := p.rec.CreateRun(ctx, p.runID, in); err != nil {
		p.warn(err, "failed to record workflow run, continuing without persistence")
		p.rec = nil
	}
}

func (p *persister) stage(ctx context.Context, d stages.Delta, duration time.Duration) {
	if p.rec == nil {
		return
	}
	category := steps.CategoryOf(d.Stage)

	switch out := d.Output.(type) {
	case string:
		p.warn(p.rec.SaveTextArtifact(ctx, p.runID, d.Stage, category, out), "failed to save artifact", zap.String("step", d.Stage))
	case nil:
	default:
		p.warn(p.rec.SaveArtifact(ctx, p.runID, d.Stage, category, out), "failed to save artifact", zap.String("step", d.Stage))
	}
	if analysis, ok := d.Output.(*types.JobAnalysis); ok && analysis.JobTitle != "" {
		p.warn(p.rec.SetRunJobTitle(ctx, p.runID, analysis.JobTitle), "failed to set job title")
	}

	status := db.StepStatusCompleted
	if d.Fallback {
		status = db.StepStatusFallback
	} else if len(d.Errors) > 0 {
		status = db.StepStatusFailed
	}
	p.warn(p.rec.RecordRunStep(ctx, p.runID, &db.RunStepInput{
		Step:         d.Stage,
		Category:     category,
		Status:       status,
		Attempts:     d.Attempts,
		Duration:     duration,
		ErrorMessage: strings.Join(d.Errors, "; "),
	}), "failed to record run step", zap.String("step", d.Stage))
}

func (p *persister) finish(ctx context.Context, state *types.WorkflowState) {
	if p.rec == nil {
		return
	}
	status := db.RunStatusCompleted
	if state.HasErrors() {
		status = db.RunStatusCompletedWithErrors
	}
	p.warn(p.rec.CompleteRun(ctx, p.runID, status, state.Outcome(), len(state.Errors)), "failed to complete workflow run")
}
