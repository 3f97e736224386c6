package pipeline

import (
	"fmt"

	"github.com/jonathan/recruiting-agent/internal/pipeline/steps"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/types"
)

// Progress event types
const (
	EventStageStarted   = "stage_started"
	EventStageCompleted = "stage_completed"
	EventComplete       = "complete"
)

// ProgressEvent represents a progress update during workflow execution
type ProgressEvent struct {
	Type     string `json:"type"`
	Step     string `json:"step,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called from the coordinating goroutine, never concurrently
type ProgressCallback func(event ProgressEvent)

type emitter struct {
	fn    ProgressCallback
	runID string
}

func newEmitter(fn ProgressCallback, runID string) *emitter {
	return &emitter{fn: fn, runID: runID}
}

func (e *emitter) emit(ev ProgressEvent) {
	if e.fn == nil {
		return
	}
	ev.RunID = e.runID
	e.fn(ev)
}

func (e *emitter) stageStarted(name string) {
	e.emit(ProgressEvent{
		Type:     EventStageStarted,
		Step:     name,
		Category: steps.CategoryOf(name),
		Message:  fmt.Sprintf("Starting %s", name),
	})
}

func (e *emitter) stageCompleted(d stages.Delta) {
	msg := fmt.Sprintf("Completed %s", d.Stage)
	if len(d.Trace) > 0 {
		msg = d.Trace[len(d.Trace)-1]
	}
	e.emit(ProgressEvent{
		Type:     EventStageCompleted,
		Step:     d.Stage,
		Category: steps.CategoryOf(d.Stage),
		Message:  msg,
		Fallback: d.Fallback,
		Content:  d.Output,
	})
}

func (e *emitter) complete(state *types.WorkflowState) {
	e.emit(ProgressEvent{
		Type:    EventComplete,
		Message: fmt.Sprintf("Workflow %s with %d errors", state.Outcome(), len(state.Errors)),
		Content: state,
	})
}
