// Package pipeline runs the recruiting stages as a fixed dependency graph.
//
// A stage becomes eligible once every dependency has completed, whether it
// succeeded or fell back to its default payload. Eligible stages run
// concurrently; their deltas are merged into the workflow state by the single
// coordinating goroutine, so stages never share mutable state.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/validation"
)

// TopologyError reports a graph that cannot be executed
type TopologyError struct {
	Stage   string
	Message string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("invalid workflow graph at %s: %s", e.Stage, e.Message)
}

// Graph executes a fixed set of stages in dependency order
type Graph struct {
	stages     map[string]stages.Stage
	order      []string
	dependents map[string][]string
	ancestors  map[string]map[string]bool
	terminals  map[string]bool

	logger   *zap.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// Option configures a Graph
type Option func(*Graph)

// WithLogger sets the graph logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Graph) { g.logger = logging.OrNop(logger) }
}

// WithTracer sets the tracer used for run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Graph) { g.tracer = tracer }
}

// WithRecorder persists each run through r.
func WithRecorder(r Recorder) Option {
	return func(g *Graph) { g.recorder = r }
}

// NewGraph validates the topology formed by all and builds an executable graph.
func NewGraph(all []stages.Stage, opts ...Option) (*Graph, error) {
	g := &Graph{
		stages:     make(map[string]stages.Stage, len(all)),
		dependents: make(map[string][]string),
		ancestors:  make(map[string]map[string]bool),
		terminals:  make(map[string]bool),
		logger:     zap.NewNop(),
		tracer:     tracing.Tracer(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if len(all) == 0 {
		return nil, &TopologyError{Stage: "(graph)", Message: "no stages"}
	}

	for _, s := range all {
		name := s.Spec().Name
		if _, dup := g.stages[name]; dup {
			return nil, &TopologyError{Stage: name, Message: "duplicate stage name"}
		}
		g.stages[name] = s
	}

	for _, s := range all {
		spec := s.Spec()
		for _, dep := range spec.Dependencies {
			if _, ok := g.stages[dep]; !ok {
				return nil, &TopologyError{Stage: spec.Name, Message: fmt.Sprintf("unknown dependency %q", dep)}
			}
			g.dependents[dep] = append(g.dependents[dep], spec.Name)
		}
	}

	order, err := g.topologicalOrder(all)
	if err != nil {
		return nil, err
	}
	g.order = order

	for _, name := range order {
		anc := make(map[string]bool)
		for _, dep := range g.stages[name].Spec().Dependencies {
			anc[dep] = true
			for a := range g.ancestors[dep] {
				anc[a] = true
			}
		}
		g.ancestors[name] = anc
		if len(g.dependents[name]) == 0 {
			g.terminals[name] = true
		}
	}
	return g, nil
}

// topologicalOrder returns the stage names in dependency order, keeping declaration order among peers.
func (g *Graph) topologicalOrder(all []stages.Stage) ([]string, error) {
	remaining := make(map[string]int, len(all))
	for _, s := range all {
		remaining[s.Spec().Name] = len(s.Spec().Dependencies)
	}

	order := make([]string, 0, len(all))
	for len(order) < len(all) {
		progressed := false
		for _, s := range all {
			name := s.Spec().Name
			if remaining[name] != 0 {
				continue
			}
			remaining[name] = -1
			order = append(order, name)
			for _, next := range g.dependents[name] {
				remaining[next]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for name, n := range remaining {
				if n > 0 {
					stuck = append(stuck, name)
				}
			}
			sort.Strings(stuck)
			return nil, &TopologyError{Stage: strings.Join(stuck, ","), Message: "dependency cycle"}
		}
	}
	return order, nil
}

// Order returns the stage names in topological order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Terminals returns the names of stages no other stage depends on.
func (g *Graph) Terminals() []string {
	names := make([]string, 0, len(g.terminals))
	for name := range g.terminals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// completion is what a stage goroutine hands back to the coordinator
type completion struct {
	delta    stages.Delta
	duration time.Duration
}

// Run executes every stage and returns the final state. It never fails:
// stage failures are recorded in the state's errors.
func (g *Graph) Run(ctx context.Context, in types.WorkflowInput, onProgress ProgressCallback) *types.WorkflowState {
	state := types.NewWorkflowState(in)
	runID := uuid.New()
	state.RunID = runID.String()

	ctx, span := tracing.StartSpan(ctx, g.tracer, "workflow.run", attribute.String(tracing.RunIDKey, state.RunID))
	defer span.End()

	metrics.WorkflowsActive.Inc()
	defer metrics.WorkflowsActive.Dec()

	logger := g.logger.With(zap.String("run_id", state.RunID))
	progress := newEmitter(onProgress, state.RunID)
	persist := newPersister(g.recorder, runID, logger)
	persist.start(ctx, in)

	inputResult := validation.ValidateInput(in)
	state.ValidationResults[types.ValidationKeyInput] = inputResult
	for _, e := range inputResult.Errors {
		state.Errors = append(state.Errors, "Input: "+e)
	}
	if !inputResult.Valid {
		logger.Warn("workflow input failed validation", zap.Strings("errors", inputResult.Errors))
	}

	remaining := make(map[string]int, len(g.stages))
	for name, s := range g.stages {
		remaining[name] = len(s.Spec().Dependencies)
	}

	results := make(chan completion)
	running := 0
	launch := func(name string) {
		stage := g.stages[name]
		projection := g.project(state, name)
		running++
		progress.stageStarted(name)
		go func() {
			start := time.Now()
			d := g.execute(ctx, stage, projection, logger)
			results <- completion{delta: d, duration: time.Since(start)}
		}()
	}

	for _, name := range g.order {
		if remaining[name] == 0 {
			launch(name)
		}
	}

	done := make(map[string]bool, len(g.stages))
	terminalsLeft := len(g.terminals)
	for running > 0 {
		c := <-results
		running--

		d := c.delta
		d.Apply(state)
		done[d.Stage] = true
		if g.terminals[d.Stage] {
			terminalsLeft--
		}
		progress.stageCompleted(d)
		persist.stage(ctx, d, c.duration)

		for _, next := range g.dependents[d.Stage] {
			remaining[next]--
			if remaining[next] == 0 {
				launch(next)
			}
		}
	}

	if terminalsLeft != 0 || len(done) != len(g.stages) {
		var stalled []string
		for _, name := range g.order {
			if !done[name] {
				stalled = append(stalled, name)
			}
		}
		panic(fmt.Sprintf("workflow graph stalled: stages never became eligible: %v", stalled))
	}

	state.ValidationResults[types.ValidationKeyWorkflow] = validation.ValidateWorkflowCompletion(state.StageOutputs())

	outcome := state.Outcome()
	metrics.WorkflowRuns.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("workflow.outcome", outcome))
	persist.finish(ctx, state)
	progress.complete(state)

	logger.Info("workflow completed",
		zap.String("outcome", outcome),
		zap.Int("errors", len(state.Errors)))
	return state
}

// project builds the read-only input of a stage from the outputs of its ancestors.
func (g *Graph) project(state *types.WorkflowState, name string) stages.Input {
	in := stages.Input{WorkflowInput: state.WorkflowInput}
	anc := g.ancestors[name]
	if anc[stages.ParseJob] {
		in.JobAnalysis = state.JobAnalysis
	}
	if anc[stages.AnalyzeCompensation] {
		in.CompensationPackage = state.CompensationPackage
	}
	return in
}

// execute runs one stage, converting a panic into the stage's fallback delta.
func (g *Graph) execute(ctx context.Context, s stages.Stage, in stages.Input, logger *zap.Logger) (d stages.Delta) {
	defer func() {
		if r := recover(); r != nil {
			name := s.Spec().Name
			logger.Error("stage panicked", zap.String("stage", name), zap.Any("panic", r))
			metrics.StageRuns.WithLabelValues(name, metrics.OutcomeFailed).Inc()
			d = s.Fallback(in, fmt.Sprintf("panic: %v", r))
		}
	}()
	return s.Run(ctx, in)
}
