// Package batch runs the recruiting workflow over many job configurations
// with per-item isolation.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/pipeline"
	"github.com/jonathan/recruiting-agent/internal/schemas"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/types"
	embedded "github.com/jonathan/recruiting-agent/schemas"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one batch item
type Result struct {
	Index  int                  `json:"index"`
	Status string               `json:"status"`
	Result *types.WorkflowState `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
	Config types.JobConfig      `json:"config"`
}

// ProgressFunc is called before each item starts.
type ProgressFunc func(index, total int, label string)

// Workflow runs one workflow. *pipeline.Graph implements it.
type Workflow interface {
	Run(ctx context.Context, in types.WorkflowInput, onProgress pipeline.ProgressCallback) *types.WorkflowState
}

var _ Workflow = (*pipeline.Graph)(nil)

// Processor runs a Workflow for each job configuration
type Processor struct {
	workflow    Workflow
	concurrency int
	validate    *validator.Validate
	logger      *zap.Logger
	tracer      trace.Tracer
}

// Option configures a Processor
type Option func(*Processor)

// WithConcurrency sets how many items run at once. Values below 1 run sequentially.
func WithConcurrency(n int) Option {
	return func(p *Processor) { p.concurrency = max(n, 1) }
}

// WithLogger sets the processor logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) { p.logger = logging.OrNop(logger) }
}

// WithTracer sets the tracer used for batch spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// NewProcessor creates a batch processor.
func NewProcessor(workflow Workflow, opts ...Option) *Processor {
	p := &Processor{
		workflow:    workflow,
		concurrency: 1,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Label returns the progress label for the item at index.
func Label(cfg types.JobConfig, index int) string {
	if cfg.JobTitle != "" {
		return cfg.JobTitle
	}
	return fmt.Sprintf("Job %d", index+1)
}

// Process runs every config and returns one result per config in input order.
// A failing item never stops the batch.
func (p *Processor) Process(ctx context.Context, configs []types.JobConfig, progress ProgressFunc) []Result {
	ctx, span := tracing.StartSpan(ctx, p.tracer, "batch.process",
		attribute.Int(tracing.BatchSizeKey, len(configs)))
	defer span.End()

	results := make([]Result, len(configs))
	total := len(configs)

	// progress calls are serialized so callers need no locking
	var progressMu sync.Mutex
	notify := func(i int, cfg types.JobConfig) {
		if progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		progress(i, total, Label(cfg, i))
	}

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i, cfg := range configs {
		g.Go(func() error {
			notify(i, cfg)
			results[i] = p.processOne(ctx, i, cfg)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == StatusError {
			failed++
		}
	}
	p.logger.Info("batch complete",
		zap.Int("items", total),
		zap.Int("succeeded", total-failed),
		zap.Int("failed", failed))
	return results
}

func (p *Processor) processOne(ctx context.Context, index int, cfg types.JobConfig) (res Result) {
	cfg = cfg.WithDefaults()
	res = Result{Index: index, Config: cfg}
	logger := p.logger.With(zap.Int("index", index), zap.String("label", Label(cfg, index)))

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusError
			res.Result = nil
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		metrics.BatchItems.WithLabelValues(res.Status).Inc()
		if res.Status == StatusError {
			logger.Warn("batch item failed", zap.String("error", res.Error))
		} else {
			logger.Info("batch item completed")
		}
	}()

	if err := p.check(cfg); err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}

	res.Result = p.workflow.Run(ctx, cfg.Input(), nil)
	res.Status = StatusSuccess
	return res
}

// check rejects items with no usable job description.
func (p *Processor) check(cfg types.JobConfig) error {
	trimmed := cfg
	trimmed.JobDescription = strings.TrimSpace(cfg.JobDescription)
	if err := p.validate.Struct(trimmed); err != nil {
		return errors.New("invalid job configuration: job_description is required")
	}
	return nil
}

// LoadConfigs reads a JSON batch file after checking it against the batch schema.
func LoadConfigs(path string) ([]types.JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if err := schemas.ValidateJSON(embedded.JobBatch, data); err != nil {
		return nil, err
	}
	return ParseConfigs(data)
}

// ParseConfigs decodes a JSON array of job configurations.
func ParseConfigs(data []byte) ([]types.JobConfig, error) {
	var configs []types.JobConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}
	return configs, nil
}
