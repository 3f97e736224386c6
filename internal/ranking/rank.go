// Package ranking retrieves resumes similar to a job description and
// orders them by LLM screening score.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/retry"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/types"
	"github.com/jonathan/recruiting-agent/internal/vectorstore"
)

// DefaultPassThreshold is the minimum screening score for Candidate.Passed.
const DefaultPassThreshold = 70

// Ranker finds and screens candidates for a stored job description
type Ranker struct {
	store    vectorstore.Store
	embedder llm.Embedder
	screener stages.Screener

	jobs        string
	resumes     string
	policy      retry.Policy
	threshold   int
	concurrency int
	logger      *zap.Logger
	tracer      trace.Tracer
}

// Option configures a Ranker
type Option func(*Ranker)

// WithLogger sets the ranker logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Ranker) { r.logger = logging.OrNop(logger) }
}

// WithRetryPolicy sets the policy applied to the job embedding call.
func WithRetryPolicy(p retry.Policy) Option {
	return func(r *Ranker) { r.policy = p }
}

// WithCollections overrides the job and resume collection names.
func WithCollections(jobs, resumes string) Option {
	return func(r *Ranker) {
		r.jobs = jobs
		r.resumes = resumes
	}
}

// WithPassThreshold sets the score at or above which a candidate passes.
func WithPassThreshold(score int) Option {
	return func(r *Ranker) { r.threshold = score }
}

// WithConcurrency limits how many screenings run at once. Zero or less means unlimited.
func WithConcurrency(n int) Option {
	return func(r *Ranker) { r.concurrency = n }
}

// WithTracer sets the tracer used for ranking spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Ranker) { r.tracer = t }
}

// NewRanker creates a ranker over store.
func NewRanker(store vectorstore.Store, embedder llm.Embedder, screener stages.Screener, opts ...Option) *Ranker {
	r := &Ranker{
		store:     store,
		embedder:  embedder,
		screener:  screener,
		jobs:      vectorstore.CollectionJobs,
		resumes:   vectorstore.CollectionResumes,
		policy:    retry.DefaultPolicy(),
		threshold: DefaultPassThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankCandidates returns up to k screened candidates for jobID, best first.
// A missing job or an empty retrieval yields an empty slice. Embedding and
// search failures are returned.
func (r *Ranker) RankCandidates(ctx context.Context, jobID string, k int) ([]types.Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "ranking.rank_candidates",
		attribute.String(tracing.JobIDKey, jobID))
	defer span.End()

	job, err := r.store.Get(ctx, r.jobs, jobID)
	if err != nil {
		var nf *vectorstore.NotFoundError
		if errors.As(err, &nf) {
			r.logger.Info("job description not found", zap.String("job_id", jobID))
			return []types.Candidate{}, nil
		}
		tracing.SetError(span, err)
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	vector, err := llm.EmbedWithRetry(ctx, r.embedder, r.policy, job.Text, func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("job embedding failed, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	})
	if err != nil {
		tracing.SetError(span, err)
		return nil, fmt.Errorf("failed to embed job %s: %w", jobID, err)
	}

	matches, err := r.store.Search(ctx, r.resumes, vector, k)
	if err != nil {
		tracing.SetError(span, err)
		return nil, fmt.Errorf("resume search failed: %w", err)
	}
	if len(matches) == 0 {
		return []types.Candidate{}, nil
	}

	candidates := r.screenAll(ctx, job.Text, matches)
	sortCandidates(candidates)

	span.SetAttributes(attribute.Int(tracing.CandidatesKey, len(candidates)))
	r.logger.Info("candidates ranked",
		zap.String("job_id", jobID),
		zap.Int("retrieved", len(matches)),
		zap.Int("screened", len(candidates)))
	return candidates, nil
}

// screenAll screens every match concurrently and keeps the ones that
// succeeded, in retrieval order.
func (r *Ranker) screenAll(ctx context.Context, jobText string, matches []vectorstore.Match) []types.Candidate {
	screened := make([]*types.Candidate, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, m := range matches {
		g.Go(func() error {
			result, err := r.screen(gctx, jobText, m.Text)
			if err != nil {
				metrics.CandidatesScreened.WithLabelValues("failed").Inc()
				r.logger.Warn("screening failed, dropping candidate",
					zap.String("resume_id", m.ID),
					zap.Error(err))
				return nil
			}
			c := types.Candidate{
				ID:              m.ID,
				ResumeText:      m.Text,
				Metadata:        m.Metadata,
				SimilarityScore: m.Similarity(),
				Screening:       result,
				Passed:          result.Score >= r.threshold,
			}
			if c.Passed {
				metrics.CandidatesScreened.WithLabelValues("passed").Inc()
			} else {
				metrics.CandidatesScreened.WithLabelValues("rejected").Inc()
			}
			screened[i] = &c
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.Candidate, 0, len(matches))
	for _, c := range screened {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func (r *Ranker) screen(ctx context.Context, jobText, resumeText string) (result *types.ResumeScreening, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("screener panic: %v", p)
		}
	}()
	result, err = r.screener.Screen(ctx, jobText, resumeText)
	if err == nil && result == nil {
		err = errors.New("screener returned no result")
	}
	return result, err
}

// sortCandidates orders by score then similarity, both descending. The sort
// is stable so equal candidates keep retrieval order.
func sortCandidates(c []types.Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		si, sj := c[i].Screening.Score, c[j].Screening.Score
		if si != sj {
			return si > sj
		}
		return c[i].SimilarityScore > c[j].SimilarityScore
	})
}
