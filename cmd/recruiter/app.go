package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/batch"
	"github.com/jonathan/recruiting-agent/internal/cache"
	"github.com/jonathan/recruiting-agent/internal/config"
	"github.com/jonathan/recruiting-agent/internal/db"
	"github.com/jonathan/recruiting-agent/internal/fetch"
	"github.com/jonathan/recruiting-agent/internal/ingestion"
	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/pipeline"
	"github.com/jonathan/recruiting-agent/internal/ranking"
	"github.com/jonathan/recruiting-agent/internal/stages"
	"github.com/jonathan/recruiting-agent/internal/tracing"
	"github.com/jonathan/recruiting-agent/internal/vectorstore"
)

// provider is an LLM client that also embeds text.
type provider interface {
	llm.Client
	llm.Embedder
}

// app holds the settings and lazily built services shared by every command.
type app struct {
	settingsPath string
	logLevel     string

	settings *config.Settings
	logger   *zap.Logger

	// newProvider is replaced in tests
	newProvider func(ctx context.Context, s *config.Settings) (provider, error)

	provider provider
	redis    *redis.Client
	database *db.DB
	store    vectorstore.Store
	closers  []func(context.Context) error
}

func newApp() *app {
	return &app{newProvider: geminiProvider}
}

func geminiProvider(ctx context.Context, s *config.Settings) (provider, error) {
	if s.LLM.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY or RECRUITER_LLM_API_KEY is required")
	}
	client, err := llm.NewClient(ctx, s.LLM.ClientConfig(), s.LLM.APIKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// init loads settings and installs logging and tracing.
func (a *app) init(ctx context.Context) error {
	settings, err := config.Load(a.settingsPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		settings.Logging.Level = a.logLevel
	}
	a.settings = settings

	logger, err := logging.New(settings.Logging.Level, settings.Logging.Format)
	if err != nil {
		return err
	}
	a.logger = logger
	a.onClose(func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     settings.Tracing.Enabled,
		Endpoint:    settings.Tracing.Endpoint,
		ServiceName: settings.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}
	a.onClose(shutdown)
	return nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// llm returns the provider client, creating it on first use.
func (a *app) llm(ctx context.Context) (provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := a.newProvider(ctx, a.settings)
	if err != nil {
		return nil, err
	}
	a.provider = p
	a.onClose(func(context.Context) error { return p.Close() })
	return p, nil
}

// redisClient returns the cache connection, or nil when no Redis address is configured.
func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil || a.settings.Redis.Addr == "" {
		return a.redis, nil
	}
	rdb, err := cache.Connect(ctx, cache.Config{
		Addr:     a.settings.Redis.Addr,
		Password: a.settings.Redis.Password,
		DB:       a.settings.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	a.onClose(func(context.Context) error { return rdb.Close() })
	return rdb, nil
}

// embedder returns the provider embedder, wrapped in the Redis cache when configured.
func (a *app) embedder(ctx context.Context) (llm.Embedder, error) {
	p, err := a.llm(ctx)
	if err != nil {
		return nil, err
	}
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		return p, nil
	}
	return cache.NewEmbeddings(p, rdb, a.settings.LLM.EmbeddingModel, a.settings.Redis.EmbeddingTTL, a.logger), nil
}

// db returns the run history database, or nil when no database URL is configured.
func (a *app) db(ctx context.Context) (*db.DB, error) {
	if a.database != nil || a.settings.Database.URL == "" {
		return a.database, nil
	}
	database, err := db.Connect(ctx, a.settings.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	a.database = database
	a.onClose(func(context.Context) error {
		database.Close()
		return nil
	})
	return database, nil
}

// vectorStore builds the configured vector store backend.
func (a *app) vectorStore(ctx context.Context) (vectorstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s := a.settings
	switch s.VectorStore.Backend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, s.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to vector database: %w", err)
		}
		a.onClose(func(context.Context) error {
			pool.Close()
			return nil
		})
		pg := vectorstore.NewPostgres(pool, s.VectorStore.Dimensions)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.store = pg
	case config.BackendElasticsearch:
		es, err := vectorstore.NewElasticsearch(vectorstore.ElasticsearchConfig{
			Addresses:   s.Elasticsearch.Addresses,
			Username:    s.Elasticsearch.Username,
			Password:    s.Elasticsearch.Password,
			IndexPrefix: s.Elasticsearch.IndexPrefix,
			Dimensions:  s.VectorStore.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		a.store = es
	default:
		a.logger.Warn("using the in-memory vector store; documents are lost when the process exits")
		a.store = vectorstore.NewMemory(s.VectorStore.Dimensions)
	}
	return a.store, nil
}

// fetcher builds the job posting fetcher with the page cache and browser fallback when configured.
func (a *app) fetcher(ctx context.Context, useBrowser bool) (*fetch.PostingFetcher, error) {
	opts := []fetch.PostingOption{fetch.WithLogger(a.logger)}
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		opts = append(opts, fetch.WithPageCache(cache.NewPages(rdb, a.settings.Redis.PageTTL, a.logger)))
	}
	if useBrowser || a.settings.Fetch.UseBrowser {
		opts = append(opts, fetch.WithRenderer(fetch.NewChrome()))
	}

	fetchOpts := fetch.DefaultOptions()
	if a.settings.Fetch.Timeout > 0 {
		fetchOpts.Timeout = a.settings.Fetch.Timeout
	}
	return fetch.NewPostingFetcher(fetchOpts, opts...), nil
}

// runner builds the stage runner shared by the workflow and the resume screener.
func (a *app) runner(ctx context.Context) (*stages.Runner, error) {
	p, err := a.llm(ctx)
	if err != nil {
		return nil, err
	}
	return stages.NewRunner(p, a.settings.Retry, a.logger).WithTracer(tracing.Tracer()), nil
}

// graph builds the workflow graph, recording runs when a database is configured.
func (a *app) graph(ctx context.Context, strict bool) (*pipeline.Graph, error) {
	runner, err := a.runner(ctx)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{pipeline.WithLogger(a.logger), pipeline.WithTracer(tracing.Tracer())}
	database, err := a.db(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		opts = append(opts, pipeline.WithRecorder(database))
	}
	return pipeline.NewGraph(stages.Default(runner, stages.Options{StrictInput: strict || a.settings.LLM.StrictInput}), opts...)
}

func (a *app) processor(ctx context.Context, strict bool) (*batch.Processor, *pipeline.Graph, error) {
	graph, err := a.graph(ctx, strict)
	if err != nil {
		return nil, nil, err
	}
	return batch.NewProcessor(graph,
		batch.WithConcurrency(a.settings.Batch.Concurrency),
		batch.WithLogger(a.logger),
		batch.WithTracer(tracing.Tracer()),
	), graph, nil
}

func (a *app) collections() ingestion.Collections {
	return ingestion.Collections{
		Jobs:    a.settings.Retrieval.JobsCollection,
		Resumes: a.settings.Retrieval.ResumesCollection,
	}
}

// ingestion builds the document ingestion service. URL ingestion is enabled with withFetcher.
func (a *app) ingestion(ctx context.Context, withFetcher, useBrowser bool) (*ingestion.Service, error) {
	store, err := a.vectorStore(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	opts := []ingestion.Option{
		ingestion.WithCollections(a.collections()),
		ingestion.WithRetryPolicy(a.settings.Retry),
		ingestion.WithLogger(a.logger),
	}
	if withFetcher {
		f, err := a.fetcher(ctx, useBrowser)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingestion.WithFetcher(f))
	}
	return ingestion.NewService(store, embedder, opts...), nil
}

// ranker builds the candidate ranker.
func (a *app) ranker(ctx context.Context) (*ranking.Ranker, error) {
	store, err := a.vectorStore(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := a.runner(ctx)
	if err != nil {
		return nil, err
	}
	r := a.settings.Retrieval
	return ranking.NewRanker(store, embedder, stages.NewResumeScreener(runner),
		ranking.WithLogger(a.logger),
		ranking.WithRetryPolicy(a.settings.Retry),
		ranking.WithCollections(r.JobsCollection, r.ResumesCollection),
		ranking.WithPassThreshold(r.PassThreshold),
		ranking.WithConcurrency(r.ScreeningConcurrency),
		ranking.WithTracer(tracing.Tracer()),
	), nil
}
