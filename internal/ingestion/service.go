// Package ingestion cleans, embeds and stores job descriptions and resumes.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/fetch"
	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/retry"
	"github.com/jonathan/recruiting-agent/internal/validation"
	"github.com/jonathan/recruiting-agent/internal/vectorstore"
)

// ErrEmptyText is returned for documents with no text after cleaning.
var ErrEmptyText = errors.New("document text is empty")

// Collections names the vector store collections documents are written to
type Collections struct {
	Jobs    string
	Resumes string
}

// DefaultCollections returns the standard collection names.
func DefaultCollections() Collections {
	return Collections{Jobs: vectorstore.CollectionJobs, Resumes: vectorstore.CollectionResumes}
}

// Document is a text to ingest
type Document struct {
	// ID is generated when empty
	ID       string
	Text     string
	Filename string
	Extra    map[string]string
}

// Service embeds documents and writes them to the vector store
type Service struct {
	store       vectorstore.Store
	embedder    llm.Embedder
	fetcher     *fetch.PostingFetcher
	policy      retry.Policy
	collections Collections
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithFetcher enables ingesting job descriptions from URLs.
func WithFetcher(f *fetch.PostingFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithCollections overrides the collection names.
func WithCollections(c Collections) Option {
	return func(s *Service) { s.collections = c }
}

// WithRetryPolicy sets the policy applied to embedding calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// NewService creates an ingestion service.
func NewService(store vectorstore.Store, embedder llm.Embedder, opts ...Option) *Service {
	s := &Service{
		store:       store,
		embedder:    embedder,
		policy:      retry.DefaultPolicy(),
		collections: DefaultCollections(),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collections returns the configured collection names.
func (s *Service) Collections() Collections {
	return s.collections
}

// IngestJob stores a job description and returns its ID.
func (s *Service) IngestJob(ctx context.Context, doc Document) (string, error) {
	return s.ingest(ctx, s.collections.Jobs, doc)
}

// IngestResume stores a resume and returns its ID.
func (s *Service) IngestResume(ctx context.Context, doc Document) (string, error) {
	return s.ingest(ctx, s.collections.Resumes, doc)
}

// IngestJobFromURL fetches a posting and stores it as a job description.
func (s *Service) IngestJobFromURL(ctx context.Context, url string, extra map[string]string) (string, *fetch.Posting, error) {
	if s.fetcher == nil {
		return "", nil, errors.New("URL ingestion is not configured")
	}
	posting, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", nil, err
	}

	merged := map[string]string{MetaURL: url, MetaPlatform: string(posting.Platform)}
	if posting.Title != "" {
		merged[MetaTitle] = posting.Title
	}
	for k, v := range extra {
		merged[k] = v
	}

	id, err := s.IngestJob(ctx, Document{Text: posting.Text, Extra: merged})
	return id, posting, err
}

// Count returns the number of documents in a collection.
func (s *Service) Count(ctx context.Context, collection string) (int, error) {
	return s.store.Count(ctx, collection)
}

// Clear removes every document in a collection.
func (s *Service) Clear(ctx context.Context, collection string) error {
	if err := s.store.Clear(ctx, collection); err != nil {
		return err
	}
	s.logger.Info("collection cleared", zap.String("collection", collection))
	return nil
}

func (s *Service) ingest(ctx context.Context, collection string, doc Document) (string, error) {
	text := CleanText(doc.Text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	vector, err := s.embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to embed document %s: %w", id, err)
	}

	meta := NewMetadata(text, doc.Filename, doc.Extra, s.now())
	if check := validation.CheckInjection(text); check.Suspicious {
		meta.Extra[MetaInjection] = strings.Join(check.Keywords, ",")
		s.logger.Warn("document contains instruction-like text",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.String("reason", check.Reason()))
	}

	err = s.store.Put(ctx, collection, vectorstore.Document{
		ID:       id,
		Text:     text,
		Vector:   vector,
		Metadata: meta,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("document ingested",
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Int("chars", len(text)))
	return id, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	return llm.EmbedWithRetry(ctx, s.embedder, s.policy, text, func(attempt int, err error, wait time.Duration) {
		s.logger.Warn("embedding failed, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	})
}
