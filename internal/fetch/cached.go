package fetch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/cache"
	"github.com/jonathan/recruiting-agent/internal/logging"
)

// Posting is a job description extracted from a URL
type Posting struct {
	URL       string   `json:"url"`
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text"`
	Platform  Platform `json:"platform"`
	FromCache bool     `json:"from_cache"`
	Rendered  bool     `json:"rendered"`
}

// PostingFetcher fetches job postings, optionally through a page cache and a browser fallback
type PostingFetcher struct {
	options  *Options
	client   *http.Client
	pages    *cache.Pages
	renderer Renderer
	logger   *zap.Logger
}

// PostingOption configures a PostingFetcher
type PostingOption func(*PostingFetcher)

// WithPageCache serves repeated URLs from pages.
func WithPageCache(pages *cache.Pages) PostingOption {
	return func(f *PostingFetcher) { f.pages = pages }
}

// WithRenderer re-renders pages whose plain HTTP text is too short.
func WithRenderer(r Renderer) PostingOption {
	return func(f *PostingFetcher) { f.renderer = r }
}

// WithLogger sets the fetcher logger.
func WithLogger(logger *zap.Logger) PostingOption {
	return func(f *PostingFetcher) { f.logger = logging.OrNop(logger) }
}

// NewPostingFetcher creates a fetcher. nil opts uses DefaultOptions.
func NewPostingFetcher(opts *Options, options ...PostingOption) *PostingFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &PostingFetcher{
		options: opts,
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  zap.NewNop(),
	}
	for _, o := range options {
		o(f)
	}
	return f
}

// Fetch returns the posting at urlStr.
func (f *PostingFetcher) Fetch(ctx context.Context, urlStr string) (*Posting, error) {
	platform := DetectPlatform(urlStr)

	if f.pages != nil {
		if page := f.pages.Get(ctx, urlStr); page != nil {
			return &Posting{URL: urlStr, Title: page.Title, Text: page.Text, Platform: platform, FromCache: true}, nil
		}
	}

	html, err := download(ctx, f.client, f.options, urlStr, func(attempt int, err error, wait time.Duration) {
		f.logger.Warn("posting download failed, retrying",
			zap.String("url", urlStr), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	extracted, err := ExtractMainText(html, ContentSelectors(platform), NoiseSelectors(platform)...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}

	posting := &Posting{URL: urlStr, Title: extracted.Title, Text: extracted.Text, Platform: platform}

	if f.renderer != nil && ShouldUseBrowser(extracted.Text) {
		f.logger.Info("posting text too short, rendering in browser",
			zap.String("url", urlStr),
			zap.Int("chars", len(extracted.Text)))
		if page, err := f.renderer.Render(ctx, urlStr); err != nil {
			f.logger.Warn("browser rendering failed, keeping HTTP text", zap.String("url", urlStr), zap.Error(err))
		} else if rendered, err := ExtractMainText(page, ContentSelectors(platform), NoiseSelectors(platform)...); err == nil &&
			len(rendered.Text) > len(extracted.Text) {
			posting.Text = rendered.Text
			if rendered.Title != "" {
				posting.Title = rendered.Title
			}
			posting.Rendered = true
		}
	}

	if posting.Text == "" {
		return nil, &Error{URL: urlStr, Message: "no description text found"}
	}

	if f.pages != nil {
		f.pages.Set(ctx, &cache.Page{URL: urlStr, Title: posting.Title, Text: posting.Text, FetchedAt: time.Now().UTC()})
	}
	return posting, nil
}
