package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/logging"
)

// DefaultPageTTL is how long a fetched page stays cached.
const DefaultPageTTL = 24 * time.Hour

// Page is the cached form of a fetched URL
type Page struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	Title     string    `json:"title,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Pages caches fetched pages by URL
type Pages struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPages creates a page cache.
func NewPages(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Pages {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &Pages{rdb: rdb, ttl: ttl, logger: logging.OrNop(logger)}
}

func pageKey(url string) string {
	return "page:" + url
}

// Get returns the cached page for url, or nil when absent or unreadable.
func (p *Pages) Get(ctx context.Context, url string) *Page {
	raw, err := p.rdb.Get(ctx, pageKey(url)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("page cache lookup failed", zap.String("url", url), zap.Error(err))
		}
		return nil
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		p.logger.Warn("discarding corrupt cached page", zap.String("url", url), zap.Error(err))
		return nil
	}
	return &page
}

// Set stores page under its URL.
func (p *Pages) Set(ctx context.Context, page *Page) {
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, pageKey(page.URL), data, p.ttl).Err(); err != nil {
		p.logger.Warn("failed to cache page", zap.String("url", page.URL), zap.Error(err))
	}
}

// Invalidate drops the cached page for url.
func (p *Pages) Invalidate(ctx context.Context, url string) error {
	return p.rdb.Del(ctx, pageKey(url)).Err()
}
