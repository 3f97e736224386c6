package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/logging"
	"github.com/jonathan/recruiting-agent/internal/metrics"
)

// DefaultEmbeddingTTL is how long a cached embedding stays valid.
const DefaultEmbeddingTTL = 7 * 24 * time.Hour

// Embeddings wraps an embedder with a Redis lookaside cache keyed by model and text
type Embeddings struct {
	next   llm.Embedder
	rdb    *redis.Client
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

var _ llm.Embedder = (*Embeddings)(nil)

// NewEmbeddings caches the vectors returned by next. model namespaces the keys
// so switching embedding models never serves stale vectors.
func NewEmbeddings(next llm.Embedder, rdb *redis.Client, model string, ttl time.Duration, logger *zap.Logger) *Embeddings {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	return &Embeddings{next: next, rdb: rdb, model: model, ttl: ttl, logger: logging.OrNop(logger)}
}

// Key returns the Redis key of text's embedding.
func (e *Embeddings) Key(text string) string {
	sum := sha256.Sum256([]byte(llm.PrepareEmbeddingText(text)))
	return "embedding:" + e.model + ":" + hex.EncodeToString(sum[:])
}

// Embed implements llm.Embedder.
func (e *Embeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.Key(text)

	raw, err := e.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float32
		if jsonErr := json.Unmarshal(raw, &vec); jsonErr == nil && len(vec) > 0 {
			metrics.EmbeddingCache.WithLabelValues("hit").Inc()
			return vec, nil
		}
		e.logger.Warn("discarding corrupt cached embedding", zap.String("key", key))
		metrics.EmbeddingCache.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.EmbeddingCache.WithLabelValues("miss").Inc()
	default:
		e.logger.Warn("embedding cache lookup failed", zap.String("key", key), zap.Error(err))
		metrics.EmbeddingCache.WithLabelValues("error").Inc()
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := e.rdb.Set(ctx, key, data, e.ttl).Err(); err != nil {
			e.logger.Warn("failed to cache embedding", zap.String("key", key), zap.Error(err))
		}
	}
	return vec, nil
}
