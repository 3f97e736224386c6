package llm

import (
	"context"

	"github.com/jonathan/recruiting-agent/internal/metrics"
	"github.com/jonathan/recruiting-agent/internal/retry"
)

// EmbedWithRetry embeds the prepared text under policy, retrying transient provider errors.
func EmbedWithRetry(ctx context.Context, e Embedder, policy retry.Policy, text string, notify retry.Notify) ([]float32, error) {
	var vector []float32
	_, err := policy.Do(ctx, IsTransient, func(ctx context.Context) error {
		v, err := e.Embed(ctx, PrepareEmbeddingText(text))
		if err != nil {
			metrics.ProviderAttempts.WithLabelValues(OpEmbed, "error").Inc()
			return err
		}
		metrics.ProviderAttempts.WithLabelValues(OpEmbed, "ok").Inc()
		vector = v
		return nil
	}, notify)
	return vector, err
}
