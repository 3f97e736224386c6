// Package llm provides the completion and embedding clients used by the workflow stages and the ranker.
package llm

import "maps"

// ModelTier selects a model by how demanding the call is.
type ModelTier string

const (
	// TierLite is for short structured answers such as resume scoring
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction and planning stages
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form writing such as offer letters
	TierAdvanced ModelTier = "advanced"
)

// tierFallback is consulted in order when a tier has no model of its own.
var tierFallback = []ModelTier{TierStandard, TierLite, TierAdvanced}

// Config maps tiers to Gemini model names.
type Config struct {
	Models         map[ModelTier]string
	EmbeddingModel string
	// Temperature applies to requests that do not set their own
	Temperature float32
}

// DefaultConfig returns the Gemini models used when settings do not override them.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		EmbeddingModel: "text-embedding-004",
		Temperature:    0.7,
	}
}

// GetModel returns the model for tier, or the first configured fallback tier.
// It returns "" when no model is configured at all.
func (c *Config) GetModel(tier ModelTier) string {
	if model := c.Models[tier]; model != "" {
		return model
	}
	for _, t := range tierFallback {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c that uses model for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string, 1)
	}
	out.Models[tier] = model
	return &out
}
