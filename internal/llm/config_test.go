package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, "text-embedding-004", config.EmbeddingModel)
}

func TestGetModel_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{"own tier", map[ModelTier]string{TierAdvanced: "pro", TierStandard: "flash"}, TierAdvanced, "pro"},
		{"standard first", map[ModelTier]string{TierStandard: "flash", TierLite: "lite"}, TierAdvanced, "flash"},
		{"then lite", map[ModelTier]string{TierLite: "lite"}, TierAdvanced, "lite"},
		{"then advanced", map[ModelTier]string{TierAdvanced: "pro"}, TierLite, "pro"},
		{"empty names skipped", map[ModelTier]string{TierLite: "", TierStandard: "flash"}, TierLite, "flash"},
		{"nothing configured", nil, TierLite, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Config{Models: tt.models}).GetModel(tt.tier))
		})
	}
}

func TestWithModel_DoesNotMutateOriginal(t *testing.T) {
	base := DefaultConfig()
	custom := base.WithModel(TierAdvanced, "gemini-exp")

	assert.Equal(t, "gemini-exp", custom.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", base.GetModel(TierAdvanced))
	assert.Equal(t, base.EmbeddingModel, custom.EmbeddingModel)

	assert.Equal(t, "m", (&Config{}).WithModel(TierLite, "m").GetModel(TierLite))
}
