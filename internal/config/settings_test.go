package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiting-agent/internal/llm"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, 3, s.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, s.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, s.Retry.MaxDelay)
	assert.Equal(t, 10, s.Retrieval.TopK)
	assert.Equal(t, 70, s.Retrieval.PassThreshold)
	assert.Equal(t, "job_descriptions", s.Retrieval.JobsCollection)
	assert.Equal(t, "resumes", s.Retrieval.ResumesCollection)
	assert.Equal(t, BackendMemory, s.VectorStore.Backend)
	assert.Equal(t, 1, s.Batch.Concurrency)
	assert.Equal(t, 7*24*time.Hour, s.Redis.EmbeddingTTL)
	assert.False(t, s.Server.JWT.Enabled())
	assert.Equal(t, 24, s.Server.JWT.ExpirationHours)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recruiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  rate_limit:
    limit: 50
    window: 30s
retry:
  max_attempts: 5
  base_delay: 1s
  max_delay: 3s
retrieval:
  top_k: 25
vectorstore:
  backend: elasticsearch
elasticsearch:
  addresses: ["http://es:9200"]
logging:
  format: json
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, 50, s.Server.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, s.Server.RateLimit.Window)
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, time.Second, s.Retry.BaseDelay)
	assert.Equal(t, 25, s.Retrieval.TopK)
	assert.Equal(t, BackendElasticsearch, s.VectorStore.Backend)
	assert.Equal(t, []string{"http://es:9200"}, s.Elasticsearch.Addresses)
	assert.Equal(t, "json", s.Logging.Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RECRUITER_RETRIEVAL_PASS_THRESHOLD", "80")
	t.Setenv("RECRUITER_BATCH_CONCURRENCY", "4")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/recruiter")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 80, s.Retrieval.PassThreshold)
	assert.Equal(t, 4, s.Batch.Concurrency)
	assert.Equal(t, "legacy-key", s.LLM.APIKey)
	assert.Equal(t, "postgres://localhost/recruiter", s.Database.URL)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("RECRUITER_LLM_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "legacy")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", s.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"RECRUITER_VECTORSTORE_BACKEND": "faiss"}, "Backend"},
		{"postgres without url", map[string]string{"RECRUITER_VECTORSTORE_BACKEND": "postgres"}, "database.url"},
		{"zero attempts", map[string]string{"RECRUITER_RETRY_MAX_ATTEMPTS": "0"}, "max_attempts"},
		{"inverted delays", map[string]string{"RECRUITER_RETRY_BASE_DELAY": "20s"}, "base_delay"},
		{"threshold out of range", map[string]string{"RECRUITER_RETRIEVAL_PASS_THRESHOLD": "150"}, "PassThreshold"},
		{"short jwt secret", map[string]string{"RECRUITER_SERVER_JWT_SECRET": "abc"}, "16 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLLMSettings_ClientConfig(t *testing.T) {
	cfg := LLMSettings{LiteModel: "lite-x", EmbeddingModel: "embed-y"}.ClientConfig()

	assert.Equal(t, "lite-x", cfg.GetModel(llm.TierLite))
	assert.Equal(t, llm.DefaultConfig().GetModel(llm.TierStandard), cfg.GetModel(llm.TierStandard))
	assert.Equal(t, "embed-y", cfg.EmbeddingModel)
}
