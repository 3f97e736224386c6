package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/recruiting-agent/internal/llm"
	"github.com/jonathan/recruiting-agent/internal/retry"
)

// EnvPrefix prefixes every environment override, e.g. RECRUITER_SERVER_PORT.
const EnvPrefix = "RECRUITER"

// Vector store backends.
const (
	BackendMemory        = "memory"
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
)

// Settings is the service configuration
type Settings struct {
	Server        ServerSettings        `mapstructure:"server"`
	LLM           LLMSettings           `mapstructure:"llm"`
	Retry         retry.Policy          `mapstructure:"retry"`
	Retrieval     RetrievalSettings     `mapstructure:"retrieval"`
	VectorStore   VectorStoreSettings   `mapstructure:"vectorstore"`
	Database      DatabaseSettings      `mapstructure:"database"`
	Redis         RedisSettings         `mapstructure:"redis"`
	Elasticsearch ElasticsearchSettings `mapstructure:"elasticsearch"`
	Tracing       TracingSettings       `mapstructure:"tracing"`
	Logging       LoggingSettings       `mapstructure:"logging"`
	Batch         BatchSettings         `mapstructure:"batch"`
	Fetch         FetchSettings         `mapstructure:"fetch"`
}

// ServerSettings configures the HTTP API
type ServerSettings struct {
	Port        int               `mapstructure:"port" validate:"min=1,max=65535"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	RateLimit   RateLimitSettings `mapstructure:"rate_limit"`
	CORSOrigins []string          `mapstructure:"cors_origins"`
}

// RateLimitSettings configures the per-client token buckets
type RateLimitSettings struct {
	Enabled   bool          `mapstructure:"enabled"`
	Limit     int           `mapstructure:"limit" validate:"min=0"`
	Window    time.Duration `mapstructure:"window"`
	Whitelist []string      `mapstructure:"whitelist"`
	Blacklist []string      `mapstructure:"blacklist"`
}

// LLMSettings selects the provider models
type LLMSettings struct {
	APIKey         string `mapstructure:"api_key"`
	LiteModel      string `mapstructure:"lite_model"`
	StandardModel  string `mapstructure:"standard_model"`
	AdvancedModel  string `mapstructure:"advanced_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	StrictInput    bool   `mapstructure:"strict_input"`
}

// RetrievalSettings configures candidate ranking
type RetrievalSettings struct {
	TopK                 int    `mapstructure:"top_k" validate:"min=1"`
	PassThreshold        int    `mapstructure:"pass_threshold" validate:"min=0,max=100"`
	JobsCollection       string `mapstructure:"jobs_collection" validate:"required"`
	ResumesCollection    string `mapstructure:"resumes_collection" validate:"required"`
	ScreeningConcurrency int    `mapstructure:"screening_concurrency" validate:"min=0"`
}

// VectorStoreSettings selects the vector store backend
type VectorStoreSettings struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory postgres elasticsearch"`
	Dimensions int    `mapstructure:"dimensions" validate:"min=0"`
}

// DatabaseSettings configures PostgreSQL. An empty URL disables run history.
type DatabaseSettings struct {
	URL string `mapstructure:"url"`
}

// RedisSettings configures the embedding and page caches. An empty Addr disables caching.
type RedisSettings struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	EmbeddingTTL time.Duration `mapstructure:"embedding_ttl"`
	PageTTL      time.Duration `mapstructure:"page_ttl"`
}

// ElasticsearchSettings configures the Elasticsearch vector backend
type ElasticsearchSettings struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

// TracingSettings configures OTLP span export
type TracingSettings struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// LoggingSettings configures the zap logger
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// BatchSettings configures batch runs
type BatchSettings struct {
	Concurrency int `mapstructure:"concurrency" validate:"min=1"`
}

// FetchSettings configures job posting retrieval
type FetchSettings struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// defaults is every known key with its default value. Registering each key
// lets environment variables override values absent from the config file.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.jwt.secret":               "",
	"server.jwt.expiration_hours":     24,
	"server.rate_limit.enabled":       true,
	"server.rate_limit.limit":         1000,
	"server.rate_limit.window":        time.Minute,
	"server.rate_limit.whitelist":     []string{},
	"server.rate_limit.blacklist":     []string{},
	"server.cors_origins":             []string{"*"},
	"llm.api_key":                     "",
	"llm.lite_model":                  "gemini-2.5-flash-lite",
	"llm.standard_model":              "gemini-2.5-flash",
	"llm.advanced_model":              "gemini-2.5-pro",
	"llm.embedding_model":             "text-embedding-004",
	"llm.strict_input":                false,
	"retry.max_attempts":              3,
	"retry.base_delay":                4 * time.Second,
	"retry.max_delay":                 10 * time.Second,
	"retrieval.top_k":                 10,
	"retrieval.pass_threshold":        70,
	"retrieval.jobs_collection":       "job_descriptions",
	"retrieval.resumes_collection":    "resumes",
	"retrieval.screening_concurrency": 0,
	"vectorstore.backend":             BackendMemory,
	"vectorstore.dimensions":          768,
	"database.url":                    "",
	"redis.addr":                      "",
	"redis.password":                  "",
	"redis.db":                        0,
	"redis.embedding_ttl":             7 * 24 * time.Hour,
	"redis.page_ttl":                  24 * time.Hour,
	"elasticsearch.addresses":         []string{"http://localhost:9200"},
	"elasticsearch.username":          "",
	"elasticsearch.password":          "",
	"elasticsearch.index_prefix":      "recruiter-",
	"tracing.enabled":                 false,
	"tracing.endpoint":                "localhost:4318",
	"tracing.service_name":            "recruiter",
	"logging.level":                   "info",
	"logging.format":                  "console",
	"batch.concurrency":               1,
	"fetch.use_browser":               false,
	"fetch.timeout":                   30 * time.Second,
}

// legacyEnv maps keys to the unprefixed variables used by existing deployments.
var legacyEnv = map[string]string{
	"llm.api_key":       "GEMINI_API_KEY",
	"database.url":      "DATABASE_URL",
	"server.jwt.secret": "JWT_SECRET",
	"redis.addr":        "REDIS_ADDR",
	"server.port":       "PORT",
}

// Load reads settings from an optional YAML file at path, a .env file in the
// working directory, and RECRUITER_* environment variables, in increasing
// order of precedence.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges and cross-field constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.Server.JWT.normalize(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("invalid settings: retry.max_attempts must be at least 1")
	}
	if s.Retry.BaseDelay > s.Retry.MaxDelay {
		return fmt.Errorf("invalid settings: retry.base_delay exceeds retry.max_delay")
	}
	if s.VectorStore.Backend == BackendPostgres && s.Database.URL == "" {
		return fmt.Errorf("invalid settings: the postgres vector store requires database.url")
	}
	if s.VectorStore.Backend == BackendElasticsearch && len(s.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("invalid settings: the elasticsearch vector store requires elasticsearch.addresses")
	}
	return nil
}

// ClientConfig converts the settings into a provider model configuration.
func (l LLMSettings) ClientConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	for tier, model := range map[llm.ModelTier]string{
		llm.TierLite:     l.LiteModel,
		llm.TierStandard: l.StandardModel,
		llm.TierAdvanced: l.AdvancedModel,
	} {
		if model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	if l.EmbeddingModel != "" {
		cfg.EmbeddingModel = l.EmbeddingModel
	}
	return cfg
}
