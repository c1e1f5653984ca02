package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Auth        AuthConfig       `toml:"auth"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Pinecone    PineconeConfig   `toml:"pinecone"`
	Embedding   EmbeddingConfig  `toml:"embedding"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Matching    MatchingConfig   `toml:"matching"`
	Audit       AuditConfig      `toml:"audit"`
	Alerts      AlertsConfig     `toml:"alerts"`
	Sweep       SweepConfig      `toml:"sweep"`
}

type ServerConfig struct {
	Port           int    `toml:"port"`
	Host           string `toml:"host"`
	RequestTimeout string `toml:"request_timeout"` // e.g. "60s" - deadline applied to each request
}

// AuthConfig holds the service bearer token. Requests without a matching
// Authorization header are rejected with 401.
type AuthConfig struct {
	ServiceAPIKey string `toml:"service_api_key"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// PineconeConfig holds the vector store connection settings. Host is the
// index data-plane endpoint; Environment is accepted as a legacy fallback
// and combined with the index name into a host.
type PineconeConfig struct {
	APIKey         string `toml:"api_key"`
	Index          string `toml:"index"`
	Host           string `toml:"host"`
	Environment    string `toml:"environment"`
	UsersNamespace string `toml:"users_namespace"` // Optional; empty = flat namespace
	JobsNamespace  string `toml:"jobs_namespace"`  // Optional; empty = flat namespace
	Timeout        string `toml:"timeout"`         // Per-call timeout, e.g. "30s"
}

// EmbeddingConfig configures the Gemini embedding client.
type EmbeddingConfig struct {
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`     // default "gemini-embedding-001"
	Dimension int     `toml:"dimension"` // default 3072; all stored vectors share this dimension
	Timeout   string  `toml:"timeout"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 = unlimited
}

// ClassifierConfig configures the Claude classification client.
type ClassifierConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"` // default "claude-sonnet-4-20250514"
	Timeout   string `toml:"timeout"`
	MaxTokens int    `toml:"max_tokens"`
}

// MatchingConfig holds pipeline tunables. ChunkSize tracks the vector
// store's filter-argument limit and is not a semantic constant.
type MatchingConfig struct {
	CandidateTopK      int `toml:"candidate_top_k"`      // default 10000
	ChunkSize          int `toml:"chunk_size"`           // default 500
	MaxNotifications   int `toml:"max_notifications"`    // default safety cap when request omits one
	MaxScoreCandidates int `toml:"max_score_candidates"` // default 50000
}

// AuditConfig configures the fire-and-forget audit sink.
type AuditConfig struct {
	Enabled    bool `toml:"enabled"`
	BufferSize int  `toml:"buffer_size"` // default 1024; saturation drops events
	Workers    int  `toml:"workers"`     // default 2
}

// AlertsConfig configures Slack alerting. Disabled when WebhookURL is empty.
type AlertsConfig struct {
	WebhookURL           string  `toml:"webhook_url"`
	Channel              string  `toml:"channel"`
	LowResultCount       int     `toml:"low_result_count"`        // default 5
	HighAboveThreshold   int     `toml:"high_above_threshold"`    // default 200
	MissingVectorRate    float64 `toml:"missing_vector_rate"`     // default 0.5
	MinConfidence        float64 `toml:"min_confidence"`          // default 0.7
	MissingVectorMinPool int     `toml:"missing_vector_min_pool"` // default 10
}

// SweepConfig configures the periodic pending-notification backlog check.
type SweepConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format, default "*/15 * * * *"
}

// DefaultConfig returns a config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:           8085,
			Host:           "localhost",
			RequestTimeout: "60s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/aptus",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Pinecone: PineconeConfig{
			Timeout: "30s",
		},
		Embedding: EmbeddingConfig{
			Model:     "gemini-embedding-001",
			Dimension: 3072,
			Timeout:   "30s",
			RateLimit: 10,
		},
		Classifier: ClassifierConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "30s",
			MaxTokens: 2048,
		},
		Matching: MatchingConfig{
			CandidateTopK:      10000,
			ChunkSize:          500,
			MaxNotifications:   100,
			MaxScoreCandidates: 50000,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			Workers:    2,
		},
		Alerts: AlertsConfig{
			LowResultCount:       5,
			HighAboveThreshold:   200,
			MissingVectorRate:    0.5,
			MinConfidence:        0.7,
			MissingVectorMinPool: 10,
		},
		Sweep: SweepConfig{
			Schedule: "*/15 * * * *",
		},
	}
}

// LoadFromFiles loads configuration with precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadFromEnv applies environment variable overrides. Service-level secrets
// use their conventional unprefixed names; operational tuning uses APTUS_*.
func loadFromEnv(config *Config) {
	if env := os.Getenv("APTUS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("APTUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("APTUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("APTUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if key := os.Getenv("SERVICE_API_KEY"); key != "" {
		config.Auth.ServiceAPIKey = key
	}
	if key := os.Getenv("PINECONE_API_KEY"); key != "" {
		config.Pinecone.APIKey = key
	}
	if index := os.Getenv("PINECONE_INDEX"); index != "" {
		config.Pinecone.Index = index
	}
	if host := os.Getenv("PINECONE_HOST"); host != "" {
		config.Pinecone.Host = host
	}
	if env := os.Getenv("PINECONE_ENV"); env != "" {
		config.Pinecone.Environment = env
	}
	if ns := os.Getenv("PINECONE_USERS_NAMESPACE"); ns != "" {
		config.Pinecone.UsersNamespace = ns
	}
	if ns := os.Getenv("PINECONE_JOBS_NAMESPACE"); ns != "" {
		config.Pinecone.JobsNamespace = ns
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if model := os.Getenv("APTUS_EMBED_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dim := os.Getenv("APTUS_EMBED_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil && d > 0 {
			config.Embedding.Dimension = d
		}
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Classifier.APIKey = key
	}
	if model := os.Getenv("APTUS_CLASSIFIER_MODEL"); model != "" {
		config.Classifier.Model = model
	}

	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		config.Alerts.WebhookURL = url
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	} else if level := os.Getenv("APTUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("APTUS_LOG_OUTPUT"); output != "" {
		parts := strings.Split(output, ",")
		outputs := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// Validate checks that required settings are present and consistent.
// Called after all override layers are applied.
func (c *Config) Validate() error {
	if c.Auth.ServiceAPIKey == "" {
		return fmt.Errorf("service API key is required (set SERVICE_API_KEY or auth.service_api_key)")
	}
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("Pinecone API key is required (set PINECONE_API_KEY or pinecone.api_key)")
	}
	if c.Pinecone.Index == "" {
		return fmt.Errorf("Pinecone index is required (set PINECONE_INDEX or pinecone.index)")
	}
	if c.Pinecone.Host == "" && c.Pinecone.Environment == "" {
		return fmt.Errorf("Pinecone host or environment is required (set PINECONE_HOST or PINECONE_ENV)")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding API key is required (set GEMINI_API_KEY or embedding.api_key)")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive (got %d)", c.Embedding.Dimension)
	}
	if c.Matching.ChunkSize <= 0 {
		return fmt.Errorf("matching chunk size must be positive (got %d)", c.Matching.ChunkSize)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// RequestTimeout parses the configured per-request deadline with a fallback.
func (c *Config) RequestTimeout() time.Duration {
	return parseDurationOr(c.Server.RequestTimeout, 60*time.Second)
}

// PineconeTimeout parses the configured vector store call timeout.
func (c *Config) PineconeTimeout() time.Duration {
	return parseDurationOr(c.Pinecone.Timeout, 30*time.Second)
}

// EmbeddingTimeout parses the configured embedding call timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	return parseDurationOr(c.Embedding.Timeout, 30*time.Second)
}

// ClassifierTimeout parses the configured classifier call timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	return parseDurationOr(c.Classifier.Timeout, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
