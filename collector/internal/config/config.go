package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pipelinedash/pipelinedash/collector/internal/gate"
	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultNamespace       = types.Namespace
	DefaultHistoryPageSize = 100
	DefaultSink            = "cloudwatch"
	DefaultHTTPPort        = 8080
	DefaultStoreTTL        = time.Hour
	DefaultLogLevel        = "info"
)

// Config is the top-level configuration for the collector binary.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	AWS       AWSConfig       `yaml:"aws"`
	Log       LogConfig       `yaml:"log"`
}

// CollectorConfig holds all event-processing settings.
type CollectorConfig struct {
	// PipelinePattern is a glob matched against the event's pipeline name.
	// Events for pipelines that do not match are ignored.
	PipelinePattern string `yaml:"pipeline_pattern"`

	// Namespace is the metric store namespace points are written to.
	Namespace string `yaml:"namespace"`

	// HistoryPageSize bounds how many executions are fetched per event (1..100).
	HistoryPageSize int32 `yaml:"history_page_size"`

	// Sink selects where points go: cloudwatch | stdout.
	Sink string `yaml:"sink"`

	// HTTP configures the self-hosted event receiver (serve command).
	HTTP HTTPConfig `yaml:"http"`

	// Store configures the in-memory copy of published points behind /metrics.
	Store StoreConfig `yaml:"store"`
}

// HTTPConfig holds the event receiver listener settings.
type HTTPConfig struct {
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls event receiver authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header carrying the key. Defaults to "X-Api-Key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-Api-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-Api-Key"
}

// StoreConfig controls retention of the in-memory point store.
type StoreConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AWSConfig holds SDK settings shared by every AWS client.
type AWSConfig struct {
	// Region overrides the SDK's region resolution when set.
	Region string `yaml:"region"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Unknown values map to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Override mutates a freshly parsed Config before validation. Used to layer
// environment variables and flags over the file.
type Override func(*Config)

// Load reads and parses the YAML config file at path, applies overrides and
// validates the result. An empty path skips the file and starts from defaults,
// which is the normal mode when running as a Lambda function.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Collector: CollectorConfig{
			Namespace:       DefaultNamespace,
			HistoryPageSize: DefaultHistoryPageSize,
			Sink:            DefaultSink,
			HTTP:            HTTPConfig{Port: DefaultHTTPPort},
			Store:           StoreConfig{TTL: DefaultStoreTTL},
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	c := cfg.Collector
	if c.PipelinePattern == "" {
		return fmt.Errorf("collector.pipeline_pattern is required")
	}
	if _, err := gate.Compile(c.PipelinePattern); err != nil {
		return fmt.Errorf("collector.pipeline_pattern: %w", err)
	}
	if c.Namespace == "" {
		return fmt.Errorf("collector.namespace must not be empty")
	}
	if c.HistoryPageSize < 1 || c.HistoryPageSize > 100 {
		return fmt.Errorf("collector.history_page_size %d is out of range [1, 100]", c.HistoryPageSize)
	}
	switch c.Sink {
	case "cloudwatch", "stdout":
	default:
		return fmt.Errorf("collector.sink %q unknown: want cloudwatch|stdout", c.Sink)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("collector.http.port %d is out of range [1, 65535]", c.HTTP.Port)
	}
	switch c.HTTP.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("collector.http.auth.mode %q unknown: want apikey|none", c.HTTP.Auth.Mode)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("collector.store.ttl must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
