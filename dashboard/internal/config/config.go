// Package config loads the dashboard binary's configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/pipelinedash/pipelinedash/pkg/types"
)

// Default values for the dashboard configuration.
const (
	DefaultPeriod         = 30 * 24 * time.Hour
	DefaultRecentlyActive = "PT3H"
	DefaultSchedule       = "@hourly"
	DefaultNamespace      = types.Namespace
	DefaultLogLevel       = "info"
)

// Config holds the dashboard configuration parsed from the `dashboard:`, `aws:`
// and `log:` sections of config.yaml. The `collector:` key is ignored.
type Config struct {
	Dashboard DashboardConfig `yaml:"dashboard"`
	AWS       AWSConfig       `yaml:"aws"`
	Log       LogConfig       `yaml:"log"`
}

// DashboardConfig holds discovery, layout and publishing settings.
type DashboardConfig struct {
	// Name is the dashboard to overwrite. Empty means Pipelines-<region>.
	Name string `yaml:"name"`

	// Namespace is where pipeline metrics are discovered.
	Namespace string `yaml:"namespace"`

	// Period is the aggregation window of every single-value widget.
	// Whole seconds only; default 30 days.
	Period time.Duration `yaml:"period"`

	// RecentlyActive limits discovery to metrics with recent data points.
	// "PT3H" is the only window the service supports; "" disables the filter.
	RecentlyActive string `yaml:"recently_active"`

	// Schedule is the cron spec used by the schedule command.
	Schedule string `yaml:"schedule"`
}

// EffectiveName returns Name, or Pipelines-<region> when Name is empty.
func (d DashboardConfig) EffectiveName(region string) string {
	if d.Name != "" {
		return d.Name
	}
	return "Pipelines-" + region
}

// PeriodSeconds returns Period as whole seconds.
func (d DashboardConfig) PeriodSeconds() int {
	return int(d.Period / time.Second)
}

// AWSConfig holds SDK settings.
type AWSConfig struct {
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

// Override mutates a freshly parsed Config before validation.
type Override func(*Config)

// Load reads the YAML file at path (skipped when empty), applies overrides and
// validates the result.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("dashboard config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("dashboard config: parse yaml: %w", err)
		}
	}

	for _, o := range overrides {
		o(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("dashboard config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Dashboard: DashboardConfig{
			Namespace:      DefaultNamespace,
			Period:         DefaultPeriod,
			RecentlyActive: DefaultRecentlyActive,
			Schedule:       DefaultSchedule,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

func validate(cfg *Config) error {
	d := cfg.Dashboard
	if d.Namespace == "" {
		return fmt.Errorf("dashboard.namespace must not be empty")
	}
	if d.Period < time.Second || d.Period%time.Second != 0 {
		return fmt.Errorf("dashboard.period %v must be a positive whole number of seconds", d.Period)
	}
	switch d.RecentlyActive {
	case "PT3H", "":
	default:
		return fmt.Errorf("dashboard.recently_active %q unknown: want PT3H or empty", d.RecentlyActive)
	}
	if _, err := cron.ParseStandard(d.Schedule); err != nil {
		return fmt.Errorf("dashboard.schedule %q: %w", d.Schedule, err)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
