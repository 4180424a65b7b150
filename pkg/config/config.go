package config

import (
	"context"
	"time"

	"github.com/sistemabuses/busadmin/pkg/config/definition"
)

// Config represents the complete busadmin configuration.
type Config struct {
	API     APIConfig     `koanf:"api"     validate:"required"`
	Session SessionConfig `koanf:"session"`
	CLI     CLIConfig     `koanf:"cli"`
	Runtime RuntimeConfig `koanf:"runtime" validate:"required"`
}

// APIConfig controls how the REST backend is reached.
type APIConfig struct {
	BaseURL    string        `koanf:"base_url"    validate:"required,http_url"`
	Timeout    time.Duration `koanf:"timeout"     validate:"gt=0"`
	RetryCount int           `koanf:"retry_count" validate:"min=0,max=10"`
	RetryWait  time.Duration `koanf:"retry_wait"  validate:"min=0"`
	AuthScheme string        `koanf:"auth_scheme" validate:"auth_scheme"`
	Debug      bool          `koanf:"debug"`
}

// SessionConfig locates the persisted session.
type SessionConfig struct {
	File  string          `koanf:"file"`
	Token SensitiveString `koanf:"token" sensitive:"true"`
}

// CLIConfig contains CLI-specific configuration.
type CLIConfig struct {
	DefaultFormat string `koanf:"default_format" validate:"oneof=auto json tui"`
	Interactive   bool   `koanf:"interactive"`
	NoColor       bool   `koanf:"no_color"`
	DoubleOpen    string `koanf:"double_open"    validate:"oneof=reject replace"`
}

// RuntimeConfig contains logging configuration.
type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"`
	LogSource bool   `koanf:"log_source"`
	LogFile   string `koanf:"log_file"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	// Watch monitors the source for changes.
	Watch(ctx context.Context, callback func()) error
	Type() SourceType
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns a Config populated from the definition registry.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		API: APIConfig{
			BaseURL:    getString(registry, "api.base_url"),
			Timeout:    getDuration(registry, "api.timeout"),
			RetryCount: getInt(registry, "api.retry_count"),
			RetryWait:  getDuration(registry, "api.retry_wait"),
			AuthScheme: getString(registry, "api.auth_scheme"),
			Debug:      getBool(registry, "api.debug"),
		},
		Session: SessionConfig{
			File:  getString(registry, "session.file"),
			Token: SensitiveString(getString(registry, "session.token")),
		},
		CLI: CLIConfig{
			DefaultFormat: getString(registry, "cli.default_format"),
			Interactive:   getBool(registry, "cli.interactive"),
			NoColor:       getBool(registry, "cli.no_color"),
			DoubleOpen:    getString(registry, "cli.double_open"),
		},
		Runtime: RuntimeConfig{
			LogLevel:  getString(registry, "runtime.log_level"),
			LogJSON:   getBool(registry, "runtime.log_json"),
			LogSource: getBool(registry, "runtime.log_source"),
			LogFile:   getString(registry, "runtime.log_file"),
		},
	}
}

func getString(registry *definition.Registry, path string) string {
	if s, ok := registry.GetDefault(path).(string); ok {
		return s
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if i, ok := registry.GetDefault(path).(int); ok {
		return i
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if b, ok := registry.GetDefault(path).(bool); ok {
		return b
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if d, ok := registry.GetDefault(path).(time.Duration); ok {
		return d
	}
	return 0
}
