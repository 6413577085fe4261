package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
type Config struct {
	AI         AIConfig         `toml:"ai"`
	Classifier ClassifierConfig `toml:"classifier"`
	Server     ServerConfig     `toml:"server"`
	Feeds      FeedsConfig      `toml:"feeds"`
	Retention  RetentionConfig  `toml:"retention"`
	Rotation   RotationConfig   `toml:"rotation"`
}

// AIConfig holds language model provider settings.
type AIConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTokens      int    `toml:"max_tokens"`
}

// ClassifierConfig holds classification prompt settings.
type ClassifierConfig struct {
	PromptFile string `toml:"prompt_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// FeedsConfig holds feed polling settings.
type FeedsConfig struct {
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	DefaultFetchLimit   int    `toml:"default_fetch_limit"`
	ThrottleMillis      int    `toml:"throttle_ms"`
	SourcesFile         string `toml:"sources_file"`
}

// RetentionConfig holds the data retention windows.
type RetentionConfig struct {
	LogDays  int `toml:"log_days"`
	ItemDays int `toml:"item_days"`
}

// RotationConfig holds the daily source rotation settings.
type RotationConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
	Timezone string `toml:"timezone"`
}

const (
	defaultProvider       = "openai"
	defaultOpenAIModel    = "qwen-plus"
	defaultOpenAIBaseURL  = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultAnthropicModel = "claude-haiku-4-5"
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultSchedule       = "0 12 * * *"
)

const defaultConfigContent = `[ai]
provider = "openai"               # "openai", "anthropic" or "gemini"
api_key = ""                      # Your API key (or set AI_API_KEY env var)
model = "qwen-plus"
base_url = "https://dashscope.aliyuncs.com/compatible-mode/v1"  # any OpenAI-compatible endpoint
timeout_seconds = 40
max_tokens = 1024

[classifier]
prompt_file = ""                  # optional text/template with {{.Title}} and {{.Content}}

[server]
host = "localhost"
port = 8080

[feeds]
fetch_timeout_seconds = 10
default_fetch_limit = 3
throttle_ms = 1500
sources_file = ""                 # optional YAML seed file for an empty database

[retention]
log_days = 7
item_days = 90

[rotation]
enabled = true
schedule = "0 12 * * *"           # cron syntax: minute hour day month weekday
timezone = ""                     # IANA name, empty for local time
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
// This catches cases like "port = 0" which would otherwise be silently
// replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}

	positive := []struct {
		section, key string
		value        int
	}{
		{"ai", "timeout_seconds", cfg.AI.TimeoutSeconds},
		{"ai", "max_tokens", cfg.AI.MaxTokens},
		{"feeds", "fetch_timeout_seconds", cfg.Feeds.FetchTimeoutSeconds},
		{"feeds", "default_fetch_limit", cfg.Feeds.DefaultFetchLimit},
		{"retention", "log_days", cfg.Retention.LogDays},
		{"retention", "item_days", cfg.Retention.ItemDays},
	}
	for _, p := range positive {
		if md.IsDefined(p.section, p.key) && p.value < 1 {
			return fmt.Errorf("invalid %s.%s %d: must be >= 1", p.section, p.key, p.value)
		}
	}

	if md.IsDefined("feeds", "throttle_ms") && cfg.Feeds.ThrottleMillis < 0 {
		return fmt.Errorf("invalid feeds.throttle_ms %d: must be >= 0", cfg.Feeds.ThrottleMillis)
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Booleans are
// defaulted only when the key is absent from the file, so an explicit false
// is respected.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaultProvider
	}
	if cfg.AI.Model == "" {
		switch cfg.AI.Provider {
		case "anthropic":
			cfg.AI.Model = defaultAnthropicModel
		case "gemini":
			cfg.AI.Model = defaultGeminiModel
		default:
			cfg.AI.Model = defaultOpenAIModel
		}
	}
	if cfg.AI.BaseURL == "" && cfg.AI.Provider == "openai" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 40
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 1024
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Feeds.FetchTimeoutSeconds == 0 {
		cfg.Feeds.FetchTimeoutSeconds = 10
	}
	if cfg.Feeds.DefaultFetchLimit == 0 {
		cfg.Feeds.DefaultFetchLimit = 3
	}
	if !md.IsDefined("feeds", "throttle_ms") {
		cfg.Feeds.ThrottleMillis = 1500
	}
	if cfg.Retention.LogDays == 0 {
		cfg.Retention.LogDays = 7
	}
	if cfg.Retention.ItemDays == 0 {
		cfg.Retention.ItemDays = 90
	}
	if !md.IsDefined("rotation", "enabled") {
		cfg.Rotation.Enabled = true
	}
	if cfg.Rotation.Schedule == "" {
		cfg.Rotation.Schedule = defaultSchedule
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. LLM_API_KEY
//  3. OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY, matching the provider
func applyEnvOverrides(cfg *Config) {
	// Apply provider-specific env var first (lower priority).
	switch cfg.AI.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	// AI_API_KEY overrides everything (highest priority).
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "openai", "anthropic", "gemini":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"openai\", \"anthropic\" or \"gemini\"", cfg.AI.Provider)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if _, err := cron.ParseStandard(cfg.Rotation.Schedule); err != nil {
		return fmt.Errorf("invalid rotation.schedule %q: %w", cfg.Rotation.Schedule, err)
	}
	if cfg.Rotation.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Rotation.Timezone); err != nil {
			return fmt.Errorf("invalid rotation.timezone %q: %w", cfg.Rotation.Timezone, err)
		}
	}

	if cfg.AI.APIKey == "" {
		slog.Warn("ai.api_key is empty: set it in the config file or via AI_API_KEY environment variable")
	}

	return nil
}

// AITimeout returns the classification call deadline.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// FetchTimeout returns the feed download deadline.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Feeds.FetchTimeoutSeconds) * time.Second
}

// Throttle returns the pause after each classification call. Zero disables
// throttling and is reported as a negative duration, which the pipeline
// treats as "off".
func (c *Config) Throttle() time.Duration {
	if c.Feeds.ThrottleMillis == 0 {
		return -1
	}
	return time.Duration(c.Feeds.ThrottleMillis) * time.Millisecond
}

// LogRetention returns how long run logs are kept.
func (c *Config) LogRetention() time.Duration {
	return time.Duration(c.Retention.LogDays) * 24 * time.Hour
}

// ItemRetention returns how long curated items are kept.
func (c *Config) ItemRetention() time.Duration {
	return time.Duration(c.Retention.ItemDays) * 24 * time.Hour
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
