// Package config builds the immutable application configuration: defaults,
// then an optional YAML file, then environment overrides. Components receive
// values derived from Config and never read the environment themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

var (
	// ErrMissingAPIKey is returned when the selected provider has no credentials.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrUnknownProvider is returned for providers other than openai, anthropic and mock.
	ErrUnknownProvider = errors.New("unknown model provider")
)

// OpenAI holds the OpenAI provider settings.
type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Anthropic holds the Anthropic provider settings.
type Anthropic struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Trace holds tracing settings.
type Trace struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"`
}

// Config is the application configuration.
type Config struct {
	Provider     string        `yaml:"provider"`
	OpenAI       OpenAI        `yaml:"openai"`
	Anthropic    Anthropic     `yaml:"anthropic"`
	SerperAPIKey string        `yaml:"serper_api_key"`
	KnowledgeDir string        `yaml:"knowledge_dir"`
	DBPath       string        `yaml:"db_path"`
	DefaultTopic string        `yaml:"default_topic"`
	MaxEdits     int           `yaml:"max_edits"`
	MaxCalls     int           `yaml:"max_model_calls"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
	Log          Log           `yaml:"log"`
	Trace        Trace         `yaml:"trace"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Provider:     ProviderOpenAI,
		OpenAI:       OpenAI{Model: "gpt-4o"},
		KnowledgeDir: "knowledge",
		DBPath:       "db/memory.db",
		DefaultTopic: "general",
		MaxEdits:     3,
		MaxCalls:     10,
		RunTimeout:   10 * time.Minute,
		Log:          Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and environment overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read is Load without validation. Commands that never call a model use it
// so they work without provider credentials.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("TASKMESH_PROVIDER", &c.Provider)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("ANTHROPIC_API_KEY", &c.Anthropic.APIKey)
	str("ANTHROPIC_MODEL", &c.Anthropic.Model)
	str("SERPER_API_KEY", &c.SerperAPIKey)
	str("TASKMESH_KNOWLEDGE_DIR", &c.KnowledgeDir)
	str("TASKMESH_DB_PATH", &c.DBPath)
	str("TASKMESH_DEFAULT_TOPIC", &c.DefaultTopic)
	str("TASKMESH_LOG_LEVEL", &c.Log.Level)
	str("TASKMESH_LOG_FORMAT", &c.Log.Format)
	str("TASKMESH_TRACE_OUTPUT", &c.Trace.Output)

	if v, ok := lookup("TASKMESH_MAX_EDITS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKMESH_MAX_EDITS: %w", err)
		}
		c.MaxEdits = n
	}
	if v, ok := lookup("TASKMESH_MAX_MODEL_CALLS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKMESH_MAX_MODEL_CALLS: %w", err)
		}
		c.MaxCalls = n
	}
	if v, ok := lookup("TASKMESH_RUN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKMESH_RUN_TIMEOUT: %w", err)
		}
		c.RunTimeout = d
	}
	if v, ok := lookup("TASKMESH_TRACE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKMESH_TRACE: %w", err)
		}
		c.Trace.Enabled = b
	}

	return nil
}

// Validate fails fast on missing credentials and invalid bounds.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrMissingAPIKey)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.MaxEdits < 0 {
		return fmt.Errorf("max_edits must not be negative, got %d", c.MaxEdits)
	}
	if c.MaxCalls < 0 {
		return fmt.Errorf("max_model_calls must not be negative, got %d", c.MaxCalls)
	}
	if c.KnowledgeDir == "" {
		return errors.New("knowledge_dir is required")
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	return nil
}

// Model returns the model name of the selected provider.
func (c Config) Model() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic.Model
	case ProviderOpenAI:
		return c.OpenAI.Model
	default:
		return c.Provider
	}
}

// WebSearchEnabled reports whether a Serper key is configured.
func (c Config) WebSearchEnabled() bool { return c.SerperAPIKey != "" }
