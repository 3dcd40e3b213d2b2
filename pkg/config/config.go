// Package config loads and validates the capture client configuration from
// a YAML file, with environment variables taking precedence for
// credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a value.
const (
	DefaultCaptureInterval = 30 * time.Second
	DefaultSpeakTimeout    = 10 * time.Second
)

// Duration decodes YAML values like "30s" or "2m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ArchiveConfig points the client at the remote archive service.
type ArchiveConfig struct {
	// BaseURL is the archive's HTTP base URL. Empty disables archival;
	// capture still works locally.
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token for archive requests. The
	// NOTED_ARCHIVE_TOKEN environment variable overrides it.
	Token string `yaml:"token"`
}

// AssistantConfig selects the language models behind voice answers.
type AssistantConfig struct {
	// GeminiAPIKey authenticates the primary provider. GEMINI_API_KEY or
	// GOOGLE_API_KEY overrides it.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	// GeminiModel is the primary model. Empty selects the provider
	// default.
	GeminiModel string `yaml:"gemini_model"`

	// GeminiFallbackModel is retried when the primary model is not found.
	GeminiFallbackModel string `yaml:"gemini_fallback_model"`

	// OpenAIAPIKey authenticates the secondary provider. OPENAI_API_KEY
	// overrides it.
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// OpenAIModel is the secondary model. Empty selects the provider
	// default.
	OpenAIModel string `yaml:"openai_model"`
}

// CaptureConfig tunes voice triggering and auto-capture.
type CaptureConfig struct {
	// WakeWords replace the built-in wake phrases when non-empty.
	WakeWords []string `yaml:"wake_words"`

	// StopWords replace the built-in stop phrases when non-empty.
	StopWords []string `yaml:"stop_words"`

	// AutoCapture enables scheduled photo capture during sessions.
	AutoCapture bool `yaml:"auto_capture"`

	// CaptureInterval is the period between scheduled photos.
	CaptureInterval Duration `yaml:"capture_interval"`

	// SpeakTimeout bounds each text-to-speech call.
	SpeakTimeout Duration `yaml:"speak_timeout"`
}

// Config is the full capture client configuration.
type Config struct {
	// WorkDir is where photos, audio clips, and exports are written.
	WorkDir string `yaml:"work_dir"`

	Archive   ArchiveConfig   `yaml:"archive"`
	Assistant AssistantConfig `yaml:"assistant"`
	Capture   CaptureConfig   `yaml:"capture"`
}

// DefaultConfig returns a configuration with sensible defaults. The work
// directory defaults to ~/.noted/captures.
func DefaultConfig() *Config {
	workDir := ".noted-captures"
	if home, err := os.UserHomeDir(); err == nil {
		workDir = filepath.Join(home, ".noted", "captures")
	}

	return &Config{
		WorkDir: workDir,
		Capture: CaptureConfig{
			AutoCapture:     true,
			CaptureInterval: Duration(DefaultCaptureInterval),
			SpeakTimeout:    Duration(DefaultSpeakTimeout),
		},
	}
}

// Load reads a YAML config file, fills in defaults for omitted values, and
// applies environment overrides. An empty path returns the default config
// with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides credentials from the environment. Environment values
// always win over file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Assistant.GeminiAPIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Assistant.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.OpenAIAPIKey = v
	}
	if v := os.Getenv("NOTED_ARCHIVE_TOKEN"); v != "" {
		c.Archive.Token = v
	}
}

// applyDefaults backfills zero values left by a sparse config file.
func (c *Config) applyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = DefaultConfig().WorkDir
	}
	if c.Capture.CaptureInterval <= 0 {
		c.Capture.CaptureInterval = Duration(DefaultCaptureInterval)
	}
	if c.Capture.SpeakTimeout <= 0 {
		c.Capture.SpeakTimeout = Duration(DefaultSpeakTimeout)
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir must not be empty")
	}
	if c.Archive.BaseURL == "" && c.Archive.Token != "" {
		return fmt.Errorf("archive.token is set but archive.base_url is empty")
	}
	if c.Capture.CaptureInterval.Duration() < time.Second {
		return fmt.Errorf("capture.capture_interval must be at least 1s, got %s", c.Capture.CaptureInterval.Duration())
	}
	for _, w := range c.Capture.WakeWords {
		if w == "" {
			return fmt.Errorf("capture.wake_words must not contain empty phrases")
		}
	}
	for _, w := range c.Capture.StopWords {
		if w == "" {
			return fmt.Errorf("capture.stop_words must not contain empty phrases")
		}
	}
	return nil
}
