package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Storage selects the durable event store.
type Storage struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `toml:"driver"`
	// Path is the SQLite database file. Defaults to <data_dir>/events.db.
	Path string `toml:"path"`
	// DSN is the PostgreSQL connection string used when Driver is "postgres".
	DSN string `toml:"dsn"`
}

// Fetch contains configuration for source page retrieval.
type Fetch struct {
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	MinDelayMillis  int      `toml:"min_delay_ms"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
	MaxPerSource    int      `toml:"max_per_source"`
	UserAgents      []string `toml:"user_agents"`
	DefaultLocation string   `toml:"default_location"`
}

// Source is one configured remote listing page.
type Source struct {
	URL  string `toml:"url"`
	Type string `toml:"type"`
	// Name overrides the display name stored on each record.
	Name string `toml:"name"`
}

// Links contains configuration for link validation and enhancement.
type Links struct {
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	DelayMillis           int    `toml:"delay_ms"`
	EnhanceTimeoutSeconds int    `toml:"enhance_timeout_seconds"`
	EnhanceDelayMillis    int    `toml:"enhance_delay_ms"`
	UserAgent             string `toml:"user_agent"`
}

// Filter contains the access-restriction phrases used by the heuristic filter.
type Filter struct {
	RestrictedPhrases []string `toml:"restricted_phrases"`
}

// Classifier contains the semantic classification service settings.
type Classifier struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	Referer             string  `toml:"referer"`
	Title               string  `toml:"title"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	RetryAttempts       int     `toml:"retry_attempts"`
	BatchSize           int     `toml:"batch_size"`
	MaxBatches          int     `toml:"max_batches"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	Region              string  `toml:"region"`
	Temperature         float64 `toml:"temperature"`
	MaxTokens           int     `toml:"max_tokens"`
}

// Schedule contains configuration for periodic cycle execution.
type Schedule struct {
	IntervalHours int `toml:"interval_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Notifications contains the ntfy cycle notification settings.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-events. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// NotifyEachCycle sends a summary after every cycle; failures are always sent.
	NotifyEachCycle bool `toml:"notify_each_cycle"`
}

// Config encapsulates all configuration values for eventsift.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Storage: event store driver and location
//   - Fetch: rate limiting, client identities, per-source caps
//   - Sources: the fixed list of listing pages to scrape
//   - Links: link validation and enhancement timing
//   - Filter: access-restriction phrases
//   - Classifier: external classification service
//   - Schedule: periodic execution interval
//   - Logging: log format, level, and retention
//   - Metrics: Prometheus bind address for schedule mode
//   - Notifications: ntfy cycle notifications
type Config struct {
	Paths      Paths      `toml:"paths"`
	Storage    Storage    `toml:"storage"`
	Fetch      Fetch      `toml:"fetch"`
	Sources    []Source   `toml:"sources"`
	Links      Links      `toml:"links"`
	Filter     Filter     `toml:"filter"`
	Classifier Classifier `toml:"classifier"`
	Schedule   Schedule   `toml:"schedule"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/eventsift/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that declares [[sources]] replaces the default list.
		cfg.Sources = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Sources) == 0 {
			cfg.Sources = DefaultSources()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("eventsift.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Storage.Path), 0o755); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the file used to serialize pipeline cycles across processes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "eventsift.lock")
}

// FetchTimeout returns the per-request source fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchDelay returns the minimum wait before each source fetch.
func (c *Config) FetchDelay() time.Duration {
	return time.Duration(c.Fetch.MinDelayMillis) * time.Millisecond
}

// LinkTimeout returns the per-request link validation timeout.
func (c *Config) LinkTimeout() time.Duration {
	return time.Duration(c.Links.TimeoutSeconds) * time.Second
}

// LinkDelay returns the pause between link validation checks.
func (c *Config) LinkDelay() time.Duration {
	return time.Duration(c.Links.DelayMillis) * time.Millisecond
}

// EnhanceTimeout returns the per-request timeout used by the enhancer.
func (c *Config) EnhanceTimeout() time.Duration {
	return time.Duration(c.Links.EnhanceTimeoutSeconds) * time.Second
}

// EnhanceDelay returns the pause between enhancer checks.
func (c *Config) EnhanceDelay() time.Duration {
	return time.Duration(c.Links.EnhanceDelayMillis) * time.Millisecond
}

// NotifyTimeout returns the ntfy request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// ScheduleInterval returns the time between scheduled cycles.
func (c *Config) ScheduleInterval() time.Duration {
	return time.Duration(c.Schedule.IntervalHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the classification service connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
	Temperature    float64
	MaxTokens      int
}

// GetLLM returns the classification service connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Classifier.APIKey),
		BaseURL:        strings.TrimSpace(c.Classifier.BaseURL),
		Model:          strings.TrimSpace(c.Classifier.Model),
		Referer:        strings.TrimSpace(c.Classifier.Referer),
		Title:          strings.TrimSpace(c.Classifier.Title),
		TimeoutSeconds: c.Classifier.TimeoutSeconds,
		RetryAttempts:  c.Classifier.RetryAttempts,
		Temperature:    c.Classifier.Temperature,
		MaxTokens:      c.Classifier.MaxTokens,
	}
}

// Redacted returns a copy with credentials masked for display.
func (c Config) Redacted() Config {
	out := c
	out.Sources = append([]Source(nil), c.Sources...)
	if out.Classifier.APIKey != "" {
		out.Classifier.APIKey = "********"
	}
	if out.Storage.DSN != "" {
		out.Storage.DSN = "********"
	}
	return out
}

// Encode renders the config as TOML.
func (c Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
