package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
//
// A missing classifier credential is not a validation error: only cycles that
// include classification require it, and that precondition is checked by the
// pipeline before a cycle starts.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"fetch.timeout_seconds":         c.Fetch.TimeoutSeconds,
		"fetch.max_per_source":          c.Fetch.MaxPerSource,
		"links.timeout_seconds":         c.Links.TimeoutSeconds,
		"links.enhance_timeout_seconds": c.Links.EnhanceTimeoutSeconds,
		"schedule.interval_hours":       c.Schedule.IntervalHours,
		"classifier.timeout_seconds":    c.Classifier.TimeoutSeconds,
		"classifier.max_batches":        c.Classifier.MaxBatches,
		"classifier.retry_attempts":     c.Classifier.RetryAttempts,
		"classifier.max_tokens":         c.Classifier.MaxTokens,
	}); err != nil {
		return err
	}
	if len(c.Fetch.UserAgents) == 0 {
		return errors.New("fetch.user_agents must list at least one client identity")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("notifications.ntfy_topic must be an absolute http(s) URL, got %q", topic)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path must be set when storage.driver is sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn must be set when storage.driver is postgres (or set %s)", defaultPostgresDSNEnv)
		}
	default:
		return fmt.Errorf("storage.driver: unsupported value %q (use sqlite or postgres)", c.Storage.Driver)
	}
	return nil
}

func (c *Config) validateSources() error {
	for i, src := range c.Sources {
		parsed, err := url.Parse(src.URL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("sources[%d].url must be an absolute http(s) URL, got %q", i, src.URL)
		}
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.ConfidenceThreshold < minimumClassifierThreshold || c.Classifier.ConfidenceThreshold > 1 {
		return fmt.Errorf("classifier.confidence_threshold must be between %.1f and 1", minimumClassifierThreshold)
	}
	if c.Classifier.BatchSize < 1 || c.Classifier.BatchSize > maximumClassifierBatchSize {
		return fmt.Errorf("classifier.batch_size must be between 1 and %d", maximumClassifierBatchSize)
	}
	if c.Classifier.Temperature < 0 || c.Classifier.Temperature > 2 {
		return errors.New("classifier.temperature must be between 0 and 2")
	}
	if _, err := url.Parse(c.Classifier.BaseURL); err != nil {
		return fmt.Errorf("classifier.base_url: %w", err)
	}
	return nil
}

// RequireClassifierCredential reports a missing classification credential.
func (c *Config) RequireClassifierCredential() error {
	if strings.TrimSpace(c.Classifier.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/eventsift/config.toml"
	}
	return fmt.Errorf("classifier.api_key is required. Set %s or %s, or edit %s (create with 'eventsift config init')",
		defaultClassifierAPIKeyEnv, defaultClassifierOpenAIAPIKeyEnv, defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
