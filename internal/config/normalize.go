package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeSources()
	c.normalizeLinks()
	c.normalizeFilter()
	c.normalizeClassifier()
	c.normalizeSchedule()
	c.normalizeLogging()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", "sqlite3":
		c.Storage.Driver = DriverSQLite
	case "postgresql", "pgx":
		c.Storage.Driver = DriverPostgres
	}
	if c.Storage.Driver == DriverSQLite {
		var err error
		if strings.TrimSpace(c.Storage.Path) == "" {
			c.Storage.Path = filepath.Join(c.Paths.DataDir, "events.db")
		}
		if c.Storage.Path, err = expandPath(c.Storage.Path); err != nil {
			return fmt.Errorf("storage.path: %w", err)
		}
	}
	c.Storage.DSN = strings.TrimSpace(c.Storage.DSN)
	if c.Storage.DSN == "" {
		if value, ok := os.LookupEnv(defaultPostgresDSNEnv); ok {
			c.Storage.DSN = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv(defaultPostgresFallbackDSNEnv); ok {
			c.Storage.DSN = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Fetch.MinDelayMillis < 0 {
		c.Fetch.MinDelayMillis = 0
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = defaultFetchMaxBodyBytes
	}
	if c.Fetch.MaxPerSource <= 0 {
		c.Fetch.MaxPerSource = defaultFetchMaxPerSource
	}
	agents := make([]string, 0, len(c.Fetch.UserAgents))
	for _, agent := range c.Fetch.UserAgents {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			agents = append(agents, trimmed)
		}
	}
	if len(agents) == 0 {
		agents = DefaultUserAgents()
	}
	c.Fetch.UserAgents = agents
	c.Fetch.DefaultLocation = strings.TrimSpace(c.Fetch.DefaultLocation)
	if c.Fetch.DefaultLocation == "" {
		c.Fetch.DefaultLocation = defaultLocation
	}
}

func (c *Config) normalizeSources() {
	sources := make([]Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		src.URL = strings.TrimSpace(src.URL)
		src.Type = strings.ToLower(strings.TrimSpace(src.Type))
		src.Name = strings.TrimSpace(src.Name)
		if src.URL == "" {
			continue
		}
		if src.Type == "" {
			src.Type = "generic"
		}
		sources = append(sources, src)
	}
	c.Sources = sources
}

func (c *Config) normalizeLinks() {
	if c.Links.TimeoutSeconds <= 0 {
		c.Links.TimeoutSeconds = defaultLinkTimeoutSeconds
	}
	if c.Links.DelayMillis < 0 {
		c.Links.DelayMillis = 0
	}
	if c.Links.EnhanceTimeoutSeconds <= 0 {
		c.Links.EnhanceTimeoutSeconds = defaultEnhanceTimeoutSeconds
	}
	if c.Links.EnhanceDelayMillis < 0 {
		c.Links.EnhanceDelayMillis = 0
	}
	c.Links.UserAgent = strings.TrimSpace(c.Links.UserAgent)
	if c.Links.UserAgent == "" {
		c.Links.UserAgent = defaultLinkUserAgent
	}
}

func (c *Config) normalizeFilter() {
	phrases := make([]string, 0, len(c.Filter.RestrictedPhrases))
	seen := make(map[string]struct{}, len(c.Filter.RestrictedPhrases))
	for _, phrase := range c.Filter.RestrictedPhrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		phrases = append(phrases, normalized)
	}
	c.Filter.RestrictedPhrases = phrases
}

func (c *Config) normalizeClassifier() {
	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	if c.Classifier.APIKey == "" {
		for _, env := range []string{defaultClassifierAPIKeyEnv, defaultClassifierOpenAIAPIKeyEnv, defaultClassifierOpenRouterKeyEnv} {
			if value, ok := os.LookupEnv(env); ok && strings.TrimSpace(value) != "" {
				c.Classifier.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	c.Classifier.Referer = strings.TrimSpace(c.Classifier.Referer)
	c.Classifier.Title = strings.TrimSpace(c.Classifier.Title)
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeoutSeconds
	}
	if c.Classifier.RetryAttempts <= 0 {
		c.Classifier.RetryAttempts = defaultClassifierRetryAttempts
	}
	if c.Classifier.BatchSize <= 0 {
		c.Classifier.BatchSize = defaultClassifierBatchSize
	}
	if c.Classifier.MaxBatches <= 0 {
		c.Classifier.MaxBatches = defaultClassifierMaxBatches
	}
	c.Classifier.Region = strings.TrimSpace(c.Classifier.Region)
	if c.Classifier.Region == "" {
		c.Classifier.Region = defaultClassifierRegion
	}
	if c.Classifier.MaxTokens <= 0 {
		c.Classifier.MaxTokens = defaultClassifierMaxTokens
	}
}

func (c *Config) normalizeSchedule() {
	if c.Schedule.IntervalHours <= 0 {
		c.Schedule.IntervalHours = defaultScheduleIntervalHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
