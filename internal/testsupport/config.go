package testsupport

import (
	"path/filepath"
	"testing"

	"eventsift/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Network delays are zeroed and the source list is empty; options apply last.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.Driver = config.DriverSQLite
	cfgVal.Storage.Path = filepath.Join(base, "data", "events.db")
	cfgVal.Storage.DSN = ""
	cfgVal.Sources = nil
	cfgVal.Fetch.MinDelayMillis = 0
	cfgVal.Links.DelayMillis = 0
	cfgVal.Links.EnhanceDelayMillis = 0
	cfgVal.Classifier.APIKey = "test"
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithClassifierKey sets the classification credential on the test config.
func WithClassifierKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.APIKey = key
	}
}

// WithClassifierURL points the classifier at a test server.
func WithClassifierURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.BaseURL = url
	}
}

// WithSources replaces the configured source list.
func WithSources(sources ...config.Source) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = append([]config.Source(nil), sources...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
