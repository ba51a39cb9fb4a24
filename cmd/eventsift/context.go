package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"eventsift/internal/config"
	"eventsift/internal/logging"
	"eventsift/internal/store"
)

const defaultEnvFile = ".env"

type commandContext struct {
	configFlag *string
	envFlag    *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := loadEnvFile(flagValue(c.envFlag)); err != nil {
			c.configErr = err
			return
		}
		cfg, path, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// openStore loads configuration and opens the event store. The caller closes it.
func (c *commandContext) openStore() (*config.Config, *store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open event store: %w", err)
	}
	return cfg, st, nil
}

// runLogger builds the per-invocation logger and prunes expired run logs.
func (c *commandContext) runLogger(cfg *config.Config) (*logging.RunLog, error) {
	runLog, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.PruneRunLogs(runLog.Logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, runLog.Path)
	return runLog, nil
}

// loadEnvFile seeds the process environment from a dotenv file. Variables
// already set take precedence. A missing default file is ignored.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func flagValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
