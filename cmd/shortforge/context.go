package main

import (
	"path/filepath"
	"strings"
	"sync"

	"log/slog"

	"github.com/spf13/cobra"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/logging"
	"shortforge/internal/pipeline"
	"shortforge/internal/providers"
	"shortforge/internal/quota"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loadClients() (*config.Config, []clients.Profile, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := clients.EnsureFile(cfg.Paths.ClientsFile); err != nil {
		return nil, nil, err
	}
	profiles, err := clients.Load(cfg.Paths.ClientsFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, profiles, nil
}

// withStores opens both SQLite stores for the duration of fn.
func (c *commandContext) withStores(fn func(*config.Config, *jobs.Store, *quota.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	jobStore, err := jobs.Open(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
	if err != nil {
		return err
	}
	defer jobStore.Close()

	quotaStore, err := quota.Open(filepath.Join(cfg.Paths.DataDir, "quota.db"))
	if err != nil {
		return err
	}
	defer quotaStore.Close()

	return fn(cfg, jobStore, quotaStore)
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewForDataDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}

func (c *commandContext) newRunner(cfg *config.Config, jobStore *jobs.Store, quotaStore *quota.Store, logger *slog.Logger) *pipeline.Runner {
	factory := providers.NewFactory(cfg, jobStore)
	return pipeline.NewRunner(cfg, factory, jobStore, quotaStore, nil, logger)
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
