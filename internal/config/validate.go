package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.ClientsFile) == "" {
		c.Paths.ClientsFile = filepath.Join(c.Paths.DataDir, "clients.json")
	} else if c.Paths.ClientsFile, err = expandPath(c.Paths.ClientsFile); err != nil {
		return err
	}

	if c.Workflow.RenderPollInterval <= 0 {
		c.Workflow.RenderPollInterval = defaultRenderPollInterval
	}
	if c.Workflow.RenderTimeout <= 0 {
		c.Workflow.RenderTimeout = defaultRenderTimeout
	}
	if c.Stub.RenderDelayMS < 0 {
		c.Stub.RenderDelayMS = 0
	}
	if c.Providers.RequestTimeout <= 0 {
		c.Providers.RequestTimeout = defaultProviderTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	if strings.TrimSpace(c.Scheduler.DefaultTimezone) == "" {
		c.Scheduler.DefaultTimezone = defaultTimezone
	}
	return nil
}

// Validate checks configuration invariants that cannot be normalized away.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.Stub.FailRate < 0 || c.Stub.FailRate > 1 {
		return fmt.Errorf("config: stub fail_rate must be between 0 and 1, got %v", c.Stub.FailRate)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: logging format must be text or json, got %q", c.Logging.Format)
	}
	if _, err := time.LoadLocation(c.Scheduler.DefaultTimezone); err != nil {
		return fmt.Errorf("config: default_timezone %q: %w", c.Scheduler.DefaultTimezone, err)
	}
	return nil
}

// RenderPollInterval returns the poll cadence as a duration.
func (c *Config) RenderPollInterval() time.Duration {
	return time.Duration(c.Workflow.RenderPollInterval) * time.Second
}

// RenderTimeout returns the render deadline as a duration. The stub render
// delay stretches the deadline so slow simulated renders still complete.
func (c *Config) RenderTimeout() time.Duration {
	timeout := time.Duration(c.Workflow.RenderTimeout) * time.Second
	stub := 3 * time.Duration(c.Stub.RenderDelayMS) * time.Millisecond
	if stub > timeout {
		return stub
	}
	return timeout
}

// StubRenderDelay returns the simulated render completion delay.
func (c *Config) StubRenderDelay() time.Duration {
	return time.Duration(c.Stub.RenderDelayMS) * time.Millisecond
}
