package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WatchRoot == "" {
		return fmt.Errorf("paths.watch_root must be set (or export %s)", watchRootEnv)
	}
	if !filepath.IsAbs(c.Paths.WatchRoot) {
		return fmt.Errorf("paths.watch_root must be absolute, got %q", c.Paths.WatchRoot)
	}
	if filepath.Dir(c.Paths.WatchRoot) == c.Paths.WatchRoot {
		return errors.New("paths.watch_root must not be the filesystem root")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if err := ensurePositiveMap(map[string]int{
		"watch.workers":            c.Watch.Workers,
		"watch.settle_attempts":    c.Watch.SettleAttempts,
		"watch.settle_interval_ms": c.Watch.SettleIntervalMS,
		"watch.max_batch":          c.Watch.MaxBatch,
	}); err != nil {
		return err
	}
	for _, pattern := range c.Watch.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("watch.ignore_patterns: invalid pattern %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
