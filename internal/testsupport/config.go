package testsupport

import (
	"path/filepath"
	"testing"

	"dropsort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The watch root and log directory are created, XDG_RUNTIME_DIR points at a
// private directory for lock files, and the settle interval is shortened so
// tests do not wait on the production budget.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WatchRoot = filepath.Join(base, "inbox")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Watch.SettleIntervalMS = 1
	cfgVal.Metrics.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	MkdirAll(t, builder.cfg.Paths.WatchRoot)
	MkdirAll(t, builder.cfg.Paths.LogDir)
	runtimeDir := filepath.Join(base, "run")
	MkdirAll(t, runtimeDir)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	return builder.cfg
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Workers = n
	}
}

// WithSweepOnStart toggles the startup sweep.
func WithSweepOnStart(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.SweepOnStart = enabled
	}
}

// WithMetricsBind enables the metrics listener.
func WithMetricsBind(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Bind = addr
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WatchRoot)
}
