package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dropsort/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DROPSORT_WATCH_ROOT", "")
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Downloads"); cfg.Paths.WatchRoot != want {
		t.Fatalf("unexpected watch root: got %q want %q", cfg.Paths.WatchRoot, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "dropsort", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if cfg.Watch.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Watch.Workers)
	}
	if cfg.Watch.SettleAttempts != 5 || cfg.SettleInterval().Milliseconds() != 500 {
		t.Fatalf("unexpected settle budget: %d x %s", cfg.Watch.SettleAttempts, cfg.SettleInterval())
	}
	if cfg.Metrics.Bind != "" {
		t.Fatalf("expected metrics disabled by default, got %q", cfg.Metrics.Bind)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.LogDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.WatchRoot); !os.IsNotExist(err) {
		t.Fatalf("watch root must not be created by EnsureDirectories, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dropsort.toml")
	t.Setenv("DROPSORT_WATCH_ROOT", "")

	type payload struct {
		Paths struct {
			WatchRoot string `toml:"watch_root"`
			LogDir    string `toml:"log_dir"`
		} `toml:"paths"`
		Watch struct {
			Workers        int      `toml:"workers"`
			IgnorePatterns []string `toml:"ignore_patterns"`
		} `toml:"watch"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.WatchRoot = filepath.Join(tempDir, "inbox")
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Watch.Workers = 9
	custom.Watch.IgnorePatterns = []string{" *.part ", "*.part", "", "*.!ut"}
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.WatchRoot != custom.Paths.WatchRoot {
		t.Fatalf("unexpected watch root %q", cfg.Paths.WatchRoot)
	}
	if cfg.Watch.Workers != 9 {
		t.Fatalf("expected workers 9, got %d", cfg.Watch.Workers)
	}
	if got := strings.Join(cfg.Watch.IgnorePatterns, ","); got != "*.part,*.!ut" {
		t.Fatalf("expected deduplicated ignore patterns, got %q", got)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lower-cased log format, got %q", cfg.Logging.Format)
	}
	if cfg.Watch.SettleAttempts != 5 {
		t.Fatalf("expected default settle attempts to survive partial file, got %d", cfg.Watch.SettleAttempts)
	}
}

func TestEnvVarOverridesWatchRoot(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dropsort.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nwatch_root = \"/srv/file-inbox\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	override := filepath.Join(tempDir, "from-env")
	t.Setenv("DROPSORT_WATCH_ROOT", override)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.WatchRoot != override {
		t.Fatalf("expected watch root from env, got %q", cfg.Paths.WatchRoot)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dropsort.toml")
	if err := os.WriteFile(configPath, []byte("[watch]\nrecursive = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Paths.WatchRoot != "~/Downloads" {
		t.Fatalf("unexpected sample watch root %q", cfg.Paths.WatchRoot)
	}
	if cfg.Watch.Workers != 4 || len(cfg.Watch.IgnorePatterns) == 0 {
		t.Fatalf("sample watch section incomplete: %+v", cfg.Watch)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"relative watch root", func(c *config.Config) { c.Paths.WatchRoot = "Downloads" }},
		{"filesystem root", func(c *config.Config) { c.Paths.WatchRoot = "/" }},
		{"zero workers", func(c *config.Config) { c.Watch.Workers = 0 }},
		{"negative settle attempts", func(c *config.Config) { c.Watch.SettleAttempts = -1 }},
		{"zero settle interval", func(c *config.Config) { c.Watch.SettleIntervalMS = 0 }},
		{"bad ignore pattern", func(c *config.Config) { c.Watch.IgnorePatterns = []string{"[abc"} }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.WatchRoot = "/srv/inbox"
			cfg.Paths.LogDir = "/srv/logs"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEncodeRoundTripsEffectiveConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WatchRoot = "/srv/inbox"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "watch_root") || !strings.Contains(string(data), "/srv/inbox") {
		t.Fatalf("expected watch_root in encoded config, got:\n%s", data)
	}
}

func TestLockPathFollowsWatchRoot(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	a := config.Default()
	a.Paths.WatchRoot = "/srv/inbox"
	a.Paths.LogDir = "/srv/logs-a"
	b := a
	b.Paths.LogDir = "/srv/logs-b"
	if a.LockPath() != b.LockPath() {
		t.Fatalf("lock differs across log dirs: %s vs %s", a.LockPath(), b.LockPath())
	}
	if filepath.Dir(a.LockPath()) != runtimeDir {
		t.Fatalf("expected lock under %s, got %s", runtimeDir, a.LockPath())
	}

	c := a
	c.Paths.WatchRoot = "/srv/other"
	if a.LockPath() == c.LockPath() {
		t.Fatal("expected different roots to use different locks")
	}
}
