package config

const (
	defaultConfigPath       = "~/.config/dropsort/config.toml"
	defaultWatchRoot        = "~/Downloads"
	defaultLogDir           = "~/.local/share/dropsort/logs"
	defaultWorkers          = 4
	defaultSettleAttempts   = 5
	defaultSettleIntervalMS = 500
	defaultMaxBatch         = 64
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	watchRootEnv = "DROPSORT_WATCH_ROOT"
)

// DefaultIgnorePatterns lists names browsers and download tools use for
// in-progress files. The final file arrives later under its real name.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.part",
		"*.crdownload",
		"*.download",
		"*.tmp",
		".~*",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchRoot: defaultWatchRoot,
			LogDir:    defaultLogDir,
		},
		Watch: Watch{
			Workers:          defaultWorkers,
			SettleAttempts:   defaultSettleAttempts,
			SettleIntervalMS: defaultSettleIntervalMS,
			MaxBatch:         defaultMaxBatch,
			IgnorePatterns:   DefaultIgnorePatterns(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
