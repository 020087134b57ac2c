package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dropsort/internal/config"
	"dropsort/internal/daemon"
	"dropsort/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var rootFlag string
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the configured directory and organize new files until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			effective := *cfg
			if err := applyRunOverrides(&effective, rootFlag, workersFlag); err != nil {
				return err
			}

			logger, err := ctx.newLogger(&effective, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			d, err := daemon.New(&effective, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer d.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", effective.Paths.WatchRoot)
			waitErr := d.Wait()
			stats := d.Status().Stats
			logger.Info("dropsort watcher shutting down",
				logging.Int64("moved", stats.Moved),
				logging.Int64("skipped", stats.Skipped),
				logging.Int64("failed", stats.Failed),
			)
			if waitErr != nil {
				return waitErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "Directory to watch (overrides paths.watch_root)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Maximum concurrent organize jobs (overrides watch.workers)")
	return cmd
}

func applyRunOverrides(cfg *config.Config, root string, workers int) error {
	if root = strings.TrimSpace(root); root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			return fmt.Errorf("resolve --root: %w", err)
		}
		cfg.Paths.WatchRoot = filepath.Clean(expanded)
	}
	if workers < 0 {
		return errors.New("--workers must be positive")
	}
	if workers > 0 {
		cfg.Watch.Workers = workers
	}
	return cfg.Validate()
}
