package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropsort/internal/daemon"
	"dropsort/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show preflight checks and whether a watcher is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Watcher", colorize)
			held, lockErr := daemon.LockHeld(cfg.LockPath())
			switch {
			case lockErr != nil:
				lines = append(lines, renderStatusLine("Watcher", statusWarn, lockErr.Error(), colorize))
			case held:
				lines = append(lines, renderStatusLine("Watcher", statusOK, "running", colorize))
			default:
				lines = append(lines, renderStatusLine("Watcher", statusInfo, "not running", colorize))
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Workers", statusInfo, fmt.Sprint(cfg.Watch.Workers), colorize),
				renderStatusLine("Sweep on start", statusInfo, yesNo(cfg.Watch.SweepOnStart), colorize),
			)
			if cfg.Metrics.Bind != "" {
				lines = append(lines, renderStatusLine("Metrics", statusInfo, cfg.Metrics.Bind, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				switch {
				case !result.Passed && result.Optional:
					kind = statusWarn
				case !result.Passed:
					kind = statusError
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
