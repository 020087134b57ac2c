package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dropsort/internal/classify"
	"dropsort/internal/config"
	"dropsort/internal/coord"
	"dropsort/internal/organizer"
	"dropsort/internal/settle"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize [PATH...]",
		Short: "Organize the given files, or every top-level file in the watch root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			paths, err := organizeTargets(cfg, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintf(out, "Nothing to organize in %s\n", cfg.Paths.WatchRoot)
				return nil
			}

			if dryRun {
				rows := make([][]string, 0, len(paths))
				for _, path := range paths {
					name := filepath.Base(path)
					category := classify.Classify(name)
					rows = append(rows, []string{name, string(category), filepath.Join(cfg.Paths.WatchRoot, string(category))})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Category", "Target Dir"}, rows, nil))
				return nil
			}

			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			placer, err := organizer.NewPlacer(cfg.Paths.WatchRoot, coord.NewGuard(), logger)
			if err != nil {
				return err
			}
			pipeline := organizer.NewPipeline(settle.New(cfg.Watch.SettleAttempts, cfg.SettleInterval()), placer, logger)

			results := make([]organizer.Result, len(paths))
			group, groupCtx := errgroup.WithContext(cmd.Context())
			group.SetLimit(cfg.Watch.Workers)
			for i, path := range paths {
				group.Go(func() error {
					results[i] = pipeline.Process(groupCtx, organizer.NewEvent(path, time.Now()))
					return nil
				})
			}
			_ = group.Wait()

			fmt.Fprintln(out, renderResults(results, cfg.Paths.WatchRoot))
			var failed int
			for _, result := range results {
				if result.Outcome == organizer.OutcomeFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) could not be organized", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the category each file would be moved to without moving it")
	return cmd
}

// organizeTargets resolves explicit arguments to absolute paths, or lists the
// regular files at the top of the watch root that no ignore pattern matches.
func organizeTargets(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(strings.TrimSpace(arg))
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", arg, err)
			}
			paths = append(paths, abs)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(cfg.Paths.WatchRoot)
	if err != nil {
		return nil, fmt.Errorf("read watch root: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || ignoredName(cfg.Watch.IgnorePatterns, entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(cfg.Paths.WatchRoot, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func ignoredName(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func renderResults(results []organizer.Result, root string) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		detail := result.Reason
		if result.Outcome == organizer.OutcomeMoved {
			if rel, err := filepath.Rel(root, result.Destination); err == nil {
				detail = rel
			} else {
				detail = result.Destination
			}
		} else if result.Err != nil {
			detail = result.Err.Error()
		}
		rows = append(rows, []string{
			filepath.Base(result.Source),
			categoryLabel(result.Category),
			string(result.Outcome),
			detail,
		})
	}
	return renderTable([]string{"File", "Category", "Outcome", "Detail"}, rows, nil)
}

func categoryLabel(category classify.Category) string {
	if category == "" {
		return "-"
	}
	return string(category)
}
