package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"burnaudio/internal/logging"
	"burnaudio/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage working directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No working directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Minute)
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, formatAge(age), formatBytes(dir.Size)})
			}

			fmt.Fprint(out, renderTable(
				[]string{"Directory", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale working directories",
		Long: `Remove BurnAudio-* working directories left behind by earlier runs.

By default, directories older than staging.stale_hours are removed. Use
--older-than to pick a different age, or --all to remove every working
directory regardless of age. Other entries in the staging directory are
never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			maxAge := olderThan
			switch {
			case cleanAll:
				maxAge = time.Nanosecond
			case maxAge <= 0:
				maxAge = time.Duration(cfg.Staging.StaleHours) * time.Hour
			}
			if maxAge <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Stale cleanup disabled (staging.stale_hours = 0)")
				return nil
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge,
				logging.NewComponentLogger(logger, "staging"))
			return printStagingCleanResult(cmd, result)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Remove directories older than this age (default staging.stale_hours)")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all working directories")

	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No working directories to clean")
		return nil
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d directories, %d errors\n", len(result.Removed), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return nil
	}
	fmt.Fprintf(out, "Removed %d directories\n", len(result.Removed))
	return nil
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}
