package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"burnaudio/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the BurnAudio log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			if path == "" {
				return fmt.Errorf("paths.log_dir is not configured")
			}

			var keep func(string) bool
			if id := strings.TrimSpace(runID); id != "" {
				keep = func(line string) bool { return strings.Contains(line, id) }
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines, keep)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, keep, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines mentioning this run ID")
	return cmd
}
