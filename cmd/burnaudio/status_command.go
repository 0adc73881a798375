package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"burnaudio/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show directory, tool and drive readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines,
				renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Capacity", statusInfo, humanize.Bytes(uint64(max(cfg.Disc.CapacityBytes, 0))), colorize),
				renderStatusLine("Quality", statusInfo, cfg.Transcode.Quality, colorize),
				renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d", cfg.Transcode.Workers), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, checkLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Tools", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Drive", colorize)...)
			probe := preflight.ProbeDrive(cfg.Disc.Device)
			kind := statusWarn
			switch {
			case probe.Ready():
				kind = statusOK
			case probe.Err != nil:
				kind = statusError
			}
			lines = append(lines, renderStatusLine("Burner", kind, probe.Detail(), colorize))

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
